package toolset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func serveLines(t *testing.T, h *harness, input string) []wireResponse {
	t.Helper()

	var out bytes.Buffer
	if err := ServeStdio(context.Background(), strings.NewReader(input), &out, h.svc); err != nil {
		t.Fatalf("ServeStdio: %v", err)
	}

	var responses []wireResponse
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp wireResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", scanner.Text(), err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func TestServeStdioDispatch(t *testing.T) {
	h := newHarness(t)

	req, _ := json.Marshal(wireRequest{
		ID:   "1",
		Tool: ToolExecuteScript,
		Args: map[string]any{
			"workspace_path": h.ws,
			"script":         "publish box\n",
			"request_id":     "req",
		},
	})

	responses := serveLines(t, h, string(req)+"\n")
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
	resp := responses[0]
	if !resp.OK || resp.ID != "1" {
		t.Fatalf("resp = %+v", resp)
	}
	value := resp.Value.(map[string]any)
	if value["request_id"] != "req" {
		t.Errorf("value = %v", value)
	}
}

func TestServeStdioErrorsStayInBand(t *testing.T) {
	h := newHarness(t)

	lines := []string{
		`{"id":"1","tool":"no_such_tool"}`,
		`not json at all`,
		`{"id":"3","tool":"get_properties","args":{"result_id":"ghost"}}`,
	}
	responses := serveLines(t, h, strings.Join(lines, "\n")+"\n")
	if len(responses) != 3 {
		t.Fatalf("got %d responses, want 3", len(responses))
	}
	if responses[0].OK || responses[0].Code != CodeUnknownTool {
		t.Errorf("resp[0] = %+v", responses[0])
	}
	if responses[1].OK || responses[1].Code != CodeInvalidArgument {
		t.Errorf("resp[1] = %+v", responses[1])
	}
	if responses[2].OK || responses[2].Code != CodeNotFound {
		t.Errorf("resp[2] = %+v", responses[2])
	}
}

func TestServeStdioSkipsBlankLines(t *testing.T) {
	h := newHarness(t)

	responses := serveLines(t, h, "\n\n"+`{"id":"1","tool":"scan_library"}`+"\n")
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
	if !responses[0].OK {
		t.Errorf("resp = %+v", responses[0])
	}
}
