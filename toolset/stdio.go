package toolset

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// wireRequest is one inbound tool call on the stdio surface.
type wireRequest struct {
	ID   string         `json:"id,omitempty"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// wireResponse answers one wireRequest.
type wireResponse struct {
	ID    string `json:"id,omitempty"`
	OK    bool   `json:"ok"`
	Value any    `json:"value,omitempty"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// ServeStdio dispatches newline-delimited JSON tool calls from r into the
// service, writing one response per request to w. Tool failures become
// error responses; only transport failures end the loop.
func ServeStdio(ctx context.Context, r io.Reader, w io.Writer, svc *Service) error {
	enc := json.NewEncoder(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req wireRequest
		if err := json.Unmarshal(line, &req); err != nil {
			resp := wireResponse{OK: false, Code: CodeInvalidArgument, Error: fmt.Sprintf("decode request: %v", err)}
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			continue
		}

		resp := wireResponse{ID: req.ID}
		value, err := svc.Call(ctx, req.Tool, req.Args)
		if err != nil {
			var callErr *CallError
			if errors.As(err, &callErr) {
				resp.Code = callErr.Code
			} else {
				resp.Code = CodeInternal
			}
			resp.Error = err.Error()
		} else {
			resp.OK = true
			resp.Value = value
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}
