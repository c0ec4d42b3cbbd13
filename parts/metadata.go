package parts

import (
	"strings"

	"github.com/jonwraymond/toolfoundation/model"
)

const docstringDelim = `"""`

// parseMetadata extracts "Key: value" pairs from the first triple-quoted
// block of a part script. Keys are lower-cased with spaces folded to
// underscores, so "Part Name: Bearing" yields part_name. The tags key is
// split on commas and normalized; everything else is kept verbatim.
//
// A script without a docstring yields empty metadata, not an error.
func parseMetadata(source string) (meta map[string]string, tags []string) {
	meta = map[string]string{}

	start := strings.Index(source, docstringDelim)
	if start < 0 {
		return meta, nil
	}
	rest := source[start+len(docstringDelim):]
	end := strings.Index(rest, docstringDelim)
	if end < 0 {
		return meta, nil
	}

	for _, line := range strings.Split(rest[:end], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		key = strings.ReplaceAll(key, " ", "_")
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if key == "tags" {
			tags = model.NormalizeTags(strings.Split(value, ","))
			meta[key] = value
			continue
		}
		meta[key] = value
	}
	return meta, tags
}
