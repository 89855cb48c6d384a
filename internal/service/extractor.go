package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoConfigFound is returned when the model output contains no parseable
// JSON object. This is an expected condition, not a fault: the model's
// output is free-form and unreliable by nature.
var ErrNoConfigFound = errors.New("no configuration object found in model output")

// ExtractConfigJSON locates the embedded JSON payload inside arbitrary
// surrounding text (prose, code fences, whatever the model decided to add)
// and returns it as raw bytes. The span is the widest balanced guess: from
// the first '{' through the last '}' in the text.
func ExtractConfigJSON(raw string) ([]byte, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoConfigFound
	}

	span := []byte(raw[start : end+1])
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(span, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoConfigFound, err)
	}
	return span, nil
}
