package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkBlock matches a leading <think>...</think> section emitted by
// reasoning models.
var thinkBlock = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// ExtractJSONObject returns the first JSON object found in a model reply.
// Leading think blocks and markdown code fences are ignored.
func ExtractJSONObject(response string) (string, error) {
	cleaned := thinkBlock.ReplaceAllString(response, "")

	for offset := 0; offset < len(cleaned); {
		i := strings.IndexByte(cleaned[offset:], '{')
		if i < 0 {
			break
		}
		start := offset + i

		var raw json.RawMessage
		dec := json.NewDecoder(strings.NewReader(cleaned[start:]))
		if err := dec.Decode(&raw); err == nil {
			return string(raw), nil
		}
		offset = start + 1
	}

	return "", fmt.Errorf("no JSON object found in response")
}

// ParseJSONResponse extracts a JSON object from a reply and decodes it into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	obj, err := ExtractJSONObject(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return result, nil
}
