package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparseable is returned when a response holds no decodable JSON.
var ErrUnparseable = errors.New("llm: response is not valid JSON")

// fencePattern matches the body of a markdown code fence, optionally tagged json.
var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

// DecodeJSON decodes a model response into v. The text is tried as JSON
// directly, then as the contents of a markdown code fence.
func DecodeJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrUnparseable
	}
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	m := fencePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return fmt.Errorf("%w: %s", ErrUnparseable, truncate(text, 200))
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return nil
}
