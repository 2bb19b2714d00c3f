package parse

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

var ErrNotJSONObject = errors.New("content is not a JSON object")

// ParseJSONObject strips code fences and decodes a single JSON object.
func ParseJSONObject(content string) (map[string]interface{}, error) {
	stripped := strings.TrimSpace(StripFences(content))
	if !strings.HasPrefix(stripped, "{") {
		return nil, ErrNotJSONObject
	}

	decoder := json.NewDecoder(bytes.NewBufferString(stripped))
	var ret map[string]interface{}
	if err := decoder.Decode(&ret); err != nil {
		return nil, errors.Wrap(err, "could not decode JSON object")
	}
	if decoder.More() {
		return nil, errors.Wrap(ErrNotJSONObject, "trailing data after JSON object")
	}

	return ret, nil
}
