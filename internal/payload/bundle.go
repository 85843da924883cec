// Package payload holds the operation-dependent documents stored with jobs
// and analytics events.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Bundle is a string-keyed document of primitive or nested values. It is
// serialized as JSON at rest.
type Bundle map[string]any

// Marshal encodes b for storage. A nil bundle encodes to "{}".
func Marshal(b Bundle) (string, error) {
	if b == nil {
		return "{}", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal bundle: %w", err)
	}
	return string(data), nil
}

// Unmarshal restores a bundle written by Marshal.
func Unmarshal(raw string) (Bundle, error) {
	ret := Bundle{}
	if raw == "" {
		return ret, nil
	}
	if err := json.Unmarshal([]byte(raw), &ret); err != nil {
		return nil, fmt.Errorf("unmarshal bundle: %w", err)
	}
	return ret, nil
}

// From converts any JSON-encodable value into a Bundle.
func From(v any) (Bundle, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	ret := Bundle{}
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Decode re-decodes b into a typed value. Unknown keys are rejected.
func (b Bundle) Decode(into any) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(into)
}
