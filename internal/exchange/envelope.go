package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
)

var (
	// ErrEmptyPayload marks a 2xx reply whose data list is absent, null, or empty.
	ErrEmptyPayload = errors.New("empty payload")
	// ErrNoUsableRecords marks a data list in which no record carried a symbol.
	ErrNoUsableRecords = errors.New("no usable records")
)

type objectEnvelope struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// extractRecords returns the raw elements of the data list described by envelope and dataKey.
func extractRecords(body []byte, envelope, dataKey string) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrEmptyPayload
	}

	var list json.RawMessage
	switch envelope {
	case config.EnvelopeArray:
		// Some array endpoints still wrap the list; accept both shapes.
		if body[0] == '{' {
			var wrapped map[string]json.RawMessage
			if err := json.Unmarshal(body, &wrapped); err != nil {
				return nil, fmt.Errorf("decode envelope: %w", err)
			}
			list = wrapped[dataKeyOrDefault(dataKey)]
		} else {
			list = body
		}
	default:
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		list = wrapped[dataKeyOrDefault(dataKey)]
		if isNull(list) {
			var meta objectEnvelope
			_ = json.Unmarshal(body, &meta)
			if meta.Msg != "" {
				return nil, fmt.Errorf("%w: code=%s msg=%s", ErrEmptyPayload, meta.Code, meta.Msg)
			}
		}
	}

	if isNull(list) {
		return nil, ErrEmptyPayload
	}
	var records []json.RawMessage
	if err := json.Unmarshal(list, &records); err != nil {
		return nil, fmt.Errorf("decode data list: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyPayload
	}
	return records, nil
}

func dataKeyOrDefault(key string) string {
	if key == "" {
		return "data"
	}
	return key
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeNumbers unmarshals v keeping JSON numbers as json.Number.
func decodeNumbers(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
