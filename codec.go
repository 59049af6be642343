package sluice

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec turns a stored config column into a typed value for Decode.
//
// Text and bytea columns reach Decode as raw document bytes and go straight
// to Unmarshal. Drivers that decode structured columns themselves (pgx
// returns JSONB as map[string]any) hand over a Go value instead; Decode
// re-encodes it with Marshal first so both paths share one Unmarshal.
type Codec interface {
	Unmarshal(data []byte, v any) error
	Marshal(v any) ([]byte, error)

	// ContentType names the document format in decode errors.
	ContentType() string
}

var (
	_ Codec = JSONCodec{}
	_ Codec = YAMLCodec{}
)

// errNullColumn reports a SQL NULL in the decoded column.
var errNullColumn = errors.New("column is null")

// columnBytes returns the document bytes held by a column value.
func columnBytes(codec Codec, raw any) ([]byte, error) {
	switch val := raw.(type) {
	case nil:
		return nil, errNullColumn
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	case json.RawMessage:
		return val, nil
	}
	data, err := codec.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("re-encode %T as %s: %w", raw, codec.ContentType(), err)
	}
	return data, nil
}

// JSONCodec decodes json, jsonb and JSON text columns.
type JSONCodec struct{}

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) ContentType() string                { return "application/json" }

// YAMLCodec decodes YAML documents kept in text columns. Structured values
// are re-encoded as YAML, which accepts any JSON-shaped map.
type YAMLCodec struct{}

func (YAMLCodec) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }
func (YAMLCodec) Marshal(v any) ([]byte, error)      { return yaml.Marshal(v) }
func (YAMLCodec) ContentType() string                { return "application/x-yaml" }
