package connect

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Codec marshals plain Go structs as JSON. It replaces connect's default
// "json" codec, which only accepts protobuf messages.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal message")
	}
	return b, nil
}

// Unmarshal implements connect.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "failed to unmarshal message")
	}
	return nil
}
