package connect

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec encodes the plain Go message types of this package as JSON.
// It replaces connect's default "json" codec, which only accepts protobuf messages.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal treats an empty body as an empty message, so plain
// `curl -X POST` works for requests without fields.
func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
