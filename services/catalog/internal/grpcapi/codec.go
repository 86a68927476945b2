package grpcapi

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// ContentSubtype selects the JSON codec. Messages are plain Go structs, so a
// call without it is encoded as protobuf and rejected.
const ContentSubtype = "json"

// CallOption makes a call use the JSON codec. Pass it per call or once with
// grpc.WithDefaultCallOptions.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(ContentSubtype)
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return ContentSubtype }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
