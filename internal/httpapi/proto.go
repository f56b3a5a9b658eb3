package httpapi

import (
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Nodes that speak protobuf send a google.protobuf.Struct whose fields
// mirror the JSON body. Bridging through protojson keeps one set of Go
// types for every encoding.

func unmarshalStruct(data []byte, v any) error {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := protojson.Marshal(&s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func marshalStruct(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var s structpb.Struct
	if err := protojson.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return proto.Marshal(&s)
}
