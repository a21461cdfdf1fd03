package grpcserver

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct encodes v as JSON and loads it into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("load struct: %w", err)
	}
	return out, nil
}

// toList is toStruct for JSON arrays.
func toList(v any) (*structpb.ListValue, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	out := new(structpb.ListValue)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("load list: %w", err)
	}
	return out, nil
}

// fromMessage decodes a Struct or ListValue into v through JSON.
func fromMessage(m proto.Message, v any) error {
	raw, err := protojson.Marshal(m)
	if err != nil {
		return fmt.Errorf("dump message: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
