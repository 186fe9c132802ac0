package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
)

// Encoder serializes published payloads.
type Encoder interface {
	Name() string
	Encode(v interface{}) ([]byte, error)
}

// JSONEncoder encodes as JSON.
type JSONEncoder struct{}

// Name implements Encoder.
func (JSONEncoder) Name() string { return "json" }

// Encode implements Encoder.
func (JSONEncoder) Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// ProtoEncoder encodes as a google.protobuf.Struct with the same fields
// as the JSON form, for consumers preferring protobuf.
type ProtoEncoder struct{}

// Name implements Encoder.
func (ProtoEncoder) Name() string { return "proto" }

// Encode implements Encoder.
func (ProtoEncoder) Encode(v interface{}) ([]byte, error) {
	s, err := ToStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// ToStruct converts v to a protobuf Struct through its JSON form.
func ToStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var s structpb.Struct
	if err := jsonpb.Unmarshal(bytes.NewReader(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeProto decodes a ProtoEncoder payload into v.
func DecodeProto(data []byte, v interface{}) error {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return err
	}
	str, err := (&jsonpb.Marshaler{OrigName: true}).MarshalToString(&s)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(str), v)
}

// EncoderByName finds an Encoder.
func EncoderByName(name string) (Encoder, error) {
	switch name {
	case "", "json":
		return JSONEncoder{}, nil
	case "proto", "protobuf":
		return ProtoEncoder{}, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}
