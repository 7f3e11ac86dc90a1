package coder

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Protobuf stores a caller-defined message type in a cell. Decoding needs a
// concrete message to unmarshal into, so the column registers a constructor
// (e.g. func() proto.Message { return &pb.UserEvent{} }).
type Protobuf struct {
	new func() proto.Message
}

func NewProtobuf(ctor func() proto.Message) (Protobuf, error) {
	if ctor == nil {
		return Protobuf{}, errors.New("coder: protobuf needs a message constructor")
	}
	return Protobuf{new: ctor}, nil
}

func (Protobuf) FixedWidth() int { return -1 }

func (c Protobuf) ToBytes(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("coder: protobuf: %T does not implement proto.Message", v)
	}
	return proto.Marshal(m)
}

func (c Protobuf) FromBytes(b []byte) (any, error) {
	m := c.new()
	if err := proto.Unmarshal(b, m); err != nil {
		return nil, err
	}
	return m, nil
}
