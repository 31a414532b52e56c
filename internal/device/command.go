package device

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Queue commands travel to the queue actor as protobuf Structs so that each
// submitted command is an immutable copy of the host values at submit time.
const (
	opDispatch = "dispatch"
	opRelease  = "release"
	opUnbind   = "unbind"
)

type command struct {
	op      string
	seq     uint64
	binding BindingID
	buffer  BufferID
	groups  int
	values  map[string]float64
}

func (c command) toProto() (*structpb.Struct, error) {
	fields := map[string]any{
		"op":  c.op,
		"seq": float64(c.seq),
	}
	switch c.op {
	case opDispatch:
		values := make(map[string]any, len(c.values))
		for k, v := range c.values {
			values[k] = v
		}
		fields["binding"] = float64(c.binding)
		fields["groups"] = float64(c.groups)
		fields["values"] = values
	case opRelease:
		fields["buffer"] = float64(c.buffer)
	case opUnbind:
		fields["binding"] = float64(c.binding)
	default:
		return nil, fmt.Errorf("device: unknown command %q", c.op)
	}
	return structpb.NewStruct(fields)
}

func commandFromProto(s *structpb.Struct) (command, error) {
	f := s.GetFields()
	c := command{
		op:  f["op"].GetStringValue(),
		seq: uint64(f["seq"].GetNumberValue()),
	}
	switch c.op {
	case opDispatch:
		c.binding = BindingID(f["binding"].GetNumberValue())
		c.groups = int(f["groups"].GetNumberValue())
		values := f["values"].GetStructValue().GetFields()
		c.values = make(map[string]float64, len(values))
		for k, v := range values {
			c.values[k] = v.GetNumberValue()
		}
	case opRelease:
		c.buffer = BufferID(f["buffer"].GetNumberValue())
	case opUnbind:
		c.binding = BindingID(f["binding"].GetNumberValue())
	default:
		return c, fmt.Errorf("device: unknown command %q", c.op)
	}
	return c, nil
}
