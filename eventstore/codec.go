package eventstore

import (
	"encoding/json"
	"reflect"
)

// NewJSONCodec constructs a json codec backed by the provided type registry
func NewJSONCodec(reg *Registry) *JSONCodec {
	return &JSONCodec{
		reg: reg,
	}
}

// JSONCodec provides the default json Codec implementation.
// It marshals events to json and stores the registry tag as the event
// discriminator (never the go type name)
type JSONCodec struct {
	reg *Registry
}

// Encode marshals an outgoing event to its json representation
func (c *JSONCodec) Encode(evt any) (*EncodedEvt, error) {
	tag, err := c.reg.TagFor(evt)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}

	return &EncodedEvt{
		Type: tag,
		Data: string(data),
	}, nil
}

// Decode unmarshals a stored event to its corresponding go type
// resolved through the registry (alias discriminators included)
func (c *JSONCodec) Decode(evt *EncodedEvt) (any, error) {
	t, err := c.reg.Resolve(evt.Type)
	if err != nil {
		return nil, err
	}

	v := reflect.New(t)

	err = json.Unmarshal([]byte(evt.Data), v.Interface())
	if err != nil {
		return nil, err
	}

	return v.Elem().Interface(), nil
}
