package serializer

import (
	"fmt"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
)

// IWireSerializer is the interface for all envelope serializers
type IWireSerializer interface {
	// GetName returns the name of the serializer (e.g. "json", "gob")
	GetName() string

	// SerializeEnvelope serializes an outbound Envelope into a byte array
	SerializeEnvelope(env common.Envelope) ([]byte, error)

	// DeserializeEnvelope deserializes a byte array into an Envelope
	DeserializeEnvelope(b []byte, env *common.Envelope) error

	// SerializeInbound serializes an Inbound frame into a byte array
	SerializeInbound(in common.Inbound) ([]byte, error)

	// DeserializeInbound deserializes a byte array into an Inbound frame
	DeserializeInbound(b []byte, in *common.Inbound) error
}

// New creates a serializer by name ("json" or "gob")
func New(name string) (IWireSerializer, error) {
	switch name {
	case "", "json":
		return NewJSONSerializer(), nil
	case "gob":
		return NewGOBSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", name)
	}
}
