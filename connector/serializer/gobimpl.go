package serializer

import (
	"bytes"
	"encoding/gob"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format
func NewGOBSerializer() IWireSerializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the IWireSerializer interface using gob encoding
type gobSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IWireSerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) GetName() string {
	return "gob"
}

func (g gobSerializerImpl) SerializeEnvelope(env common.Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) DeserializeEnvelope(b []byte, env *common.Envelope) error {
	buf := bytes.NewBuffer(b)
	dec := gob.NewDecoder(buf)
	return dec.Decode(env)
}

func (g gobSerializerImpl) SerializeInbound(in common.Inbound) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) DeserializeInbound(b []byte, in *common.Inbound) error {
	buf := bytes.NewBuffer(b)
	dec := gob.NewDecoder(buf)
	return dec.Decode(in)
}
