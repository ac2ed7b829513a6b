package serializer

import (
	"encoding/json"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() IWireSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IWireSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IWireSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) GetName() string {
	return "json"
}

func (j jsonSerializerImpl) SerializeEnvelope(env common.Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func (j jsonSerializerImpl) DeserializeEnvelope(b []byte, env *common.Envelope) error {
	return json.Unmarshal(b, env)
}

func (j jsonSerializerImpl) SerializeInbound(in common.Inbound) ([]byte, error) {
	return json.Marshal(in)
}

func (j jsonSerializerImpl) DeserializeInbound(b []byte, in *common.Inbound) error {
	return json.Unmarshal(b, in)
}
