package legacy

import (
	"encoding/json"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/transport"
)

var Logger = common.GetLogger("transport/legacy")

// Fixed channel names of the legacy IPC surface
const (
	channelIsConnected = "core:is-connected"
	channelRequest     = "core:request"
)

// New creates a new legacy IPC transport for the given invoke function
func New(invoke common.LegacyInvokeFunc) transport.ITransport {
	return &legacyTransport{invoke: invoke}
}

// legacyTransport implements transport.ITransport over a single invoke function
type legacyTransport struct {
	invoke       common.LegacyInvokeFunc
	handler      transport.MessageHandler
	closeHandler transport.CloseHandler
}

// channelResult is the {success, data, error} shape returned by core:request
type channelResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.ITransport)
// --------------------------------------------------------------------------

func (t *legacyTransport) GetName() string {
	return "legacy"
}

func (t *legacyTransport) Open() error {
	if t.invoke == nil {
		return common.NewConnectionError("no legacy invoke channel available")
	}

	result, err := t.invoke(channelIsConnected)
	if err != nil {
		return common.NewConnectionError("legacy connectivity probe failed: %v", err)
	}
	if connected, ok := result.(bool); !ok || !connected {
		return common.NewConnectionError("core process is not connected")
	}
	return nil
}

func (t *legacyTransport) Close() error {
	return nil
}

func (t *legacyTransport) Send(env *common.Envelope) error {
	switch env.MsgType {
	case common.MsgTRoute:
		go t.request(env)

	case common.MsgTPublish, common.MsgTSubscribe, common.MsgTUnsubscribe:
		// fire and forget, the legacy channel has no dedicated control path
		go func() {
			if _, err := t.invoke(channelRequest, env); err != nil {
				Logger.Warnf("legacy %s envelope failed: %v", env.MsgType, err)
			}
		}()

	case common.MsgTHeartbeat:
		// call-based channel, nothing to keep alive

	default:
		return common.NewConnectionError("unsupported message type %s for legacy transport", env.MsgType)
	}
	return nil
}

func (t *legacyTransport) Handle(handler transport.MessageHandler) {
	t.handler = handler
}

func (t *legacyTransport) HandleClose(handler transport.CloseHandler) {
	// retained for interface symmetry, a call-based channel cannot close
	// unexpectedly
	t.closeHandler = handler
}

func (t *legacyTransport) RequiresHeartbeat() bool {
	return false
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// request sends a Route envelope through core:request and delivers the
// mapped response frame
func (t *legacyTransport) request(env *common.Envelope) {
	result, err := t.invoke(channelRequest, env)
	if err != nil {
		t.deliver(common.NewResponseFrame(env.ID, nil, err))
		return
	}

	// the channel returns a loosely typed {success, data, error} value,
	// remarshal it into the response shape
	raw, err := json.Marshal(result)
	if err != nil {
		t.deliver(common.NewResponseFrame(env.ID, nil, err))
		return
	}

	var res channelResult
	if err := json.Unmarshal(raw, &res); err != nil {
		t.deliver(common.NewResponseFrame(env.ID, nil, err))
		return
	}

	t.deliver(&common.Inbound{
		RequestID: env.ID,
		Success:   res.Success,
		Data:      res.Data,
		Error:     res.Error,
	})
}

// deliver hands a frame to the registered message handler
func (t *legacyTransport) deliver(in *common.Inbound) {
	if t.handler != nil {
		t.handler(in)
	}
}
