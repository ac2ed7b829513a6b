package bridge

import (
	"encoding/json"
	"strings"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = common.GetLogger("transport/bridge")

// New creates a new in-process bridge transport for the given bridge object
func New(b common.Bridge) transport.ITransport {
	return &bridgeTransport{
		bridge: b,
		unsubs: xsync.NewMapOf[string, func()](),
	}
}

// bridgeTransport implements transport.ITransport on top of a common.Bridge
type bridgeTransport struct {
	bridge       common.Bridge
	handler      transport.MessageHandler
	closeHandler transport.CloseHandler

	// event type -> unsubscribe function returned by the bridge
	unsubs *xsync.MapOf[string, func()]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.ITransport)
// --------------------------------------------------------------------------

func (t *bridgeTransport) GetName() string {
	return "bridge"
}

func (t *bridgeTransport) Open() error {
	if t.bridge == nil {
		return common.NewConnectionError("no bridge available")
	}
	// the bridge is synchronously available, there is no handshake
	return nil
}

func (t *bridgeTransport) Close() error {
	t.unsubs.Range(func(eventType string, unsub func()) bool {
		if unsub != nil {
			unsub()
		}
		t.unsubs.Delete(eventType)
		return true
	})
	return nil
}

func (t *bridgeTransport) Send(env *common.Envelope) error {
	switch env.MsgType {
	case common.MsgTRoute:
		go t.invoke(env)
		return nil

	case common.MsgTSubscribe:
		return t.subscribe(env.Payload.EventType)

	case common.MsgTUnsubscribe:
		if unsub, ok := t.unsubs.LoadAndDelete(env.Payload.EventType); ok && unsub != nil {
			unsub()
		}
		return nil

	case common.MsgTPublish:
		emitter, ok := t.bridge.(common.BridgeEmitter)
		if !ok {
			return common.NewConnectionError("bridge does not expose an emit API")
		}
		var data any
		if len(env.Payload.Data) > 0 {
			if err := json.Unmarshal(env.Payload.Data, &data); err != nil {
				return err
			}
		}
		emitter.Emit(env.Payload.EventType, data)
		return nil

	case common.MsgTHeartbeat:
		// the bridge is always synchronously available, nothing to keep alive
		return nil

	default:
		return common.NewConnectionError("unsupported message type %s for bridge transport", env.MsgType)
	}
}

func (t *bridgeTransport) Handle(handler transport.MessageHandler) {
	t.handler = handler
}

func (t *bridgeTransport) HandleClose(handler transport.CloseHandler) {
	// retained for interface symmetry, an in-process bridge cannot close
	// unexpectedly
	t.closeHandler = handler
}

func (t *bridgeTransport) RequiresHeartbeat() bool {
	return false
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// invoke executes a Route envelope against the bridge and delivers the
// synthesized response frame. Invoke errors are normalized into failure
// responses, never raised.
func (t *bridgeTransport) invoke(env *common.Envelope) {
	service, method, _ := strings.Cut(env.Payload.Action, ".")

	var params any
	if len(env.Payload.Params) > 0 {
		if err := json.Unmarshal(env.Payload.Params, &params); err != nil {
			t.deliver(common.NewResponseFrame(env.ID, nil, err))
			return
		}
	}

	result, err := t.bridge.Invoke(service, method, params)
	if err != nil {
		t.deliver(common.NewResponseFrame(env.ID, nil, err))
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.deliver(common.NewResponseFrame(env.ID, nil, err))
		return
	}

	t.deliver(common.NewResponseFrame(env.ID, data, nil))
}

// subscribe delegates to the bridge's own subscription API
func (t *bridgeTransport) subscribe(eventType string) error {
	events, ok := t.bridge.(common.BridgeEvents)
	if !ok {
		return common.NewConnectionError("bridge does not expose an event API")
	}

	if _, exists := t.unsubs.Load(eventType); exists {
		return nil
	}

	unsub := events.On(eventType, func(data any) {
		raw, err := json.Marshal(data)
		if err != nil {
			Logger.Warnf("dropping bridge event %q: %v", eventType, err)
			return
		}
		t.deliver(common.NewEventFrame(eventType, raw))
	})
	t.unsubs.Store(eventType, unsub)
	return nil
}

// deliver hands a frame to the registered message handler
func (t *bridgeTransport) deliver(in *common.Inbound) {
	if t.handler != nil {
		t.handler(in)
	}
}
