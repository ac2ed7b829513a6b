package connector

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Interface Methods: events (docu see connector.IConnector)
// --------------------------------------------------------------------------

func (c *connector) On(eventType string, handler EventHandler) (ISubscription, error) {
	if eventType == "" {
		return nil, fmt.Errorf("event type must not be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("event handler must not be nil")
	}

	id, first := c.events.add(eventType, handler)
	sub := &subscription{c: c, eventType: eventType, id: id}

	// the first handler of a type enables server-side delivery; later
	// registrations reuse the existing subscription
	if first && c.State() == common.StateConnected {
		if err := c.sendControl(common.NewSubscribeEnvelope(c.clientID, eventType)); err != nil {
			c.events.remove(eventType, id)
			return nil, err
		}
	}

	return sub, nil
}

func (c *connector) Once(eventType string, handler EventHandler) (ISubscription, error) {
	w := &onceHandler{fn: handler}

	sub, err := c.On(eventType, w.handle)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.sub = sub
	fired := w.fired
	w.mu.Unlock()

	// the event may have arrived before the handle was stored
	if fired {
		_ = sub.Release()
	}
	return sub, nil
}

func (c *connector) Off(eventType string) error {
	removed := c.events.removeAll(eventType)
	if removed == 0 {
		return nil
	}

	if c.State() == common.StateConnected {
		return c.sendControl(common.NewUnsubscribeEnvelope(c.clientID, eventType))
	}
	return nil
}

// --------------------------------------------------------------------------
// Dispatch
// --------------------------------------------------------------------------

// dispatchEvent delivers an event to exact-match handlers first, then to
// wildcard handlers. Handlers run on the transport's reader goroutine in
// arrival order.
func (c *connector) dispatchEvent(eventType string, data json.RawMessage) {
	metricEvents.Inc()

	c.events.invoke(eventType, eventType, data)
	if eventType != WildcardEvent {
		c.events.invoke(WildcardEvent, eventType, data)
	}
}

// resubscribe re-sends Subscribe envelopes for every event type that still
// has local handlers. Called after every successful (re)connect so handler
// registrations survive a reconnect.
func (c *connector) resubscribe() {
	for _, eventType := range c.events.types() {
		if err := c.sendControl(common.NewSubscribeEnvelope(c.clientID, eventType)); err != nil {
			Logger.Warnf("failed to resubscribe %q: %v", eventType, err)
		}
	}
}

// sendControl sends a Subscribe/Unsubscribe envelope
func (c *connector) sendControl(env *common.Envelope) error {
	if err := c.transport.Send(env); err != nil {
		if connErr, ok := err.(*common.ConnectionError); ok {
			return connErr
		}
		return common.NewConnectionError("failed to send %s envelope: %v", env.MsgType, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Subscription handle
// --------------------------------------------------------------------------

// subscription implements ISubscription
type subscription struct {
	c         *connector
	eventType string
	id        uint64
	released  atomic.Bool
}

func (s *subscription) Release() error {
	if !s.released.CompareAndSwap(false, true) {
		return nil
	}

	last := s.c.events.remove(s.eventType, s.id)
	if last && s.c.State() == common.StateConnected {
		return s.c.sendControl(common.NewUnsubscribeEnvelope(s.c.clientID, s.eventType))
	}
	return nil
}

// onceHandler wraps a handler so it unregisters itself after the first
// invocation, independent of any native once support in the transport
type onceHandler struct {
	mu    sync.Mutex
	fired bool
	sub   ISubscription
	fn    EventHandler
}

func (w *onceHandler) handle(eventType string, data json.RawMessage) {
	w.mu.Lock()
	if w.fired {
		w.mu.Unlock()
		return
	}
	w.fired = true
	sub := w.sub
	w.mu.Unlock()

	w.fn(eventType, data)
	if sub != nil {
		_ = sub.Release()
	}
}

// --------------------------------------------------------------------------
// Event Handler Registry
// --------------------------------------------------------------------------

// newEventRouter creates an empty handler registry
func newEventRouter() *eventRouter {
	return &eventRouter{
		handlers: xsync.NewMapOf[string, *xsync.MapOf[uint64, EventHandler]](),
	}
}

// eventRouter maps event types to their registered handlers. "*" is a
// reserved key for wildcard handlers.
type eventRouter struct {
	nextID   atomic.Uint64
	handlers *xsync.MapOf[string, *xsync.MapOf[uint64, EventHandler]]
}

// add registers a handler and reports whether it is the first one for the
// event type
func (r *eventRouter) add(eventType string, handler EventHandler) (id uint64, first bool) {
	set, _ := r.handlers.LoadOrCompute(eventType, func() *xsync.MapOf[uint64, EventHandler] {
		return xsync.NewMapOf[uint64, EventHandler]()
	})

	id = r.nextID.Add(1)
	first = set.Size() == 0
	set.Store(id, handler)
	return id, first
}

// remove unregisters one handler and reports whether it was the last one
// for the event type
func (r *eventRouter) remove(eventType string, id uint64) (last bool) {
	set, ok := r.handlers.Load(eventType)
	if !ok {
		return false
	}
	if _, ok := set.LoadAndDelete(id); !ok {
		return false
	}
	return set.Size() == 0
}

// removeAll unregisters every handler of an event type and returns how
// many were removed
func (r *eventRouter) removeAll(eventType string) int {
	set, ok := r.handlers.LoadAndDelete(eventType)
	if !ok {
		return 0
	}
	return set.Size()
}

// types returns every event type with at least one registered handler
func (r *eventRouter) types() []string {
	var out []string
	r.handlers.Range(func(eventType string, set *xsync.MapOf[uint64, EventHandler]) bool {
		if set.Size() > 0 {
			out = append(out, eventType)
		}
		return true
	})
	return out
}

// invoke calls every handler registered under key. A panicking handler is
// logged and does not interrupt delivery to the remaining handlers.
func (r *eventRouter) invoke(key, eventType string, data json.RawMessage) {
	set, ok := r.handlers.Load(key)
	if !ok {
		return
	}

	set.Range(func(_ uint64, handler EventHandler) bool {
		safeInvoke(handler, eventType, data)
		return true
	})
}

// safeInvoke shields dispatch from handler panics
func safeInvoke(handler EventHandler, eventType string, data json.RawMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			Logger.Errorf("event handler for %q panicked: %v", eventType, rec)
		}
	}()
	handler(eventType, data)
}
