package connector

import (
	"io"
	"sync"
	"time"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/serializer"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/transport"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/transport/bridge"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/transport/legacy"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/transport/socket"
	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = common.GetLogger("connector")

// runtime counters, exposed in Prometheus format via WriteMetrics
var (
	metricRequests        = metrics.NewCounter("core_connector_requests_total")
	metricRequestTimeouts = metrics.NewCounter("core_connector_request_timeouts_total")
	metricRequestFailures = metrics.NewCounter("core_connector_request_failures_total")
	metricReconnects      = metrics.NewCounter("core_connector_reconnect_attempts_total")
	metricHeartbeats      = metrics.NewCounter("core_connector_heartbeats_total")
	metricEvents          = metrics.NewCounter("core_connector_events_dispatched_total")
)

// WriteMetrics dumps the connector runtime counters in Prometheus text
// format, e.g. into an HTTP handler of the embedding application.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}

// New creates a connector, selecting the transport from the options in
// priority order: in-process bridge, legacy invoke channel, socket.
func New(opts common.Options) (IConnector, error) {
	opts = opts.Normalized()

	t, err := selectTransport(opts)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(opts, t)
}

// NewWithTransport creates a connector bound to an explicitly injected
// transport
func NewWithTransport(opts common.Options, t transport.ITransport) (IConnector, error) {
	opts = opts.Normalized()

	c := &connector{
		opts:      opts,
		transport: t,
		clientID:  uuid.NewString(),
		pending:   xsync.NewMapOf[string, chan pendingResult](),
		events:    newEventRouter(),
	}

	t.Handle(c.handleInbound)
	t.HandleClose(c.handleTransportClose)
	return c, nil
}

// selectTransport probes the configured transports without performing any
// I/O. Exactly one is bound for the connector's lifetime.
func selectTransport(opts common.Options) (transport.ITransport, error) {
	if opts.Bridge != nil {
		return bridge.New(opts.Bridge), nil
	}
	if opts.LegacyInvoke != nil {
		return legacy.New(opts.LegacyInvoke), nil
	}

	ser, err := serializer.New(opts.Serializer)
	if err != nil {
		return nil, err
	}
	return socket.New(opts, ser)
}

// connector implements IConnector
type connector struct {
	opts      common.Options
	transport transport.ITransport
	clientID  string

	mu             sync.Mutex // guards state, attempts, timers, closing
	state          common.ConnectionState
	attempts       int
	reconnectTimer *time.Timer
	closing        bool
	heartbeatStop  chan struct{}

	// request id -> response channel of the waiting caller
	pending *xsync.MapOf[string, chan pendingResult]

	events *eventRouter
}

// --------------------------------------------------------------------------
// Interface Methods: lifecycle (docu see connector.IConnector)
// --------------------------------------------------------------------------

func (c *connector) Connect() error {
	c.mu.Lock()
	switch c.state {
	case common.StateConnected:
		c.mu.Unlock()
		return nil
	case common.StateConnecting:
		c.mu.Unlock()
		return common.NewConnectionError("connection attempt already in progress")
	}
	c.state = common.StateConnecting
	c.closing = false
	c.mu.Unlock()

	if err := c.transport.Open(); err != nil {
		c.mu.Lock()
		c.state = common.StateDisconnected
		c.mu.Unlock()

		if _, ok := err.(*common.ConnectionError); ok {
			return err
		}
		return common.NewConnectionError("failed to open %s transport: %v", c.transport.GetName(), err)
	}

	c.mu.Lock()
	c.state = common.StateConnected
	c.attempts = 0
	c.startHeartbeatLocked()
	c.mu.Unlock()

	Logger.Infof("connected to core via %s transport", c.transport.GetName())

	// re-enable server-side delivery for every event type that still has
	// local handlers
	c.resubscribe()
	return nil
}

func (c *connector) Disconnect() error {
	c.mu.Lock()
	c.closing = true
	c.attempts = 0
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopHeartbeatLocked()
	c.state = common.StateDisconnected
	c.mu.Unlock()

	c.failPending(common.NewConnectionError("connection closed"))

	if err := c.transport.Close(); err != nil {
		Logger.Warnf("error closing %s transport: %v", c.transport.GetName(), err)
	}
	return nil
}

func (c *connector) State() common.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *connector) ClientID() string {
	return c.clientID
}

// --------------------------------------------------------------------------
// Unexpected close and reconnection
// --------------------------------------------------------------------------

// handleTransportClose reacts to a connection loss the connector did not
// initiate: outstanding requests are rejected and reconnection starts.
func (c *connector) handleTransportClose(err error) {
	c.mu.Lock()
	if c.closing || c.state != common.StateConnected {
		c.mu.Unlock()
		return
	}
	c.state = common.StateDisconnected
	c.stopHeartbeatLocked()
	c.mu.Unlock()

	Logger.Warnf("connection to core lost: %v", err)
	c.failPending(common.NewConnectionError("connection lost"))
	c.scheduleReconnect()
}

// scheduleReconnect arms the next reconnection attempt with linear backoff
// (delay = ReconnectDelay * attempt number), bounded by
// MaxReconnectAttempts. The counter resets on every successful connect and
// on explicit Disconnect.
func (c *connector) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.opts.Reconnect {
		return
	}
	if c.attempts >= c.opts.MaxReconnectAttempts {
		Logger.Warnf("giving up on reconnection after %d attempts", c.attempts)
		return
	}

	c.attempts++
	attempt := c.attempts
	delay := c.opts.ReconnectDelay * time.Duration(attempt)

	Logger.Infof("reconnect attempt %d/%d in %v", attempt, c.opts.MaxReconnectAttempts, delay)
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		aborted := c.closing
		c.mu.Unlock()
		if aborted {
			return
		}

		metricReconnects.Inc()
		if err := c.Connect(); err != nil {
			Logger.Warnf("reconnect attempt %d/%d failed: %v", attempt, c.opts.MaxReconnectAttempts, err)
			// the dialer reports failure as an error rather than a close
			// event, so arm the next attempt from here
			c.scheduleReconnect()
		}
	})
}

// --------------------------------------------------------------------------
// Heartbeat Monitor
// --------------------------------------------------------------------------

// startHeartbeatLocked starts the keep-alive loop for transports that need
// one. Caller must hold c.mu.
func (c *connector) startHeartbeatLocked() {
	if !c.transport.RequiresHeartbeat() || c.opts.HeartbeatInterval <= 0 {
		return
	}
	if c.heartbeatStop != nil {
		return
	}

	stop := make(chan struct{})
	c.heartbeatStop = stop
	go c.runHeartbeat(stop)
}

// stopHeartbeatLocked stops the keep-alive loop. Caller must hold c.mu.
func (c *connector) stopHeartbeatLocked() {
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
}

// runHeartbeat periodically sends Heartbeat envelopes. Send failures are
// logged and never change connection state, only an actual transport close
// does.
func (c *connector) runHeartbeat(stop chan struct{}) {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			env := common.NewHeartbeatEnvelope(c.clientID)
			if err := c.transport.Send(env); err != nil {
				Logger.Warnf("heartbeat send failed: %v", err)
				continue
			}
			metricHeartbeats.Inc()
		}
	}
}
