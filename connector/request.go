package connector

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/connector/common"
)

// pendingResult settles one outstanding request
type pendingResult struct {
	resp *Response
	err  error
}

// --------------------------------------------------------------------------
// Interface Methods: requests (docu see connector.IConnector)
// --------------------------------------------------------------------------

func (c *connector) Request(req Request) (*Response, error) {
	if c.State() != common.StateConnected {
		return nil, common.NewConnectionError("not connected to core")
	}
	if req.Service == "" || req.Method == "" {
		return nil, fmt.Errorf("request needs both service and method")
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.opts.Timeout
	}

	params, err := marshalPayload(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %v", err)
	}

	env := common.NewRouteEnvelope(c.clientID, req.Service+"."+req.Method, params, timeout)

	// Register the pending entry before sending so a fast response cannot
	// race the registration. The deferred delete guarantees the map never
	// retains a settled entry.
	respCh := make(chan pendingResult, 1)
	c.pending.Store(env.ID, respCh)
	defer c.pending.Delete(env.ID)

	metricRequests.Inc()

	if err := c.transport.Send(env); err != nil {
		metricRequestFailures.Inc()
		return nil, common.NewConnectionError("failed to send request: %v", err)
	}

	select {
	case result := <-respCh:
		if result.err != nil {
			metricRequestFailures.Inc()
			return nil, result.err
		}
		return result.resp, nil
	case <-time.After(timeout):
		metricRequestTimeouts.Inc()
		return nil, &common.TimeoutError{Service: req.Service, Method: req.Method, Timeout: timeout}
	}
}

func (c *connector) Publish(eventType string, data any) error {
	if c.State() != common.StateConnected {
		return common.NewConnectionError("not connected to core")
	}

	raw, err := marshalPayload(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %v", err)
	}

	env := common.NewPublishEnvelope(c.clientID, eventType, raw)
	if err := c.transport.Send(env); err != nil {
		return common.NewConnectionError("failed to publish event: %v", err)
	}
	return nil
}

func (c *connector) Pending() int {
	return c.pending.Size()
}

// --------------------------------------------------------------------------
// Inbound frame handling
// --------------------------------------------------------------------------

// handleInbound demultiplexes frames surfaced by the transport: events go
// to the router, responses settle their pending request.
func (c *connector) handleInbound(in *common.Inbound) {
	if in == nil {
		return
	}

	if in.IsEvent() {
		c.dispatchEvent(in.EventType, in.Data)
		return
	}

	if in.RequestID == "" {
		Logger.Warnf("discarding frame that is neither event nor response")
		return
	}

	// LoadAndDelete makes settling atomic: a late or duplicate response
	// finds no entry and is dropped
	respCh, ok := c.pending.LoadAndDelete(in.RequestID)
	if !ok {
		Logger.Warnf("received response for unknown request id %s", in.RequestID)
		return
	}

	respCh <- pendingResult{resp: &Response{
		Success: in.Success,
		Data:    in.Data,
		Error:   in.Error,
	}}
}

// failPending rejects every outstanding request with the given error and
// leaves the pending map empty
func (c *connector) failPending(err error) {
	c.pending.Range(func(id string, _ chan pendingResult) bool {
		if respCh, ok := c.pending.LoadAndDelete(id); ok {
			respCh <- pendingResult{err: err}
		}
		return true
	})
}

// marshalPayload converts a caller payload to its wire form. Raw JSON
// passes through untouched.
func marshalPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	case []byte:
		return json.RawMessage(p), nil
	default:
		return json.Marshal(payload)
	}
}
