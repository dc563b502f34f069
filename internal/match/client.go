// internal/match/client.go
//
// Client is one connected multiplayer participant as the matchmaker sees it:
// an identity plus a buffered outbound event channel. The transport layer
// (websocket write pump) drains Events.

package match

// clientBuffer bounds outbound events per client; a client that cannot keep
// up has events dropped rather than blocking the matchmaker.
const clientBuffer = 32

type Client struct {
	Identity string
	Name     string

	send   chan any
	closed bool
}

func NewClient(identity, name string) *Client {
	return &Client{
		Identity: identity,
		Name:     name,
		send:     make(chan any, clientBuffer),
	}
}

// Events is the outbound event stream. It is closed when the client is
// disconnected from the matchmaker.
func (c *Client) Events() <-chan any {
	return c.send
}

// trySend queues an event without blocking. Callers hold the matchmaker
// lock, so this must never park.
func (c *Client) trySend(ev any) {
	if c.closed {
		return
	}
	select {
	case c.send <- ev:
	default:
	}
}

// close releases the event channel. Idempotent; called with the matchmaker
// lock held.
func (c *Client) close() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
