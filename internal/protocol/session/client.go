package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/minisock/onemectl/internal/observability"
	"github.com/minisock/onemectl/internal/protocol"
	"github.com/minisock/onemectl/internal/protocol/frame"
	"github.com/minisock/onemectl/internal/protocol/lz4block"
	"github.com/minisock/onemectl/internal/protocol/payload"
)

// State tracks the connection lifecycle.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

var (
	ErrNotConnected     = errors.New("session: not connected")
	ErrAlreadyConnected = errors.New("session: already connected")
	ErrTooManyInFlight  = errors.New("session: too many requests in flight")
	ErrRequestTimeout   = errors.New("session: request timeout")
)

// maxInFlight is the one-byte sequence space. Admitting more would silently
// reuse a live sequence number.
const maxInFlight = 256

// Client owns one logical connection: the channel, the keepalive loop and the
// pending-request set. Request correlates responses to callers by the
// one-byte sequence number; responses may arrive in any order.
type Client struct {
	cfg Config
	log zerolog.Logger

	mu      sync.Mutex
	state   State
	conn    Channel
	seq     uint8
	pending map[uint8]chan payload.Value
	done    chan struct{}

	// wmu serializes whole-frame writes to the channel.
	wmu sync.Mutex
}

// New builds a disconnected client. Zero cfg fields fall back to
// DefaultConfig values.
func New(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		cfg:     cfg.withDefaults(),
		log:     log,
		pending: make(map[uint8]chan payload.Value),
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the channel and starts the read and keepalive loops.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = Connecting
	c.mu.Unlock()

	conn, err := c.cfg.Dial(ctx, c.cfg)
	if err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.state = Connected
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.log.Info().Str("addr", c.cfg.Addr).Msg("session connected")
	go c.readLoop(conn, done)
	go c.keepaliveLoop(done)
	return nil
}

// Close drops the connection. Outstanding requests are not failed; each runs
// into its own timeout.
func (c *Client) Close() error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	c.teardown(done)
	return nil
}

// Request sends body under opcode and waits for the response carrying the
// same sequence number, the configured timeout, or ctx cancellation.
// Responses for other sequence numbers keep flowing while the caller waits.
func (c *Client) Request(ctx context.Context, opcode uint16, body payload.Value) (payload.Value, error) {
	encoded, err := payload.Encode(body)
	if err != nil {
		return payload.Nil(), err
	}

	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return payload.Nil(), ErrNotConnected
	}
	if len(c.pending) >= maxInFlight {
		c.mu.Unlock()
		return payload.Nil(), ErrTooManyInFlight
	}
	seq := c.nextSeqLocked()
	ch := make(chan payload.Value, 1)
	c.pending[seq] = ch
	conn := c.conn
	c.mu.Unlock()

	wire, err := frame.Encode(frame.Header{
		Version:  protocol.Version,
		Command:  protocol.Command,
		Sequence: seq,
		Opcode:   opcode,
	}, encoded)
	if err != nil {
		c.reap(seq)
		return payload.Nil(), err
	}

	c.wmu.Lock()
	_, werr := conn.Write(wire)
	c.wmu.Unlock()
	if werr != nil {
		c.reap(seq)
		observability.RecordRequest(opcode, "write_error")
		return payload.Nil(), fmt.Errorf("%w: %v", ErrTransport, werr)
	}
	observability.RecordFrame("out", len(wire))
	c.log.Debug().Uint8("seq", seq).Uint16("opcode", opcode).Int("bytes", len(wire)).Msg("request sent")

	timer := time.NewTimer(c.cfg.RequestTimeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		observability.RecordRequest(opcode, "ok")
		return resp, nil
	case <-timer.C:
		c.reap(seq)
		observability.RecordRequest(opcode, "timeout")
		return payload.Nil(), fmt.Errorf("%w: opcode %d seq %d", ErrRequestTimeout, opcode, seq)
	case <-ctx.Done():
		c.reap(seq)
		observability.RecordRequest(opcode, "canceled")
		return payload.Nil(), ctx.Err()
	}
}

// nextSeqLocked advances the counter mod 256 until it lands on a free slot.
// Callers hold c.mu and have verified the pending set is not full.
func (c *Client) nextSeqLocked() uint8 {
	for {
		c.seq++
		if _, busy := c.pending[c.seq]; !busy {
			return c.seq
		}
	}
}

func (c *Client) reap(seq uint8) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}

func (c *Client) readLoop(conn Channel, done chan struct{}) {
	asm := frame.NewAssembler()
	buf := make([]byte, 32*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			frames, ferr := asm.Push(buf[:n])
			for _, fr := range frames {
				c.dispatch(fr)
			}
			if ferr != nil {
				// Stream position can no longer be trusted.
				c.log.Error().Err(ferr).Msg("frame stream corrupt, dropping connection")
				c.teardown(done)
				return
			}
		}
		if err != nil {
			select {
			case <-done:
			default:
				c.log.Warn().Err(err).Msg("channel closed")
			}
			c.teardown(done)
			return
		}
	}
}

// dispatch decodes one inbound frame and hands the payload to the pending
// request with the matching sequence number. A malformed payload drops that
// frame only; a frame with no pending slot is discarded silently.
func (c *Client) dispatch(fr frame.Frame) {
	observability.RecordFrame("in", frame.HeaderSize+len(fr.Payload))

	body := payload.Nil()
	if len(fr.Payload) > 0 {
		raw := fr.Payload
		if fr.Header.Compressed {
			inflated, err := lz4block.Decompress(raw, c.cfg.MaxInflateBytes)
			if err != nil {
				observability.RecordPayloadDrop("decompress")
				c.log.Warn().Err(err).Uint8("seq", fr.Header.Sequence).Msg("dropping undecompressable payload")
				return
			}
			raw = inflated
		}
		decoded, err := payload.Decode(raw)
		if err != nil {
			observability.RecordPayloadDrop("decode")
			c.log.Warn().Err(err).Uint8("seq", fr.Header.Sequence).Msg("dropping undecodable payload")
			return
		}
		body = payload.Resolve(decoded)
	}

	c.mu.Lock()
	ch, ok := c.pending[fr.Header.Sequence]
	if ok {
		delete(c.pending, fr.Header.Sequence)
	}
	c.mu.Unlock()
	if !ok {
		// Timed out, canceled, or an unsolicited server frame.
		c.log.Debug().Uint8("seq", fr.Header.Sequence).Uint16("opcode", fr.Header.Opcode).
			Msg("no pending request for frame")
		return
	}
	ch <- body
}

func (c *Client) keepaliveLoop(done chan struct{}) {
	ticker := time.NewTicker(c.cfg.KeepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			go c.ping()
		}
	}
}

// ping sends one keepalive request and ignores the result.
func (c *Client) ping() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RequestTimeout)
	defer cancel()
	if _, err := c.Request(ctx, protocol.OpPing, payload.MapValue(payload.NewMap())); err != nil {
		observability.RecordKeepaliveFailure()
		c.log.Debug().Err(err).Msg("keepalive ping failed")
	}
}

// teardown moves the session to Disconnected exactly once per connection.
// Pending requests are left to their own timeouts.
func (c *Client) teardown(done chan struct{}) {
	c.mu.Lock()
	if c.done != done {
		c.mu.Unlock()
		return
	}
	c.state = Disconnected
	conn := c.conn
	c.conn = nil
	close(c.done)
	c.done = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.log.Info().Msg("session disconnected")
}
