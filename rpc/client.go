package unitconvrpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
	"unitconv"
	unitconvmsgpack "unitconv/msgpack"
)

// StatusError is a non-zero response status. It unwraps to the matching
// unitconv error kind so callers can use errors.Is across the wire.
type StatusError struct {
	Function string
	Status   int
	Message  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unitconvrpc: %s: status %d: %s", e.Function, e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case StatusUnknownCategory:
		return unitconv.ErrUnknownCategory
	case StatusUnknownUnit:
		return unitconv.ErrUnknownUnit
	case StatusInvalidValue:
		return unitconv.ErrInvalidValue
	case StatusNoSuchFunc:
		return ErrNoSuchFunc
	}
	return nil
}

// DefaultTimeout applies when the context carries no deadline.
const DefaultTimeout = 5 * time.Second

// Client calls a Server over a datagram (UDP) or stream connection.
// Calls are serialized.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	framed bool
	pkts   PacketBuffer
}

// Dial connects to addr over network ("udp" or "tcp").
func Dial(ctx context.Context, network, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

func NewClient(conn net.Conn) *Client {
	_, datagram := conn.(net.PacketConn)
	return &Client{conn: conn, framed: datagram}
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var out unitconvmsgpack.CategoryList
	if err := c.call(ctx, FuncListCategories, nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

func (c *Client) UnitsFor(ctx context.Context, category string) (unitconvmsgpack.Category, error) {
	var out unitconvmsgpack.Category
	err := c.call(ctx, FuncUnitsFor, unitconvmsgpack.UnitsRequest{Category: category}, &out)
	return out, err
}

func (c *Client) Convert(ctx context.Context, req unitconvmsgpack.ConvertRequest) (unitconvmsgpack.ConvertResult, error) {
	var out unitconvmsgpack.ConvertResult
	err := c.call(ctx, FuncConvert, req, &out)
	return out, err
}

func (c *Client) call(ctx context.Context, function string, arg, out any) error {
	var argBytes []byte
	if arg != nil {
		var err error
		if argBytes, err = unitconvmsgpack.Marshal(arg); err != nil {
			return err
		}
	}
	req := NewRequest(function, argBytes)

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultTimeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { c.conn.SetDeadline(time.Now()) })
	defer stop()

	if err := c.send(req); err != nil {
		return c.ctxErr(ctx, err)
	}
	resp, err := c.receive(req)
	if err != nil {
		return c.ctxErr(ctx, err)
	}
	if status := resp.Status(); status != StatusOK {
		return &StatusError{Function: function, Status: status, Message: string(resp.H[HeaderError])}
	}
	return unitconvmsgpack.Unmarshal(resp.B[BodyResult], out)
}

func (c *Client) send(req *Packet) error {
	data, err := req.Marshal()
	if err != nil {
		return err
	}
	if c.framed {
		if data, err = Frame(data); err != nil {
			return err
		}
	}
	_, err = c.conn.Write(data)
	return err
}

// receive reads until the response to req arrives, dropping stale replies.
func (c *Client) receive(req *Packet) (*Packet, error) {
	want := req.ID()
	buf := make([]byte, MaxFrameSize)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			return nil, err
		}
		pkts, err := c.decode(buf[:n])
		if err != nil {
			return nil, err
		}
		for _, pkt := range pkts {
			if pkt.ID() == want {
				return pkt, nil
			}
		}
	}
}

func (c *Client) decode(data []byte) ([]*Packet, error) {
	if !c.framed {
		return c.pkts.Feed(data)
	}
	// datagrams arrive whole, so a partial frame is never completed later
	var fb FrameBuffer
	frames, err := fb.Feed(data)
	if err != nil {
		return nil, err
	}
	pkts := make([]*Packet, 0, len(frames))
	for _, f := range frames {
		pkt, err := UnmarshalPacket(f)
		if err != nil {
			return nil, err
		}
		pkts = append(pkts, pkt)
	}
	return pkts, nil
}

func (c *Client) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(ctxErr, err)
	}
	// the connection deadline may fire just before the context's own timer
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return errors.Join(context.DeadlineExceeded, err)
	}
	return err
}
