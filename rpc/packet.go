package unitconvrpc

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Header keys.
const (
	HeaderID       = "id"
	HeaderFunction = "function"
	HeaderStatus   = "status"
	HeaderError    = "error"
)

// Body keys.
const (
	BodyArg    = "arg"
	BodyResult = "result"
)

type Packet struct {
	H map[string][]byte `msgpack:"h,omitempty"`
	B map[string][]byte `msgpack:"b,omitempty"`
}

// NewRequest builds a request packet with a fresh id.
func NewRequest(function string, arg []byte) *Packet {
	id := uuid.New()
	pkt := &Packet{
		H: map[string][]byte{
			HeaderID:       id[:],
			HeaderFunction: []byte(function),
		},
		B: map[string][]byte{},
	}
	if len(arg) > 0 {
		pkt.B[BodyArg] = arg
	}
	return pkt
}

// NewResponse builds a response to req carrying status and, for failures,
// message.
func NewResponse(req *Packet, status int, message string, result []byte) *Packet {
	pkt := &Packet{
		H: map[string][]byte{
			HeaderStatus: []byte(strconv.Itoa(status)),
		},
		B: map[string][]byte{},
	}
	if id, ok := req.H[HeaderID]; ok {
		pkt.H[HeaderID] = id
	}
	if fn, ok := req.H[HeaderFunction]; ok {
		pkt.H[HeaderFunction] = fn
	}
	if message != "" {
		pkt.H[HeaderError] = []byte(message)
	}
	if result != nil {
		pkt.B[BodyResult] = result
	}
	return pkt
}

func (p *Packet) ID() uuid.UUID {
	id, err := uuid.FromBytes(p.H[HeaderID])
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (p *Packet) Function() string { return string(p.H[HeaderFunction]) }

// Status returns the response status, StatusInternal when it is missing or
// malformed.
func (p *Packet) Status() int {
	s, err := strconv.Atoi(string(p.H[HeaderStatus]))
	if err != nil {
		return StatusInternal
	}
	return s
}

func (p *Packet) Marshal() ([]byte, error) {
	return msgpack.Marshal(p)
}

func UnmarshalPacket(data []byte) (*Packet, error) {
	pkt := new(Packet)
	if err := msgpack.Unmarshal(data, pkt); err != nil {
		return nil, err
	}
	return pkt, nil
}

// PacketBuffer accumulates a msgpack stream and yields complete packets.
// Trailing partial input is kept for the next Feed.
type PacketBuffer struct {
	buf bytes.Buffer
}

func (pb *PacketBuffer) Feed(data []byte) ([]*Packet, error) {
	pb.buf.Write(data)

	var results []*Packet
	for pb.buf.Len() > 0 {
		r := bytes.NewReader(pb.buf.Bytes())
		dec := msgpack.NewDecoder(r)
		v := new(Packet)
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// not enough data yet
				break
			}
			pb.buf.Reset()
			return results, err
		}
		pb.buf.Next(pb.buf.Len() - r.Len())
		results = append(results, v)
	}
	return results, nil
}

// Buffered reports how many bytes wait for the rest of a packet.
func (pb *PacketBuffer) Buffered() int { return pb.buf.Len() }
