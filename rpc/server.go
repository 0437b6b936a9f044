package unitconvrpc

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
)

type Server struct {
	Handler *Handler
	Logger  *log.Logger
}

func NewServer(h *Handler) *Server {
	return &Server{Handler: h, Logger: h.logger}
}

// ServePacket answers framed requests arriving on pc until ctx is done.
// Each datagram is decoded on its own; bytes left after its last whole frame
// are dropped.
func (s *Server) ServePacket(ctx context.Context, pc net.PacketConn) error {
	stop := context.AfterFunc(ctx, func() { pc.Close() })
	defer stop()

	datagram := make([]byte, MaxFrameSize)
	for {
		n, addr, err := pc.ReadFrom(datagram)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var fb FrameBuffer
		frames, err := fb.Feed(datagram[:n])
		if err != nil {
			s.Logger.Printf("unitconvrpc: %s: %v", addr, err)
		} else if fb.Buffered() > 0 {
			s.Logger.Printf("unitconvrpc: %s: dropped %d trailing bytes", addr, fb.Buffered())
		}

		for _, frame := range frames {
			resp, err := s.answer(ctx, frame)
			if err != nil {
				s.Logger.Printf("unitconvrpc: %s: %v", addr, err)
				continue
			}
			out, err := Frame(resp)
			if err != nil {
				s.Logger.Printf("unitconvrpc: %s: %v", addr, err)
				continue
			}
			if _, err := pc.WriteTo(out, addr); err != nil {
				s.Logger.Printf("unitconvrpc: write to %s: %v", addr, err)
			}
		}
	}
}

// Serve accepts stream connections on ln and answers msgpack packets on
// each until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	var pb PacketBuffer
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			pkts, ferr := pb.Feed(buf[:n])
			for _, pkt := range pkts {
				out, merr := s.Handler.Handle(ctx, pkt).Marshal()
				if merr != nil {
					s.Logger.Printf("unitconvrpc: %s: %v", conn.RemoteAddr(), merr)
					continue
				}
				if _, werr := conn.Write(out); werr != nil {
					return
				}
			}
			if ferr != nil {
				s.Logger.Printf("unitconvrpc: %s: %v", conn.RemoteAddr(), ferr)
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) answer(ctx context.Context, frame []byte) ([]byte, error) {
	pkt, err := UnmarshalPacket(frame)
	if err != nil {
		return nil, err
	}
	return s.Handler.Handle(ctx, pkt).Marshal()
}
