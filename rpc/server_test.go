package unitconvrpc

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"net"
	"testing"
	"time"
	"unitconv"
	unitconvmsgpack "unitconv/msgpack"
)

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func startUDP(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(NewHandler(unitconv.Default(), WithLogger(discardLogger())))
	done := make(chan error, 1)
	go func() { done <- srv.ServePacket(ctx, pc) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("ServePacket() error = %v", err)
		}
	})
	return pc.LocalAddr().String()
}

func startTCP(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(NewHandler(unitconv.Default(), WithLogger(discardLogger())))
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	})
	return ln.Addr().String()
}

func TestClientServer(t *testing.T) {
	transports := []struct {
		network string
		start   func(*testing.T) string
	}{
		{"udp", startUDP},
		{"tcp", startTCP},
	}

	for _, tr := range transports {
		t.Run(tr.network, func(t *testing.T) {
			addr := tr.start(t)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			c, err := Dial(ctx, tr.network, addr)
			if err != nil {
				t.Fatalf("Dial() error = %v", err)
			}
			defer c.Close()

			cats, err := c.ListCategories(ctx)
			if err != nil {
				t.Fatalf("ListCategories() error = %v", err)
			}
			if len(cats) != 14 || cats[0] != "Length" {
				t.Errorf("ListCategories() = %v", cats)
			}

			units, err := c.UnitsFor(ctx, "Temperature")
			if err != nil {
				t.Fatalf("UnitsFor() error = %v", err)
			}
			if len(units.Units) != 3 || units.DefaultFrom != "Celsius" {
				t.Errorf("UnitsFor() = %+v", units)
			}

			res, err := c.Convert(ctx, unitconvmsgpack.ConvertRequest{Category: "Plane Angle", Value: 180, FromUnit: "Degree", ToUnit: "Radian"})
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if math.Abs(res.Result-math.Pi) > 1e-9 {
				t.Errorf("Convert() = %v, want pi", res.Result)
			}

			_, err = c.Convert(ctx, unitconvmsgpack.ConvertRequest{Category: "Length", Value: 1, FromUnit: "Meter", ToUnit: "Furlong"})
			if !errors.Is(err, unitconv.ErrUnknownUnit) {
				t.Errorf("Convert() error = %v, want ErrUnknownUnit", err)
			}
			var se *StatusError
			if !errors.As(err, &se) || se.Status != StatusUnknownUnit {
				t.Errorf("Convert() error = %#v, want StatusError %d", err, StatusUnknownUnit)
			}

			_, err = c.UnitsFor(ctx, "Nonexistent")
			if !errors.Is(err, unitconv.ErrUnknownCategory) {
				t.Errorf("UnitsFor() error = %v, want ErrUnknownCategory", err)
			}
		})
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	// nothing listens on this socket's peer, so the call can only end by cancellation
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	c, err := Dial(context.Background(), "udp", pc.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.ListCategories(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ListCategories() error = %v, want deadline exceeded", err)
	}
}

func TestServePacket_StrayDatagram(t *testing.T) {
	addr := startUDP(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, "udp", addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	partial, err := Frame([]byte{0x80, 0x81, 0x82})
	if err != nil {
		t.Fatal(err)
	}
	strays := [][]byte{
		{0x01},
		partial[:5],
	}
	for _, stray := range strays {
		if _, err := c.conn.Write(stray); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			callCtx, callCancel := context.WithTimeout(ctx, time.Second)
			cats, err := c.ListCategories(callCtx)
			callCancel()
			if err != nil {
				t.Fatalf("ListCategories() after %d stray bytes error = %v", len(stray), err)
			}
			if len(cats) != 14 {
				t.Errorf("ListCategories() = %v", cats)
			}
		}
	}
}

func TestClient_DecodeDropsPartialFrame(t *testing.T) {
	c := &Client{framed: true}
	req := NewRequest(FuncListCategories, nil)
	data, err := req.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	framed, err := Frame(data)
	if err != nil {
		t.Fatal(err)
	}

	if pkts, err := c.decode(framed[:6]); err != nil || len(pkts) != 0 {
		t.Fatalf("decode(partial) = %d packets, %v", len(pkts), err)
	}
	pkts, err := c.decode(framed)
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	if len(pkts) != 1 || pkts[0].ID() != req.ID() {
		t.Errorf("decode() = %d packets, want the request", len(pkts))
	}
}
