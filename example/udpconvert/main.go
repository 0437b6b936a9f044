package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"time"
	"unitconv"
	unitconvmsgpack "unitconv/msgpack"
	unitconvrpc "unitconv/rpc"
)

// ---------------- Demo ----------------

func main() {
	// Example encode/decode roundtrip
	req := unitconvrpc.NewRequest(unitconvrpc.FuncConvert, mustMarshal(unitconvmsgpack.ConvertRequest{
		Category: unitconv.Speed,
		Value:    100,
		FromUnit: "km/h",
		ToUnit:   "mph",
	}))
	data, err := req.Marshal()
	if err != nil {
		log.Fatal(err)
	}
	framed, err := unitconvrpc.Frame(data)
	if err != nil {
		log.Fatal(err)
	}

	// Split the frame across two feeds
	var fb unitconvrpc.FrameBuffer
	frames, _ := fb.Feed(framed[:7])
	fmt.Println("frames after first chunk:", len(frames))
	frames, err = fb.Feed(framed[7:])
	if err != nil {
		log.Fatal(err)
	}
	decoded, err := unitconvrpc.UnmarshalPacket(frames[0])
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("decoded function:", decoded.Function(), "id:", decoded.ID())

	// ---------------- UDP server and client ----------------

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		log.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := unitconvrpc.NewHandler(unitconv.Default(),
		unitconvrpc.WithLogger(log.New(os.Stderr, "server: ", log.LstdFlags)))
	go unitconvrpc.NewServer(handler).ServePacket(ctx, pc)

	callCtx, callCancel := context.WithTimeout(ctx, 2*time.Second)
	defer callCancel()
	client, err := unitconvrpc.Dial(callCtx, "udp", pc.LocalAddr().String())
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	cats, err := client.ListCategories(callCtx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("categories:", cats)

	res, err := client.Convert(callCtx, unitconvmsgpack.ConvertRequest{Category: "temperature", Value: 98.6, FromUnit: "fahrenheit"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%v %s = %s %s\n", res.Value, res.FromUnit, res.Rounded, res.ToUnit)

	_, err = client.Convert(callCtx, unitconvmsgpack.ConvertRequest{Category: "Length", Value: 1, FromUnit: "Meter", ToUnit: "Furlong"})
	fmt.Println("expected error:", err)
}

func mustMarshal(v any) []byte {
	b, err := unitconvmsgpack.Marshal(v)
	if err != nil {
		log.Fatal(err)
	}
	return b
}
