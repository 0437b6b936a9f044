package unitconvrpc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"unitconv"
	unitconvhistory "unitconv/history"
	unitconvmsgpack "unitconv/msgpack"
)

type memRecorder struct {
	mu      sync.Mutex
	entries []unitconvhistory.Entry
	err     error
}

func (m *memRecorder) Record(_ context.Context, e unitconvhistory.Entry) (unitconvhistory.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return unitconvhistory.Entry{}, m.err
	}
	m.entries = append(m.entries, e)
	return e, nil
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := unitconvmsgpack.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		pkt        *Packet
		wantStatus int
	}{
		{"no function", &Packet{H: map[string][]byte{}}, StatusNoFunc},
		{"unknown function", NewRequest("Drop", nil), StatusNoSuchFunc},
		{"missing arg", NewRequest(FuncConvert, nil), StatusNoArg},
		{"bad arg", NewRequest(FuncUnitsFor, []byte{0xc1}), StatusBadArg},
		{"list", NewRequest(FuncListCategories, nil), StatusOK},
		{"units", NewRequest(FuncUnitsFor, mustMarshal(t, unitconvmsgpack.UnitsRequest{Category: "Length"})), StatusOK},
		{"units unknown", NewRequest(FuncUnitsFor, mustMarshal(t, unitconvmsgpack.UnitsRequest{Category: "Nonexistent"})), StatusUnknownCategory},
		{"convert", NewRequest(FuncConvert, mustMarshal(t, unitconvmsgpack.ConvertRequest{Category: "Length", Value: 1, FromUnit: "Kilometer", ToUnit: "Meter"})), StatusOK},
		{"convert unknown unit", NewRequest(FuncConvert, mustMarshal(t, unitconvmsgpack.ConvertRequest{Category: "Length", Value: 1, FromUnit: "Meter", ToUnit: "Furlong"})), StatusUnknownUnit},
		{"convert invalid", NewRequest(FuncConvert, mustMarshal(t, unitconvmsgpack.ConvertRequest{Category: "Fuel Economy", Value: 0, FromUnit: "L/100km", ToUnit: "Miles per Gallon"})), StatusInvalidValue},
	}

	h := NewHandler(unitconv.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.Handle(context.Background(), tt.pkt)
			if got := resp.Status(); got != tt.wantStatus {
				t.Errorf("Handle() status = %d (%s), want %d", got, resp.H[HeaderError], tt.wantStatus)
			}
			if resp.ID() != tt.pkt.ID() {
				t.Error("Handle() response id does not match request")
			}
		})
	}
}

func TestHandler_ConvertRecords(t *testing.T) {
	rec := &memRecorder{}
	h := NewHandler(unitconv.Default(), WithRecorder(rec))

	req := NewRequest(FuncConvert, mustMarshal(t, unitconvmsgpack.ConvertRequest{Category: "Plane Angle", Value: 180, FromUnit: "Degree", ToUnit: "Radian"}))
	resp := h.Handle(context.Background(), req)
	if resp.Status() != StatusOK {
		t.Fatalf("Handle() status = %d: %s", resp.Status(), resp.H[HeaderError])
	}
	var res unitconvmsgpack.ConvertResult
	if err := unitconvmsgpack.Unmarshal(resp.B[BodyResult], &res); err != nil {
		t.Fatal(err)
	}
	if res.Rounded != "3.1416" {
		t.Errorf("Rounded = %q, want 3.1416", res.Rounded)
	}

	failed := NewRequest(FuncConvert, mustMarshal(t, unitconvmsgpack.ConvertRequest{Category: "Length", Value: 1, FromUnit: "Meter", ToUnit: "Furlong"}))
	h.Handle(context.Background(), failed)

	if len(rec.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(rec.entries))
	}
	if got := rec.entries[0]; got.Category != "Plane Angle" || got.Result.Float64() != 3.1416 {
		t.Errorf("recorded %+v", got)
	}
}

func TestHandler_RecorderFailureDoesNotFailRequest(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	h := NewHandler(unitconv.Default(), WithRecorder(rec), WithLogger(discardLogger()))

	req := NewRequest(FuncConvert, mustMarshal(t, unitconvmsgpack.ConvertRequest{Category: "Mass", Value: 1, FromUnit: "Kilogram", ToUnit: "Gram"}))
	if resp := h.Handle(context.Background(), req); resp.Status() != StatusOK {
		t.Errorf("Handle() status = %d, want %d", resp.Status(), StatusOK)
	}
}

func TestHandler_SetRegistry(t *testing.T) {
	h := NewHandler(unitconv.Default())
	extra, err := unitconv.NewFactorCategory("Typography", unitconv.Unit{Name: "Point", Factor: 1}, unitconv.Unit{Name: "Pica", Factor: 12})
	if err != nil {
		t.Fatal(err)
	}
	reg, err := unitconv.Default().With(extra)
	if err != nil {
		t.Fatal(err)
	}

	req := func() *Packet {
		return NewRequest(FuncUnitsFor, mustMarshal(t, unitconvmsgpack.UnitsRequest{Category: "typography"}))
	}
	if got := h.Handle(context.Background(), req()).Status(); got != StatusUnknownCategory {
		t.Fatalf("Handle() status = %d before SetRegistry, want %d", got, StatusUnknownCategory)
	}
	h.SetRegistry(reg)
	resp := h.Handle(context.Background(), req())
	if resp.Status() != StatusOK {
		t.Fatalf("Handle() status = %d after SetRegistry", resp.Status())
	}
	var c unitconvmsgpack.Category
	if err := unitconvmsgpack.Unmarshal(resp.B[BodyResult], &c); err != nil {
		t.Fatal(err)
	}
	if c.Name != "Typography" || c.DefaultTo != "Pica" {
		t.Errorf("UnitsFor = %+v", c)
	}
}
