package unitconvrpc

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"unitconv"
	unitconvhistory "unitconv/history"
	unitconvmsgpack "unitconv/msgpack"
)

// Functions served by Handler.
const (
	FuncListCategories = "ListCategories"
	FuncUnitsFor       = "UnitsFor"
	FuncConvert        = "Convert"
)

var ServerFuncs = []string{
	FuncListCategories,
	FuncUnitsFor,
	FuncConvert,
}

// Response statuses.
const (
	StatusOK              = 0
	StatusNoFunc          = -201
	StatusNoSuchFunc      = -202
	StatusBadArg          = -203
	StatusNoArg           = -204
	StatusUnknownCategory = -301
	StatusUnknownUnit     = -302
	StatusInvalidValue    = -303
	StatusInternal        = -500
)

var (
	ErrReqHasNoFunc = errors.New("request has no function")
	ErrNoSuchFunc   = errors.New("no such function")
	ErrReqHasNoArg  = errors.New("request has no arg")
)

// Recorder receives every successful conversion.
type Recorder interface {
	Record(ctx context.Context, e unitconvhistory.Entry) (unitconvhistory.Entry, error)
}

type Option func(*Handler)

func WithRecorder(r Recorder) Option {
	return func(h *Handler) { h.recorder = r }
}

func WithLogger(l *log.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// Handler answers request packets against a registry that can be swapped
// while serving.
type Handler struct {
	registry atomic.Pointer[unitconv.Registry]
	recorder Recorder
	logger   *log.Logger
}

func NewHandler(reg *unitconv.Registry, opts ...Option) *Handler {
	h := &Handler{logger: log.Default()}
	h.registry.Store(reg)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Registry() *unitconv.Registry { return h.registry.Load() }

// SetRegistry replaces the registry used for subsequent requests.
func (h *Handler) SetRegistry(reg *unitconv.Registry) { h.registry.Store(reg) }

func (h *Handler) Handle(ctx context.Context, pkt *Packet) *Packet {
	// layer 0, check func
	funcBytes, ok := pkt.H[HeaderFunction]
	if !ok || len(funcBytes) == 0 {
		return NewResponse(pkt, StatusNoFunc, ErrReqHasNoFunc.Error(), nil)
	}
	funcStr := string(funcBytes)
	if !strsContains(ServerFuncs, funcStr) {
		return NewResponse(pkt, StatusNoSuchFunc, ErrNoSuchFunc.Error()+": "+funcStr, nil)
	}

	// layer 1, check arg
	arg := pkt.B[BodyArg]
	switch funcStr {
	case FuncUnitsFor, FuncConvert:
		if len(arg) == 0 {
			return NewResponse(pkt, StatusNoArg, ErrReqHasNoArg.Error(), nil)
		}
	}

	reg := h.Registry()
	var (
		result any
		err    error
	)
	switch funcStr {
	case FuncListCategories:
		result = unitconvmsgpack.CategoryList{Categories: reg.ListCategories()}

	case FuncUnitsFor:
		var req unitconvmsgpack.UnitsRequest
		if err := unitconvmsgpack.Unmarshal(arg, &req); err != nil {
			return NewResponse(pkt, StatusBadArg, err.Error(), nil)
		}
		var name string
		if name, err = reg.ResolveCategory(req.Category); err == nil {
			var c *unitconv.Category
			if c, err = reg.Category(name); err == nil {
				result = unitconvmsgpack.NewCategory(c)
			}
		}

	case FuncConvert:
		var req unitconvmsgpack.ConvertRequest
		if err := unitconvmsgpack.Unmarshal(arg, &req); err != nil {
			return NewResponse(pkt, StatusBadArg, err.Error(), nil)
		}
		var res unitconvmsgpack.ConvertResult
		if res, err = req.Convert(reg); err == nil {
			h.record(ctx, res)
			result = res
		}
	}
	if err != nil {
		return NewResponse(pkt, statusOf(err), err.Error(), nil)
	}

	data, err := unitconvmsgpack.Marshal(result)
	if err != nil {
		return NewResponse(pkt, StatusInternal, err.Error(), nil)
	}
	return NewResponse(pkt, StatusOK, "", data)
}

func (h *Handler) record(ctx context.Context, res unitconvmsgpack.ConvertResult) {
	if h.recorder == nil {
		return
	}
	_, err := h.recorder.Record(ctx, unitconvhistory.Entry{
		Category: res.Category,
		Value:    res.Value,
		FromUnit: res.FromUnit,
		ToUnit:   res.ToUnit,
		Result:   unitconv.NewDecimalFromFloat(res.Result),
	})
	if err != nil {
		h.logger.Printf("unitconvrpc: record conversion: %v", err)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, unitconv.ErrUnknownCategory):
		return StatusUnknownCategory
	case errors.Is(err, unitconv.ErrUnknownUnit):
		return StatusUnknownUnit
	case errors.Is(err, unitconv.ErrInvalidValue):
		return StatusInvalidValue
	}
	return StatusInternal
}

func strsContains(strs []string, searchVal string) bool {
	for i := range strs {
		if strs[i] == searchVal {
			return true
		}
	}
	return false
}
