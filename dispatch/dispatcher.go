package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kvcached/kvcached/observe"
	"github.com/kvcached/kvcached/protocol"
	"github.com/kvcached/kvcached/resilience"
	"github.com/kvcached/kvcached/router"
)

// DefaultWorkerPoolSize matches spec.md §5's "fixed-size worker pool
// (default ~20)".
const DefaultWorkerPoolSize = 20

// fieldProbe pulls the key/group fields common to most request shapes
// out of a raw request, purely for attaching them to spans/metrics/log
// lines; it is never used for validation.
type fieldProbe struct {
	Key   string `json:"key"`
	Group string `json:"group"`
}

// reply is the generic {"id":..., "response":...} envelope every
// successful reply shares; the concrete type behind Response varies
// per event tag but always matches spec.md §6's reply schema.
type reply struct {
	ID       string `json:"id"`
	Response any    `json:"response"`
}

// Dispatcher decodes wire requests, routes them through the bound
// handlers, and bounds concurrent execution with a worker pool so the
// server's accept loop is never blocked on request processing.
type Dispatcher struct {
	registry *Registry
	bulkhead *resilience.Bulkhead
	mw       *observe.Middleware
}

// New builds a Dispatcher with the six recognized event tags bound
// against r, observed through obs, and bounded to workerPoolSize
// concurrent operations. workerPoolSize <= 0 uses
// DefaultWorkerPoolSize.
func New(r *router.Router, obs observe.Observer, workerPoolSize int) (*Dispatcher, error) {
	if workerPoolSize <= 0 {
		workerPoolSize = DefaultWorkerPoolSize
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, fmt.Errorf("dispatch: build middleware: %w", err)
	}

	reg := NewRegistry()
	if err := bindHandlers(reg, r); err != nil {
		return nil, err
	}

	return &Dispatcher{
		registry: reg,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: workerPoolSize}),
		mw:       mw,
	}, nil
}

// bindHandlers registers the six recognized event tags. A collision
// here is a programmer error, fatal at startup per spec.md §7.
func bindHandlers(reg *Registry, r *router.Router) error {
	bindings := []struct {
		event string
		fn    HandlerFunc
	}{
		{protocol.EventSet, handleSet(r)},
		{protocol.EventGetKey, handleGetKey(r)},
		{protocol.EventGetGroup, handleGetGroup(r)},
		{protocol.EventDeleteKey, handleDeleteKey(r)},
		{protocol.EventDeleteGroup, handleDeleteGroup(r)},
		{protocol.EventList, handleList(r)},
	}

	for _, b := range bindings {
		if err := reg.Register(b.event, b.fn); err != nil {
			return err
		}
	}
	return nil
}

// Dispatch decodes a single request line and returns the JSON bytes of
// its reply, without a trailing newline; the caller (server) owns
// framing. Dispatch never returns an error itself: every failure mode
// — parse error, unknown event, validation error, bulkhead rejection,
// tier error — is represented as an {"error": ...} reply, per
// spec.md §7's propagation policy.
func (d *Dispatcher) Dispatch(ctx context.Context, line []byte) []byte {
	var env protocol.Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return mustMarshalError(fmt.Sprintf("malformed request: %v", err))
	}

	fn, ok := d.registry.lookup(env.Event)
	if !ok {
		return mustMarshalError(fmt.Sprintf("%v: %q", ErrUnknownEvent, env.Event))
	}

	var probe fieldProbe
	_ = json.Unmarshal(line, &probe)
	op := observe.OpMeta{ID: env.ID, Event: env.Event, Key: probe.Key, Group: probe.Group}

	execFn := func(ctx context.Context, op observe.OpMeta, input any) (any, error) {
		raw := input.(json.RawMessage)
		return fn(ctx, raw)
	}
	wrapped := d.mw.Wrap(execFn)

	var result any
	bulkheadErr := d.bulkhead.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = wrapped(ctx, op, json.RawMessage(line))
		return err
	})
	if bulkheadErr != nil {
		return mustMarshalError(bulkheadErr.Error())
	}

	out, err := json.Marshal(reply{ID: env.ID, Response: result})
	if err != nil {
		return mustMarshalError(fmt.Sprintf("encode reply: %v", err))
	}
	return out
}

func mustMarshalError(msg string) []byte {
	out, err := json.Marshal(protocol.ErrorReply{Error: msg})
	if err != nil {
		// json.Marshal of a struct with only string fields cannot fail.
		return []byte(`{"error":"internal encoding failure"}`)
	}
	return out
}

func handleSet(r *router.Router) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req protocol.SetRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("dispatch: decode SET request: %w", err)
		}
		ttl := time.Duration(req.Flags.TTL) * time.Second
		if err := r.Set(req.Key, req.Value, req.Group, ttl, req.Flags.Persistent); err != nil {
			return nil, err
		}
		return true, nil
	}
}

func handleGetKey(r *router.Router) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req protocol.GetKeyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("dispatch: decode GET KEY request: %w", err)
		}
		return r.GetKey(ctx, req.Key)
	}
}

func handleGetGroup(r *router.Router) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req protocol.GetGroupRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("dispatch: decode GET GROUP request: %w", err)
		}
		kvs, err := r.GetGroup(ctx, req.Group)
		if err != nil {
			return nil, err
		}
		out := make([]protocol.KeyValue, len(kvs))
		for i, kv := range kvs {
			out[i] = protocol.KeyValue{Key: kv.Key, Value: kv.Value}
		}
		return out, nil
	}
}

func handleDeleteKey(r *router.Router) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req protocol.DeleteKeyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("dispatch: decode DELETE KEY request: %w", err)
		}
		return r.DeleteKey(ctx, req.Key)
	}
}

func handleDeleteGroup(r *router.Router) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req protocol.DeleteGroupRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("dispatch: decode DELETE GROUP request: %w", err)
		}
		return r.DeleteGroup(ctx, req.Group)
	}
}

func handleList(r *router.Router) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		entries, err := r.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]protocol.StorageEntry, len(entries))
		for i, e := range entries {
			out[i] = protocol.StorageEntry{Key: e.Key, Value: e.Value, Group: e.Group}
		}
		return out, nil
	}
}
