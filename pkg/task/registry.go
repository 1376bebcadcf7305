package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cuemby/burrow/pkg/types"
)

// HandlerRegistry maps task names to their handlers. It serves two entry
// points: ExecuteNewTask for freshly submitted tasks whose arguments are
// already typed, and ReviveTask for tasks whose raw body was read back
// from the store.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[types.TaskName]Handler
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[types.TaskName]Handler),
	}
}

// Register adds a handler, replacing any previous handler for the name.
func (r *HandlerRegistry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Name()] = h
}

// Get resolves a handler by name, returning ErrNotRegistered for an
// unknown name.
func (r *HandlerRegistry) Get(name types.TaskName) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("task %q: %w", name, types.ErrNotRegistered)
	}
	return h, nil
}

// ExecuteNewTask dispatches an already-typed argument value to the
// handler for name.
func (r *HandlerRegistry) ExecuteNewTask(ctx context.Context, reporter Reporter, name types.TaskName, args Args) (Result, error) {
	h, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, reporter, args)
}

// ReviveTask validates a raw persisted body against the handler's
// argument schema and dispatches it. Unknown keys, type mismatches, and
// failed validation all yield ErrInvalidMetadata.
func (r *HandlerRegistry) ReviveTask(ctx context.Context, reporter Reporter, name types.TaskName, body map[string]any) (Result, error) {
	h, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	args, err := DecodeArgs(h, body)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, reporter, args)
}

// DecodeBody converts a typed argument value into the opaque body map
// persisted in task metadata.
func DecodeBody(args Args) (map[string]any, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task arguments: %w", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed to decode task arguments: %w", err)
	}
	return body, nil
}

// DecodeArgs strictly decodes a raw body into the handler's argument
// type and validates it.
func DecodeArgs(h Handler, body map[string]any) (Args, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: unencodable body: %v", types.ErrInvalidMetadata, err)
	}

	args := h.NewArgs()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(args); err != nil {
		return nil, fmt.Errorf("%w: body does not match %q arguments: %v", types.ErrInvalidMetadata, h.Name(), err)
	}
	if err := args.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidMetadata, err)
	}
	return args, nil
}
