package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, c *ConnContext, frame []byte) error

// Router maps a message type to the handler for joined connections.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewRouter() *Router { return &Router{handlers: make(map[string]rawHandler)} }

// Register binds a message type to a strongly-typed handler. The whole frame
// is decoded into Req and validated; the handler also gets the raw frame so
// it can forward it untouched.
func Register[Req any](
	r *Router,
	msgType string,
	h func(ctx context.Context, c *ConnContext, req Req, frame []byte) error,
) {
	if msgType == "" {
		panic("ws router: empty message type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[msgType] = func(ctx context.Context, c *ConnContext, frame []byte) error {
		var req Req
		if err := validateJSON(frame, &req); err != nil {
			return fmt.Errorf("%s: %w", msgType, err)
		}
		return h(ctx, c, req, frame)
	}
}

// validateJSON decodes frame into dst and runs its validate tags.
func validateJSON(frame []byte, dst any) error {
	if err := json.Unmarshal(frame, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return nil
}

// dispatch is called by the reader loop once the connection has joined.
func (r *Router) dispatch(ctx context.Context, c *ConnContext, env Envelope, frame []byte) error {
	r.mu.RLock()
	h, ok := r.handlers[env.Type]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: unexpected type %q", ErrMalformedMessage, env.Type)
	}
	return h(ctx, c, frame)
}
