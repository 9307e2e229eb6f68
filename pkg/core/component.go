// Package core defines the contract between the live router and the
// dashboard views. A view is mounted twice: once to answer the page
// request, then again when the browser opens its WebSocket, after which it
// receives browser events and messages from its own background work.
package core

import (
	"context"
	"io"
)

// Component is a server-side view. The router drives one instance per
// connection and never calls it from two goroutines at once.
type Component interface {
	// Name identifies the view in logs and in the client topic.
	Name() string

	// Mount loads the view's state from the login session and URL.
	Mount(ctx context.Context, params Params, session Session) error

	// Render writes the current page body.
	Render(ctx context.Context) Renderer

	// HandleEvent applies a browser event such as "next" or "submit".
	HandleEvent(ctx context.Context, event string, payload map[string]any) error

	// HandleInfo applies a message the view sent itself through its socket,
	// for example the result of a company submission.
	HandleInfo(ctx context.Context, msg any) error

	Terminate(ctx context.Context, reason TerminateReason) error
}

// Renderer writes HTML.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

type RendererFunc func(ctx context.Context, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// Params are the route variables and query values of the page.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[key]
}

// Session carries what the HTTP layer knows about the visitor: the login
// session and the browser id used to key wizard drafts.
type Session map[string]any

func (s Session) Get(key string) any {
	return s[key]
}

// GetString returns the value under key, or "" when it is missing or not a
// string.
func (s Session) GetString(key string) string {
	v, _ := s[key].(string)
	return v
}

// TerminateReason tells a view why its connection ended.
type TerminateReason int

const (
	// TerminateNormal is a browser disconnect.
	TerminateNormal TerminateReason = iota
	// TerminateShutdown is a server shutdown draining live connections.
	TerminateShutdown
)

func (r TerminateReason) String() string {
	switch r {
	case TerminateNormal:
		return "normal"
	case TerminateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// BaseComponent holds the view's socket and supplies no-op lifecycle
// methods.
type BaseComponent struct {
	socket *Socket
}

// SetSocket is called by the router before the live Mount.
func (bc *BaseComponent) SetSocket(s *Socket) {
	bc.socket = s
}

// Socket returns the live socket, or nil while answering the page request.
func (bc *BaseComponent) Socket() *Socket {
	return bc.socket
}

func (bc *BaseComponent) Mount(ctx context.Context, params Params, session Session) error {
	return nil
}

func (bc *BaseComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	return nil
}

func (bc *BaseComponent) HandleInfo(ctx context.Context, msg any) error {
	return nil
}

func (bc *BaseComponent) Terminate(ctx context.Context, reason TerminateReason) error {
	return nil
}
