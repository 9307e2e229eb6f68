// Package router provides HTTP routing for the dashboard, including live
// routes that render over HTTP and then keep a WebSocket open on the same
// path.
package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/qargo/dashboard/pkg/core"
	"github.com/qargo/dashboard/pkg/logging"
	"github.com/qargo/dashboard/pkg/pool"
	"github.com/qargo/dashboard/pkg/protocol"
	"github.com/qargo/dashboard/pkg/transport"
)

// Common router errors.
var (
	ErrNilRenderer = errors.New("component returned nil renderer")
	ErrShutdown    = errors.New("router is shutting down")
)

// RootID is the id of the element wrapping live content.
const RootID = "lv-root"

// Router handles HTTP routing for the dashboard.
type Router struct {
	mux          *mux.Router
	errorHandler ErrorHandler
	logger       logging.Logger

	sessions *SessionManager

	codec           protocol.Codec
	timeouts        core.TimeoutConfig
	wsConfig        *transport.WebSocketConfig
	extractSession  SessionExtractor
	gate            ConnectionGate
	shutdownStarted bool

	wg sync.WaitGroup
	mu sync.RWMutex
}

// LiveRoute defines a route that renders a live component.
type LiveRoute struct {
	// Path is the URL path pattern.
	Path string

	// Component is the factory function for creating the component.
	Component func() core.Component

	// Layout wraps the initial HTTP render.
	Layout Layout

	// Middleware are route-specific middleware.
	Middleware []Middleware
}

// Layout writes a full page around the live root element.
type Layout func(ctx context.Context, w io.Writer, root []byte) error

// Middleware is a function that wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// ErrorHandler handles errors during request processing.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// SessionExtractor builds the component session from the request.
type SessionExtractor func(r *http.Request) core.Session

// ConnectionGate admits or refuses new live connections. release is called
// once an admitted connection ends.
type ConnectionGate interface {
	Admit(r *http.Request) (release func(), ok bool)
}

// Option configures a Router.
type Option func(*Router)

// WithCodec sets the WebSocket wire codec.
func WithCodec(c protocol.Codec) Option {
	return func(r *Router) {
		r.codec = c
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// WithTimeouts sets the live runtime timeouts.
func WithTimeouts(t core.TimeoutConfig) Option {
	return func(r *Router) {
		r.timeouts = t
	}
}

// WithWebSocketConfig sets the origin policy.
func WithWebSocketConfig(c *transport.WebSocketConfig) Option {
	return func(r *Router) {
		r.wsConfig = c
	}
}

// WithSessionExtractor sets how component sessions are built.
func WithSessionExtractor(fn SessionExtractor) Option {
	return func(r *Router) {
		r.extractSession = fn
	}
}

// WithConnectionGate limits live connections. Refused upgrades get 503.
func WithConnectionGate(g ConnectionGate) Option {
	return func(r *Router) {
		r.gate = g
	}
}

// WithErrorHandler sets the error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Router) {
		r.errorHandler = h
	}
}

// New creates a new router.
func New(opts ...Option) *Router {
	r := &Router{
		mux:      mux.NewRouter(),
		logger:   logging.NopLogger{},
		sessions: NewSessionManager(),
		codec:    protocol.NewJSONCodec(),
		timeouts: core.DefaultTimeoutConfig(),
		wsConfig: transport.DefaultWebSocketConfig(),
		extractSession: func(*http.Request) core.Session {
			return core.Session{}
		},
	}
	r.errorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		logging.L(req.Context()).Error("request failed", logging.Err(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware to every route.
func (r *Router) Use(mw ...Middleware) {
	for _, m := range mw {
		r.mux.Use(mux.MiddlewareFunc(m))
	}
}

// Sessions returns the live session manager.
func (r *Router) Sessions() *SessionManager {
	return r.sessions
}

// Live registers a live route.
func (r *Router) Live(path string, component func() core.Component, opts ...RouteOption) *mux.Route {
	route := &LiveRoute{
		Path:      path,
		Component: component,
	}
	for _, opt := range opts {
		opt(route)
	}

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.serveLive(w, req, route)
	})
	for i := len(route.Middleware) - 1; i >= 0; i-- {
		h = route.Middleware[i](h)
	}

	return r.mux.Handle(path, h).Methods(http.MethodGet)
}

// Handle registers a standard HTTP handler.
func (r *Router) Handle(path string, handler http.Handler) *mux.Route {
	return r.mux.Handle(path, handler)
}

// HandleFunc registers a standard HTTP handler function.
func (r *Router) HandleFunc(path string, handler http.HandlerFunc) *mux.Route {
	return r.mux.HandleFunc(path, handler)
}

// PathPrefix registers handler for every path under prefix.
func (r *Router) PathPrefix(prefix string, handler http.Handler) *mux.Route {
	return r.mux.PathPrefix(prefix).Handler(handler)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) serveLive(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	if IsWebSocketRequest(req) {
		r.handleWebSocket(w, req, route)
		return
	}

	component := route.Component()
	params := extractParams(req)
	session := r.extractSession(req)
	ctx := core.BuildContext(req.Context(), nil, session, params)

	if err := component.Mount(ctx, params, session); err != nil {
		r.errorHandler(w, req, err)
		return
	}

	content, err := renderComponent(ctx, component)
	if err != nil {
		r.errorHandler(w, req, err)
		return
	}
	defer component.Terminate(ctx, core.TerminateNormal)

	var root bytes.Buffer
	fmt.Fprintf(&root, `<div id="%s" data-live-path="%s">`, RootID, html.EscapeString(req.URL.Path))
	root.WriteString(content)
	root.WriteString(`</div>`)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if route.Layout == nil {
		w.Write(root.Bytes())
		return
	}

	var page bytes.Buffer
	if err := route.Layout(ctx, &page, root.Bytes()); err != nil {
		r.errorHandler(w, req, err)
		return
	}
	w.Write(page.Bytes())
}

func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	r.mu.RLock()
	closing := r.shutdownStarted
	if !closing {
		r.wg.Add(1)
	}
	r.mu.RUnlock()
	if closing {
		http.Error(w, ErrShutdown.Error(), http.StatusServiceUnavailable)
		return
	}

	release := func() {}
	if r.gate != nil {
		fn, ok := r.gate.Admit(req)
		if !ok {
			r.wg.Done()
			http.Error(w, "Too Many Connections", http.StatusServiceUnavailable)
			return
		}
		release = fn
	}

	wsTransport := transport.NewWebSocketTransport(transport.Config{
		ReadTimeout:  r.timeouts.WebSocketRead,
		WriteTimeout: r.timeouts.WebSocketWrite,
		PingInterval: r.timeouts.WebSocketRead / 3,
	}, r.wsConfig, r.codec)
	wsTransport.SetLogger(r.logger)

	if err := wsTransport.Upgrade(w, req); err != nil {
		release()
		r.wg.Done()
		r.logger.Warn("websocket upgrade failed",
			logging.String("path", req.URL.Path),
			logging.Err(err),
		)
		return
	}

	socketID := uuid.NewString()
	socket := core.NewSocket(socketID, wsTransport)

	component := route.Component()
	if bc, ok := component.(interface{ SetSocket(*core.Socket) }); ok {
		bc.SetSocket(socket)
	}

	params := extractParams(req)
	session := r.extractSession(req)
	lv := r.sessions.Create(socketID, component, socket, params, session)
	lv.Transport = wsTransport

	// The connection outlives the HTTP request, so its context is detached.
	ctx, cancel := context.WithCancel(context.Background())
	ctx = core.BuildContext(ctx, socket, session, params)
	ctx = logging.ContextWithLogger(ctx, r.logger.With(
		logging.String("socket_id", socketID),
		logging.String("path", route.Path),
	))
	lv.setCancel(cancel)

	go func() {
		defer r.wg.Done()
		defer release()
		r.messageLoop(ctx, lv)
		r.disconnect(lv)
	}()
}

// messageLoop processes browser messages and info messages for one
// connection. It is the only goroutine touching the component.
func (r *Router) messageLoop(ctx context.Context, lv *LiveSession) {
	recvCh := lv.Transport.Receive()
	closed := lv.Transport.Done()
	log := logging.L(ctx)

	for {
		select {
		case msg := <-recvCh:
			lv.UpdateActivity()

			switch msg.Event {
			case protocol.EventHeartbeat:
				r.send(lv, protocol.OkReply(msg.Ref, lv.Topic, nil))

			case protocol.EventJoin:
				r.handleJoin(ctx, lv, msg)

			case protocol.EventLeave:
				return

			default:
				if !lv.IsMounted() {
					r.send(lv, protocol.ErrorMessage(msg.Ref, lv.Topic, "not joined"))
					continue
				}
				err := r.call(ctx, func(ctx context.Context) error {
					return lv.Component.HandleEvent(ctx, msg.Event, payloadOf(msg))
				})
				if err != nil {
					log.Warn("event failed", logging.String("event", msg.Event), logging.Err(err))
					r.send(lv, protocol.ErrorMessage(msg.Ref, lv.Topic, err.Error()))
				}
				r.render(ctx, lv)
			}

		case info := <-lv.Socket.Info():
			if !lv.IsMounted() {
				continue
			}
			if err := r.call(ctx, func(ctx context.Context) error {
				return lv.Component.HandleInfo(ctx, info)
			}); err != nil {
				log.Warn("info failed", logging.Err(err))
			}
			r.render(ctx, lv)

		case <-closed:
			return

		case <-lv.Socket.Done():
			return

		case <-ctx.Done():
			return
		}
	}
}

// call runs fn with the component event timeout and turns panics into
// errors.
func (r *Router) call(ctx context.Context, fn func(context.Context) error) (err error) {
	if r.timeouts.ComponentEvent > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeouts.ComponentEvent)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("component panic: %v", rec)
		}
	}()
	return fn(ctx)
}

func (r *Router) handleJoin(ctx context.Context, lv *LiveSession, msg *protocol.Message) {
	if !lv.IsMounted() {
		err := r.call(ctx, func(ctx context.Context) error {
			return lv.Component.Mount(ctx, lv.Params, lv.Session)
		})
		if err != nil {
			r.send(lv, protocol.ErrorMessage(msg.Ref, lv.Topic, err.Error()))
			return
		}
		lv.SetMounted(true)
	}

	r.send(lv, protocol.OkReply(msg.Ref, lv.Topic, map[string]any{"socket": lv.SocketID}))
	lv.forgetRender()
	r.render(ctx, lv)
}

// render sends the component HTML when it changed since the last render.
func (r *Router) render(ctx context.Context, lv *LiveSession) {
	if !lv.Socket.IsConnected() {
		return
	}

	content, err := renderComponent(ctx, lv.Component)
	if err != nil {
		logging.L(ctx).Error("render failed", logging.Err(err))
		return
	}

	if !lv.changed(hashContent(content)) {
		return
	}
	r.send(lv, protocol.RenderMessage(lv.Topic, content))
}

func (r *Router) send(lv *LiveSession, msg *protocol.Message) {
	if err := lv.Socket.Send(msg); err != nil && !errors.Is(err, core.ErrSocketClosed) {
		r.logger.Debug("send failed",
			logging.String("socket_id", lv.SocketID),
			logging.String("event", msg.Event),
			logging.Err(err),
		)
	}
}

// disconnect tears a connection down. It runs on the loop goroutine after
// the loop returned.
func (r *Router) disconnect(lv *LiveSession) {
	r.sessions.Remove(lv.SocketID)
	lv.cancel()

	if lv.IsMounted() {
		if err := lv.Component.Terminate(context.Background(), lv.Reason()); err != nil {
			r.logger.Warn("terminate failed", logging.Err(err))
		}
	}
	lv.Socket.Close()
}

// Shutdown terminates every live connection and waits for their loops to
// finish or ctx to expire.
func (r *Router) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.shutdownStarted = true
	r.mu.Unlock()

	for _, lv := range r.sessions.All() {
		lv.Stop(core.TerminateShutdown)
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func renderComponent(ctx context.Context, c core.Component) (string, error) {
	renderer := c.Render(ctx)
	if renderer == nil {
		return "", ErrNilRenderer
	}

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)
	if err := renderer.Render(ctx, buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func hashContent(content string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(content))
	return h.Sum64()
}

func payloadOf(msg *protocol.Message) map[string]any {
	if msg.Payload == nil {
		return make(map[string]any)
	}
	return msg.Payload
}

// extractParams extracts route variables and query strings.
func extractParams(req *http.Request) core.Params {
	params := make(core.Params)

	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	for key, value := range mux.Vars(req) {
		params[key] = value
	}

	return params
}

// IsWebSocketRequest reports whether req asks for a WebSocket upgrade.
func IsWebSocketRequest(req *http.Request) bool {
	return strings.Contains(strings.ToLower(req.Header.Get("Upgrade")), "websocket")
}

// RouteOption configures a LiveRoute.
type RouteOption func(*LiveRoute)

// WithLayout sets the page layout of the initial render.
func WithLayout(layout Layout) RouteOption {
	return func(r *LiveRoute) {
		r.Layout = layout
	}
}

// WithRouteMiddleware adds middleware to the route.
func WithRouteMiddleware(mw ...Middleware) RouteOption {
	return func(r *LiveRoute) {
		r.Middleware = append(r.Middleware, mw...)
	}
}
