// Package security provides CSRF protection for the server-rendered forms.
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingToken = errors.New("missing CSRF token")
	ErrInvalidToken = errors.New("invalid CSRF token")
	ErrTokenExpired = errors.New("CSRF token expired")
)

const (
	// FormField is the hidden form field carrying the token.
	FormField = "csrf_token"
	// HeaderName is the request header accepted instead of the form field.
	HeaderName = "X-CSRF-Token"
	// DefaultMaxAge is how long a token stays valid.
	DefaultMaxAge = 12 * time.Hour

	// clockSkew tolerates tokens minted slightly in the future.
	clockSkew = time.Minute
)

// BindFunc returns the value a request's token is bound to, such as a
// browser id. Requests with an empty binding are rejected.
type BindFunc func(r *http.Request) string

// CSRF issues and checks stateless tokens of the form
// "<unix time>.<HMAC of binding and time>".
type CSRF struct {
	key      []byte
	bind     BindFunc
	maxAge   time.Duration
	now      func() time.Time
	onReject func(r *http.Request, err error)
}

// CSRFOption configures CSRF.
type CSRFOption func(*CSRF)

// WithMaxAge sets how long tokens stay valid.
func WithMaxAge(d time.Duration) CSRFOption {
	return func(c *CSRF) {
		c.maxAge = d
	}
}

// WithRejectHandler is called for every request the middleware refuses.
func WithRejectHandler(fn func(r *http.Request, err error)) CSRFOption {
	return func(c *CSRF) {
		c.onReject = fn
	}
}

// NewCSRF derives the signing key from secret. The same secret may sign
// cookies elsewhere; the derived key is used for nothing else.
func NewCSRF(secret []byte, bind BindFunc, opts ...CSRFOption) *CSRF {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("csrf-token-key"))

	c := &CSRF{
		key:    mac.Sum(nil),
		bind:   bind,
		maxAge: DefaultMaxAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CSRF) sign(binding, ts string) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(ts))
	mac.Write([]byte{0})
	mac.Write([]byte(binding))
	return mac.Sum(nil)
}

// Token returns a fresh token bound to binding.
func (c *CSRF) Token(binding string) string {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	return ts + "." + base64.RawURLEncoding.EncodeToString(c.sign(binding, ts))
}

// RequestToken returns a token for the binding of r.
func (c *CSRF) RequestToken(r *http.Request) string {
	return c.Token(c.bind(r))
}

// Validate checks token against binding.
func (c *CSRF) Validate(token, binding string) error {
	if token == "" {
		return ErrMissingToken
	}
	if binding == "" {
		return ErrInvalidToken
	}

	ts, sig, ok := strings.Cut(token, ".")
	if !ok {
		return ErrInvalidToken
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare(got, c.sign(binding, ts)) != 1 {
		return ErrInvalidToken
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidToken
	}
	age := c.now().Sub(time.Unix(unix, 0))
	if age > c.maxAge || age < -clockSkew {
		return ErrTokenExpired
	}
	return nil
}

// Middleware rejects state-changing requests without a valid token with
// 403. The token is read from HeaderName, then from FormField.
func (c *CSRF) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(HeaderName)
			if token == "" {
				token = r.PostFormValue(FormField)
			}
			if err := c.Validate(token, c.bind(r)); err != nil {
				if c.onReject != nil {
					c.onReject(r, err)
				}
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
