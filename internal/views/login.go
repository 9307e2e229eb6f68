package views

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/qargo/dashboard/internal/auth"
	"github.com/qargo/dashboard/internal/theme"
	"github.com/qargo/dashboard/pkg/audit"
	"github.com/qargo/dashboard/pkg/logging"
	"github.com/qargo/dashboard/pkg/pool"
)

// Messages shown on the login page.
const (
	LoginFailedMessage   = "Incorrect username or password."
	SignupSuccessMessage = "Account created successfully"
	SignupTakenMessage   = "That username is already taken."
	SignupMissingMessage = "Username, email and password are required."
	SignupFailedMessage  = "Could not create the account. Please try again."
)

type loginView struct {
	Theme          theme.Theme
	Username       string
	LoginError     string
	SignupOpen     bool
	SignupUsername string
	SignupEmail    string
	SignupError    string
	SignupSuccess  string
	CSRFToken      string
}

// Login serves the login and sign-up forms. Cookies are only written on
// plain HTTP requests, so these are ordinary form posts rather than live
// events.
type Login struct {
	users    *auth.Repository
	sessions *auth.Manager
	theme    theme.Theme
	deps     Deps
	logger   logging.Logger
}

// NewLogin creates the login handlers.
func NewLogin(users *auth.Repository, sessions *auth.Manager, deps Deps) *Login {
	return &Login{
		users:    users,
		sessions: sessions,
		theme:    theme.Lookup(deps.Theme),
		deps:     deps,
		logger:   deps.logger(),
	}
}

func (l *Login) render(w http.ResponseWriter, r *http.Request, status int, view loginView) {
	view.Theme = l.theme
	view.CSRFToken = l.deps.csrfToken(auth.BrowserID(r))

	body := pool.GetBuffer()
	defer pool.PutBuffer(body)
	if err := templates.ExecuteTemplate(body, "login", view); err != nil {
		l.logger.Error("rendering login page failed", logging.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var out bytes.Buffer
	p := page{
		Title:        "Sign In",
		RedirectHome: view.SignupSuccess != "",
		Body:         template.HTML(body.String()),
	}
	if err := p.render(r.Context(), &out); err != nil {
		l.logger.Error("rendering login page failed", logging.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(out.Bytes())
}

// Page serves GET /login.
func (l *Login) Page(w http.ResponseWriter, r *http.Request) {
	l.render(w, r, http.StatusOK, loginView{})
}

// Submit serves POST /login.
func (l *Login) Submit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	user, err := l.users.Authenticate(username, password)
	if err != nil {
		logging.L(r.Context()).Info("login rejected", logging.String("user", username))
		l.deps.audit().Log(audit.FromRequest(r, audit.EventLoginFailed).WithUser(username))
		l.render(w, r, http.StatusUnauthorized, loginView{
			Username:   username,
			LoginError: LoginFailedMessage,
		})
		return
	}

	if _, err := l.sessions.Login(w, r, user); err != nil {
		logging.L(r.Context()).Error("starting session failed", logging.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	l.deps.audit().Log(audit.FromRequest(r, audit.EventLoginSucceeded).WithUser(user.Username))
	http.Redirect(w, r, auth.HomePath, http.StatusSeeOther)
}

// Signup serves POST /signup. The new user is logged in right away.
func (l *Login) Signup(w http.ResponseWriter, r *http.Request) {
	creds := auth.Credentials{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	view := loginView{
		SignupOpen:     true,
		SignupUsername: creds.Username,
		SignupEmail:    creds.Email,
	}

	rejected := audit.FromRequest(r, audit.EventSignupRejected).WithUser(creds.Username)

	user, err := l.users.Add(r.Context(), creds)
	switch {
	case errors.Is(err, auth.ErrMissingField):
		l.deps.audit().Log(rejected.With("reason", "missing_field"))
		view.SignupError = SignupMissingMessage
		l.render(w, r, http.StatusBadRequest, view)
		return
	case errors.Is(err, auth.ErrUserExists):
		l.deps.audit().Log(rejected.With("reason", "username_taken"))
		view.SignupError = SignupTakenMessage
		l.render(w, r, http.StatusConflict, view)
		return
	case err != nil:
		logging.L(r.Context()).Error("sign-up failed", logging.Err(err))
		view.SignupError = SignupFailedMessage
		l.render(w, r, http.StatusInternalServerError, view)
		return
	}

	if _, err := l.sessions.Login(w, r, user); err != nil {
		logging.L(r.Context()).Error("starting session failed", logging.Err(err))
		view.SignupError = SignupFailedMessage
		l.render(w, r, http.StatusInternalServerError, view)
		return
	}

	logging.L(r.Context()).Info("user signed up", logging.String("user", user.Username))
	l.deps.audit().Log(audit.FromRequest(r, audit.EventSignup).WithUser(user.Username))
	view.SignupSuccess = SignupSuccessMessage
	l.render(w, r, http.StatusCreated, view)
}

// Logout serves POST /logout.
func (l *Login) Logout(w http.ResponseWriter, r *http.Request) {
	if username := l.sessions.Load(r).Username(); username != "" {
		l.deps.audit().Log(audit.FromRequest(r, audit.EventLogout).WithUser(username))
	}
	if err := l.sessions.Logout(w, r); err != nil {
		logging.L(r.Context()).Warn("logout failed", logging.Err(err))
	}
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}
