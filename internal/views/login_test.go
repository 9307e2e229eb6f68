package views

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qargo/dashboard/internal/auth"
	"github.com/qargo/dashboard/pkg/audit"
)

func postForm(path string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_Page(t *testing.T) {
	f := newFixture(t, nil)
	l := NewLogin(f.users, f.sessions, f.deps)

	rec := httptest.NewRecorder()
	l.Page(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Sign In")
	assert.Contains(t, body, `action="/signup"`)
	assert.NotContains(t, body, "dashboard.js", "the login page is not live")
	assert.NotContains(t, body, "http-equiv")
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t, nil)
	l := NewLogin(f.users, f.sessions, f.deps)

	rec := httptest.NewRecorder()
	l.Submit(rec, postForm("/login", url.Values{"username": {"admin"}, "password": {"nope"}}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), LoginFailedMessage)
	assert.Contains(t, rec.Body.String(), `value="admin"`)
	assert.Nil(t, cookieNamed(rec.Result().Cookies(), auth.SessionCookie))
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t, nil)
	l := NewLogin(f.users, f.sessions, f.deps)

	rec := httptest.NewRecorder()
	l.Submit(rec, postForm("/login", url.Values{"username": {"ADMIN"}, "password": {"admin123"}}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, auth.HomePath, rec.Header().Get("Location"))

	cookie := cookieNamed(rec.Result().Cookies(), auth.SessionCookie)
	require.NotNil(t, cookie)

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(cookie)
	s := f.sessions.Load(r)
	assert.True(t, s.Active())
	assert.Equal(t, "admin", s.Username())
}

func TestSignup(t *testing.T) {
	f := newFixture(t, nil)
	l := NewLogin(f.users, f.sessions, f.deps)

	rec := httptest.NewRecorder()
	l.Signup(rec, postForm("/signup", url.Values{
		"username": {"grace"},
		"email":    {"grace@qargo.com"},
		"password": {"hopper42"},
	}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, SignupSuccessMessage)
	assert.Contains(t, body, `content="2;url=/dashboard"`)
	require.NotNil(t, cookieNamed(rec.Result().Cookies(), auth.SessionCookie))

	_, err := f.users.Authenticate("grace", "hopper42")
	assert.NoError(t, err)
}

func TestSignup_Rejected(t *testing.T) {
	f := newFixture(t, nil)
	l := NewLogin(f.users, f.sessions, f.deps)

	tests := []struct {
		name   string
		form   url.Values
		status int
		msg    string
	}{
		{
			name:   "taken username",
			form:   url.Values{"username": {"Admin"}, "email": {"a@b.co"}, "password": {"x"}},
			status: http.StatusConflict,
			msg:    SignupTakenMessage,
		},
		{
			name:   "missing email",
			form:   url.Values{"username": {"new"}, "password": {"x"}},
			status: http.StatusBadRequest,
			msg:    SignupMissingMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			l.Signup(rec, postForm("/signup", tt.form))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.msg)
			assert.Contains(t, rec.Body.String(), "<details open>")
			assert.Nil(t, cookieNamed(rec.Result().Cookies(), auth.SessionCookie))
		})
	}
	assert.Len(t, f.users.All(), 1)
}

func TestLogout(t *testing.T) {
	f := newFixture(t, nil)
	l := NewLogin(f.users, f.sessions, f.deps)
	_, as := f.session(t)

	login := httptest.NewRecorder()
	l.Submit(login, postForm("/login", url.Values{"username": {"admin"}, "password": {"admin123"}}))
	cookie := cookieNamed(login.Result().Cookies(), auth.SessionCookie)
	require.NotNil(t, cookie)

	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(cookie)
	rec := httptest.NewRecorder()
	l.Logout(rec, r)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, auth.LoginPath, rec.Header().Get("Location"))

	after := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	after.AddCookie(cookie)
	assert.False(t, f.sessions.Load(after).IsAuthenticated())
	assert.True(t, as.IsAuthenticated(), "other sessions stay logged in")
}

func TestLogin_FormsCarryToken(t *testing.T) {
	f := newFixture(t, nil)
	f.deps.CSRF = fakeTokens{}
	l := NewLogin(f.users, f.sessions, f.deps)

	r := httptest.NewRequest(http.MethodGet, "/login", nil)
	r.AddCookie(&http.Cookie{Name: auth.BrowserCookie, Value: "b-7"})
	rec := httptest.NewRecorder()
	l.Page(rec, r)

	assert.Equal(t, 2, strings.Count(rec.Body.String(), `<input type="hidden" name="csrf_token" value="tok-b-7">`))
}

func TestLogin_Audited(t *testing.T) {
	f := newFixture(t, nil)
	trail := &auditTrail{}
	f.deps.Audit = trail.logger()
	l := NewLogin(f.users, f.sessions, f.deps)

	l.Submit(httptest.NewRecorder(), postForm("/login", url.Values{"username": {"admin"}, "password": {"nope"}}))

	login := httptest.NewRecorder()
	l.Submit(login, postForm("/login", url.Values{"username": {"admin"}, "password": {"admin123"}}))

	l.Signup(httptest.NewRecorder(), postForm("/signup", url.Values{"username": {"admin"}, "email": {"a@b.co"}, "password": {"x"}}))
	l.Signup(httptest.NewRecorder(), postForm("/signup", url.Values{"username": {"grace"}}))
	l.Signup(httptest.NewRecorder(), postForm("/signup", url.Values{
		"username": {"grace"},
		"email":    {"grace@qargo.com"},
		"password": {"hopper42"},
	}))

	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(cookieNamed(login.Result().Cookies(), auth.SessionCookie))
	l.Logout(httptest.NewRecorder(), r)

	assert.Equal(t, []string{
		audit.EventLoginFailed,
		audit.EventLoginSucceeded,
		audit.EventSignupRejected,
		audit.EventSignupRejected,
		audit.EventSignup,
		audit.EventLogout,
	}, trail.types())
	assert.Equal(t, "username_taken", trail.events[2].Details["reason"])
	assert.Equal(t, "missing_field", trail.events[3].Details["reason"])
	assert.Equal(t, "admin", trail.events[5].Username)
}
