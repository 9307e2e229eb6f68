// Package auth implements the dashboard's mock authentication: an in-memory
// user repository persisted in the state store, cookie-backed sessions with
// a fixed lifetime, and the middleware guarding dashboard pages.
//
// None of this is meant to protect anything real. Passwords are hashed with
// bcrypt only so that the persisted blob does not carry them in clear text.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/qargo/dashboard/pkg/logging"
	"github.com/qargo/dashboard/pkg/state"
)

// UsersKey is the store key holding every user as one JSON blob.
const UsersKey = "users"

var (
	// ErrInvalidCredentials is returned when username or password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when adding a username that is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrIndexOutOfRange is returned by Update and Delete for a bad index.
	ErrIndexOutOfRange = errors.New("user index out of range")
	// ErrMissingField is returned when a credential field is blank.
	ErrMissingField = errors.New("username, email and password are required")
)

// DefaultAdmin is seeded when no users are stored and no seed file is set.
var DefaultAdmin = Credentials{
	Username: "admin",
	Email:    "admin@qargo.com",
	Password: "admin123",
}

// User is a stored account.
type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Credentials carry a clear-text password, as entered or as read from a
// seed file.
type Credentials struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

func (c Credentials) validate() error {
	if strings.TrimSpace(c.Username) == "" || strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return ErrMissingField
	}
	return nil
}

type seedFile struct {
	Users []Credentials `yaml:"users"`
}

// LoadSeed reads users from a YAML file of the form
//
//	users:
//	  - username: admin
//	    email: admin@qargo.com
//	    password: admin123
func LoadSeed(path string) ([]Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, c := range seed.Users {
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("seed user %d: %w", i, err)
		}
	}
	return seed.Users, nil
}

// Repository holds the user list. Every mutation persists the whole list.
type Repository struct {
	store    *state.TypedStore[[]User]
	seed     []Credentials
	seedPath string
	cost     int
	now      func() time.Time
	logger   logging.Logger

	mu    sync.RWMutex
	users []User
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithSeedFile seeds an empty store from a YAML file instead of the
// default admin.
func WithSeedFile(path string) RepositoryOption {
	return func(r *Repository) {
		r.seedPath = path
	}
}

// WithSeed seeds an empty store with users.
func WithSeed(users ...Credentials) RepositoryOption {
	return func(r *Repository) {
		r.seed = users
	}
}

// WithBcryptCost sets the hashing cost.
func WithBcryptCost(cost int) RepositoryOption {
	return func(r *Repository) {
		r.cost = cost
	}
}

// WithRepositoryLogger sets the logger.
func WithRepositoryLogger(l logging.Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = l
	}
}

// NewRepository loads the stored users, seeding the store when it holds
// none.
func NewRepository(ctx context.Context, store state.Store, opts ...RepositoryOption) (*Repository, error) {
	r := &Repository{
		store:  state.NewTypedStore[[]User](store, state.NewJSONSerializer[[]User](), ""),
		seed:   []Credentials{DefaultAdmin},
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}

	users, err := r.store.Get(ctx, UsersKey)
	switch {
	case err == nil:
		r.users = users
		return r, nil
	case errors.Is(err, state.ErrKeyNotFound):
	case errors.Is(err, state.ErrInvalidData):
		r.logger.Warn("stored users are unreadable, reseeding", logging.Err(err))
	default:
		return nil, fmt.Errorf("load users: %w", err)
	}

	seed := r.seed
	if r.seedPath != "" {
		if seed, err = LoadSeed(r.seedPath); err != nil {
			return nil, err
		}
	}
	if err := r.SetAll(ctx, seed); err != nil {
		return nil, err
	}
	r.logger.Info("seeded users", logging.Int("count", len(seed)))
	return r, nil
}

func (r *Repository) newUser(c Credentials) (User, error) {
	if err := c.validate(); err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), r.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return User{
		Username:     strings.TrimSpace(c.Username),
		Email:        strings.TrimSpace(c.Email),
		PasswordHash: string(hash),
		CreatedAt:    r.now().UTC(),
	}, nil
}

// persist writes users and swaps them in. The caller holds r.mu.
func (r *Repository) persist(ctx context.Context, users []User) error {
	if err := r.store.Set(ctx, UsersKey, users, 0); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	r.users = users
	return nil
}

func (r *Repository) indexOf(username string) int {
	for i, u := range r.users {
		if strings.EqualFold(u.Username, strings.TrimSpace(username)) {
			return i
		}
	}
	return -1
}

// Add appends a user. Usernames are unique regardless of case.
func (r *Repository) Add(ctx context.Context, c Credentials) (User, error) {
	user, err := r.newUser(c)
	if err != nil {
		return User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(user.Username) >= 0 {
		return User{}, fmt.Errorf("%w: %s", ErrUserExists, user.Username)
	}

	users := append(r.snapshot(), user)
	if err := r.persist(ctx, users); err != nil {
		return User{}, err
	}
	return user, nil
}

// Update replaces the user at index.
func (r *Repository) Update(ctx context.Context, index int, c Credentials) error {
	user, err := r.newUser(c)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.users) {
		return ErrIndexOutOfRange
	}
	if i := r.indexOf(user.Username); i >= 0 && i != index {
		return fmt.Errorf("%w: %s", ErrUserExists, user.Username)
	}

	users := r.snapshot()
	user.CreatedAt = users[index].CreatedAt
	users[index] = user
	return r.persist(ctx, users)
}

// Delete removes the user at index.
func (r *Repository) Delete(ctx context.Context, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.users) {
		return ErrIndexOutOfRange
	}

	users := r.snapshot()
	users = append(users[:index], users[index+1:]...)
	return r.persist(ctx, users)
}

// SetAll replaces every user.
func (r *Repository) SetAll(ctx context.Context, creds []Credentials) error {
	users := make([]User, 0, len(creds))
	seen := make(map[string]bool, len(creds))
	for _, c := range creds {
		user, err := r.newUser(c)
		if err != nil {
			return err
		}
		key := strings.ToLower(user.Username)
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrUserExists, user.Username)
		}
		seen[key] = true
		users = append(users, user)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persist(ctx, users)
}

// All returns a copy of every user.
func (r *Repository) All() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

// snapshot copies the list. The caller holds r.mu.
func (r *Repository) snapshot() []User {
	users := make([]User, len(r.users))
	copy(users, r.users)
	return users
}

// Authenticate returns the user matching username, compared without case,
// and password.
func (r *Repository) Authenticate(username, password string) (User, error) {
	r.mu.RLock()
	i := r.indexOf(username)
	var user User
	if i >= 0 {
		user = r.users[i]
	}
	r.mu.RUnlock()

	if i < 0 {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}
