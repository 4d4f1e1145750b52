// Package session decides who is signed in to the console.
//
// Manager drives the unauthenticated -> authenticating -> authenticated
// state machine, persists the identifying email, performs the first
// collection refresh after a successful sign-in and keeps a background
// refresher running for the lifetime of the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/client/api"
	"github.com/dmitrijs2005/assetflow/internal/client/models"
	"github.com/dmitrijs2005/assetflow/internal/client/store"
	"github.com/dmitrijs2005/assetflow/internal/logging"
)

const (
	DefaultRefreshInterval = 60 * time.Second

	minPasswordLen = 6
	otpCodeLen     = 6

	msgOTPSent        = "OTP sent to your email. Please check your inbox."
	msgWelcomeBack    = "Welcome back!"
	msgAccountCreated = "Account created successfully!"
)

var (
	ErrInvalidCredentials = errors.New("email and credentials are required")
	ErrInvalidOTPCode     = errors.New("please enter a valid 6-digit OTP code")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrAlreadySignedIn    = errors.New("already signed in")
	ErrNotSignedIn        = errors.New("not signed in")

	// ErrSuperseded is returned by a sign-in whose result arrived after a
	// newer sign-in or a sign-out took over the session.
	ErrSuperseded = errors.New("sign-in superseded")
)

// TokenStore persists the identifying and provisional emails.
type TokenStore interface {
	Identity(ctx context.Context) (string, error)
	SetIdentity(ctx context.Context, email string) error
	ClearIdentity(ctx context.Context) error
	Pending(ctx context.Context) (string, error)
	SetPending(ctx context.Context, email string) error
	ClearPending(ctx context.Context) error
	Clear(ctx context.Context) error
}

// Refresher performs a bulk collection refresh.
type Refresher interface {
	RefreshAll(ctx context.Context) (store.Snapshot, error)
}

type Option func(*Manager)

// WithRefreshInterval sets the background refresh period.
func WithRefreshInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

type Manager struct {
	auth     api.AuthAPI
	tokens   TokenStore
	data     Refresher
	notifier Notifier
	log      logging.Logger
	interval time.Duration

	mu    sync.Mutex
	phase models.Phase
	user  *models.User
	// gen is bumped by every sign-in attempt and sign-out. Work started
	// under an older generation must not change the session.
	gen    uint64
	bg     *refresher
	closed bool
}

func NewManager(auth api.AuthAPI, tokens TokenStore, data Refresher, opts ...Option) *Manager {
	m := &Manager{
		auth:     auth,
		tokens:   tokens,
		data:     data,
		notifier: nopNotifier{},
		log:      logging.Nop(),
		interval: DefaultRefreshInterval,
		phase:    models.PhaseUnauthenticated,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "session")
	return m
}

func (m *Manager) Phase() models.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user.Clone()
}

// PendingEmail returns the email to prefill sign-in prompts with: the
// provisional email if set, otherwise the identifying one.
func (m *Manager) PendingEmail(ctx context.Context) string {
	if email, err := m.tokens.Pending(ctx); err == nil && email != "" {
		return email
	}
	if email, err := m.tokens.Identity(ctx); err == nil {
		return email
	}
	return ""
}

// begin starts a sign-in attempt and returns its generation.
func (m *Manager) begin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == models.PhaseAuthenticated {
		return 0, ErrAlreadySignedIn
	}
	m.gen++
	m.phase = models.PhaseAuthenticating
	return m.gen, nil
}

// fail returns to unauthenticated unless a newer attempt owns the session.
func (m *Manager) fail(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	m.phase = models.PhaseUnauthenticated
	m.user = nil
}

// RestoreSession re-establishes the session from the persisted email.
// Any failure is treated as "no session": the email is forgotten and
// the phase becomes unauthenticated. Nothing is reported to the user.
func (m *Manager) RestoreSession(ctx context.Context) {
	if m.Phase() == models.PhaseAuthenticated {
		return
	}

	email, err := m.tokens.Identity(ctx)
	if err != nil {
		m.log.Warn(ctx, "session restore failed", "error", err)
	}
	if email == "" {
		m.mu.Lock()
		m.phase = models.PhaseUnauthenticated
		m.mu.Unlock()
		return
	}

	gen, err := m.begin()
	if err != nil {
		return
	}

	user, err := m.auth.Me(ctx)
	if err == nil {
		err = m.onAuthenticated(ctx, gen, user)
	}
	if err != nil {
		if errors.Is(err, ErrSuperseded) {
			return
		}
		m.log.Warn(ctx, "session restore failed", "error", err)
		if cerr := m.tokens.ClearIdentity(ctx); cerr != nil {
			m.log.Warn(ctx, "clear identity", "error", cerr)
		}
		m.fail(gen)
		return
	}
	m.log.Info(ctx, "session restored", "email", user.Email)
}

// RequestOTP asks the backend to email a one-time code. It never signs the
// user in; the phase returns to unauthenticated when the call completes.
func (m *Manager) RequestOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidCredentials
	}
	gen, err := m.begin()
	if err != nil {
		return err
	}
	defer m.fail(gen)
	m.savePending(ctx, email)

	if err := m.auth.RequestOTP(ctx, email); err != nil {
		m.notifier.Notify(LevelError, api.Message(err))
		return err
	}
	m.notifier.Notify(LevelSuccess, msgOTPSent)
	return nil
}

// VerifyOTP signs in with an emailed code. Non-digits are stripped from
// code and at most six digits are used; fewer than six is rejected before
// any network call.
func (m *Manager) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(code) == "" {
		return ErrInvalidCredentials
	}
	clean, err := CleanOTPCode(code)
	if err != nil {
		return err
	}
	return m.authenticate(ctx, msgWelcomeBack, email, func(ctx context.Context) (*models.AuthResponse, error) {
		return m.auth.VerifyOTP(ctx, email, clean)
	})
}

func (m *Manager) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrInvalidCredentials
	}
	return m.authenticate(ctx, msgWelcomeBack, "", func(ctx context.Context) (*models.AuthResponse, error) {
		return m.auth.Login(ctx, email, password)
	})
}

// Signup creates an account and signs in. fullName is optional.
func (m *Manager) Signup(ctx context.Context, email, password, fullName string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrInvalidCredentials
	}
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	fullName = strings.TrimSpace(fullName)
	return m.authenticate(ctx, msgAccountCreated, "", func(ctx context.Context) (*models.AuthResponse, error) {
		return m.auth.Signup(ctx, email, password, fullName)
	})
}

// authenticate runs one sign-in call. A non-empty pending email is saved
// once the attempt owns the session.
func (m *Manager) authenticate(ctx context.Context, success, pending string, call func(context.Context) (*models.AuthResponse, error)) error {
	gen, err := m.begin()
	if err != nil {
		return err
	}
	if pending != "" {
		m.savePending(ctx, pending)
	}

	resp, err := call(ctx)
	if err == nil && (resp == nil || !hasIdentity(resp.User)) {
		err = api.ErrMissingUser
	}
	if err == nil {
		err = m.onAuthenticated(ctx, gen, resp.User)
	}
	if err != nil {
		if errors.Is(err, ErrSuperseded) {
			return err
		}
		m.notifier.Notify(LevelError, api.Message(err))
		m.fail(gen)
		return err
	}

	m.notifier.Notify(LevelSuccess, success)
	return nil
}

// onAuthenticated adopts user, persists the identifying email, clears the
// provisional one and performs one bulk refresh before marking the session
// authenticated. A failed refresh does not fail the sign-in.
func (m *Manager) onAuthenticated(ctx context.Context, gen uint64, user *models.User) error {
	if !hasIdentity(user) {
		return api.ErrMissingUser
	}

	err := m.ifCurrent(gen, func() error {
		m.user = user
		if err := m.tokens.SetIdentity(ctx, user.Email); err != nil {
			return fmt.Errorf("persist identity: %w", err)
		}
		if err := m.tokens.ClearPending(ctx); err != nil {
			m.log.Warn(ctx, "clear pending email", "error", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := m.data.RefreshAll(ctx); err != nil {
		m.log.Error(ctx, "refresh after sign-in failed", "error", err)
	}

	return m.ifCurrent(gen, func() error {
		m.phase = models.PhaseAuthenticated
		if !m.closed {
			m.bg.stop()
			m.bg = startRefresher(m.interval, m.backgroundRefresh)
		}
		return nil
	})
}

// AdoptUser replaces the signed-in user with an updated copy of the same
// account, e.g. after a profile edit. A changed email becomes the new
// identity.
func (m *Manager) AdoptUser(ctx context.Context, user *models.User) error {
	if !hasIdentity(user) {
		return api.ErrMissingUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != models.PhaseAuthenticated || m.user == nil {
		return ErrNotSignedIn
	}
	if user.Email != m.user.Email {
		if err := m.tokens.SetIdentity(ctx, user.Email); err != nil {
			return fmt.Errorf("persist identity: %w", err)
		}
	}
	m.user = user.Clone()
	return nil
}

func hasIdentity(u *models.User) bool {
	return u != nil && strings.TrimSpace(u.Email) != ""
}

// ifCurrent runs fn under the lock if gen still owns the session.
func (m *Manager) ifCurrent(gen uint64, fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return ErrSuperseded
	}
	return fn()
}

func (m *Manager) backgroundRefresh(ctx context.Context) {
	if _, err := m.data.RefreshAll(ctx); err != nil && ctx.Err() == nil {
		m.log.Error(ctx, "background refresh failed", "error", err)
	}
}

// SignOut ends the session. The backend logout is best effort; local
// state is cleared whatever its outcome. The background refresher is
// stopped before SignOut returns.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	m.gen++
	bg := m.bg
	m.bg = nil
	var email string
	if m.user != nil {
		email = m.user.Email
	}
	m.mu.Unlock()

	bg.stop()

	if email == "" {
		email, _ = m.tokens.Identity(ctx)
	}
	if err := m.auth.Logout(ctx, email); err != nil {
		m.log.Warn(ctx, "logout failed", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.tokens.Clear(ctx); err != nil {
		m.log.Error(ctx, "clear tokens", "error", err)
	}
	m.user = nil
	m.phase = models.PhaseUnauthenticated
}

// Close stops the background refresher without signing out. No refresher
// is started after Close.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	bg := m.bg
	m.bg = nil
	m.mu.Unlock()
	bg.stop()
}

func (m *Manager) savePending(ctx context.Context, email string) {
	if err := m.tokens.SetPending(ctx, email); err != nil {
		m.log.Warn(ctx, "save pending email", "error", err)
	}
}

// CleanOTPCode strips non-digits from code and keeps the first six.
func CleanOTPCode(code string) (string, error) {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == otpCodeLen {
				break
			}
		}
	}
	if b.Len() != otpCodeLen {
		return "", ErrInvalidOTPCode
	}
	return b.String(), nil
}
