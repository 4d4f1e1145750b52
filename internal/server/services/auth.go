// Package services contains the backend's business logic: authentication
// against the users collection and generic collection CRUD with the
// per-collection rules of the AssetFlow API.
package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/common"
	"github.com/dmitrijs2005/assetflow/internal/dbx"
	"github.com/dmitrijs2005/assetflow/internal/logging"
	"github.com/dmitrijs2005/assetflow/internal/server/models"
	"github.com/dmitrijs2005/assetflow/internal/server/repositories/records"
	"github.com/dmitrijs2005/assetflow/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	usersCollection = "users"
	minPasswordLen  = 6
)

var (
	ErrEmailRequired  = errors.New("email required")
	ErrCredsRequired  = errors.New("email and password required")
	ErrWeakPassword   = errors.New("password must be at least 6 characters")
	ErrUserExists     = errors.New("user with this email already exists")
	ErrInvalidOTP     = errors.New("invalid or expired OTP")
	ErrInvalidLogin   = errors.New("invalid email or password")
	ErrPasswordNotSet = errors.New("password not set, use OTP login")
)

type otpEntry struct {
	code    string
	expires time.Time
}

// AuthService signs users in by emailed code or password. Issued codes and
// signed-in emails live in memory only; a restart signs everybody out.
type AuthService struct {
	db  *sql.DB
	rm  repomanager.RepositoryManager
	log logging.Logger
	ttl time.Duration

	now     func() time.Time
	newCode func() (string, error)

	mu       sync.Mutex
	otps     map[string]otpEntry
	sessions map[string]struct{}
}

type AuthOption func(*AuthService)

// WithCodeGenerator replaces the random one-time code source.
func WithCodeGenerator(fn func() (string, error)) AuthOption {
	return func(s *AuthService) {
		if fn != nil {
			s.newCode = fn
		}
	}
}

func NewAuthService(db *sql.DB, rm repomanager.RepositoryManager, otpTTL time.Duration, logger logging.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		db:       db,
		rm:       rm,
		log:      logger.With("component", "auth_service"),
		ttl:      otpTTL,
		now:      time.Now,
		newCode:  generateOTP,
		otps:     make(map[string]otpEntry),
		sessions: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateOTP returns a random six-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// RequestOTP makes sure a user exists for email and issues a code. No mail
// is sent; the code is logged.
func (s *AuthService) RequestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}
	if _, err := s.ensureUser(ctx, s.rm.Records(s.db), email); err != nil {
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	s.mu.Lock()
	s.otps[email] = otpEntry{code: code, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()

	s.log.Info(ctx, "otp issued", "email", email, "code", code, "valid_for", s.ttl)
	return nil
}

// VerifyOTP consumes a code issued by RequestOTP and opens a session.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (models.Document, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)

	s.mu.Lock()
	entry, ok := s.otps[email]
	valid := ok &&
		subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) == 1 &&
		!s.now().After(entry.expires)
	if valid {
		delete(s.otps, email)
	}
	s.mu.Unlock()

	if !valid {
		s.log.Warn(ctx, "otp rejected", "email", email, "known", ok)
		return nil, ErrInvalidOTP
	}

	user, err := s.ensureUser(ctx, s.rm.Records(s.db), email)
	if err != nil {
		return nil, err
	}
	s.open(email)
	return user.Public(), nil
}

// Signup creates a password account and opens a session.
func (s *AuthService) Signup(ctx context.Context, email, password, fullName string) (models.Document, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	fullName = strings.TrimSpace(fullName)

	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user models.Document
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Records(tx)
		if _, err := repo.FindBy(ctx, usersCollection, "email", email); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		user = s.newUser(email)
		user["password_hash"] = string(hash)
		if fullName != "" {
			user["full_name"] = fullName
		}
		return repo.Insert(ctx, usersCollection, user)
	})
	if err != nil {
		return nil, err
	}

	s.open(email)
	s.log.Info(ctx, "user signed up", "email", email)
	return user.Public(), nil
}

// Login checks a password and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.Document, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrCredsRequired
	}

	user, err := s.rm.Records(s.db).FindBy(ctx, usersCollection, "email", email)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, err
	}

	hash := user.String("password_hash")
	if hash == "" {
		return nil, ErrPasswordNotSet
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		s.log.Warn(ctx, "failed password attempt", "email", email)
		return nil, ErrInvalidLogin
	}

	s.open(email)
	return user.Public(), nil
}

// Logout closes the session for email. Unknown emails are ignored.
func (s *AuthService) Logout(ctx context.Context, email string) {
	s.mu.Lock()
	delete(s.sessions, normalizeEmail(email))
	s.mu.Unlock()
}

// Authenticate resolves the identity header value to a signed-in user.
func (s *AuthService) Authenticate(ctx context.Context, email string) (models.Document, error) {
	email = normalizeEmail(email)

	s.mu.Lock()
	_, ok := s.sessions[email]
	s.mu.Unlock()
	if email == "" || !ok {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.rm.Records(s.db).FindBy(ctx, usersCollection, "email", email)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

func (s *AuthService) open(email string) {
	s.mu.Lock()
	s.sessions[email] = struct{}{}
	s.mu.Unlock()
}

func (s *AuthService) ensureUser(ctx context.Context, repo records.Repository, email string) (models.Document, error) {
	user, err := repo.FindBy(ctx, usersCollection, "email", email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	user = s.newUser(email)
	if err := repo.Insert(ctx, usersCollection, user); err != nil {
		return nil, err
	}
	return user, nil
}

// newUser builds a standard-role user whose name is derived from email.
func (s *AuthService) newUser(email string) models.Document {
	local, _, _ := strings.Cut(email, "@")
	name := local
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return models.Document{
		"id":           uuid.NewString(),
		"email":        email,
		"full_name":    name,
		"role":         models.RoleUser,
		"created_date": models.Timestamp(s.now()),
		"department":   "",
		"phone":        "",
		"employee_id":  "",
	}
}
