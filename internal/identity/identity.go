// Package identity authenticates users and keeps the current session.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"murmur/internal/docstore"
	"murmur/internal/models"
	"murmur/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

const (
	tokenIssuer   = "murmur"
	tokenAudience = "murmur-client"
)

// User is the authenticated principal.
type User struct {
	UID   string
	Email string
}

// Service is the identity contract used by the auth repository.
type Service interface {
	CurrentUser() (User, bool)
	CurrentUserID() (string, bool)
	IsLoggedIn() bool
	SignUp(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
}

// account is the stored credential document, keyed by lowercase email.
type account struct {
	UID          string `mapstructure:"uid"`
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"passwordHash"`
	CreatedAt    int64  `mapstructure:"createdAt"`
}

// Local authenticates against accounts kept in the document store and
// persists a signed session token through a SessionStore.
type Local struct {
	store   docstore.Store
	session SessionStore
	secret  []byte
	ttl     time.Duration
	now     func() time.Time

	mu      sync.RWMutex
	current *User
}

var _ Service = (*Local)(nil)

// NewLocal builds a Local identity service and restores a saved session if
// its token is still valid. An expired or tampered token is discarded.
func NewLocal(store docstore.Store, session SessionStore, secret string, ttl time.Duration) *Local {
	l := &Local{
		store:   store,
		session: session,
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
	}
	l.restore()
	return l
}

func (l *Local) restore() {
	token, err := l.session.Load()
	if err != nil || token == "" {
		return
	}
	user, err := l.parseToken(token)
	if err != nil {
		observability.GlobalLogger.Info("discarding saved session", "error", err.Error())
		_ = l.session.Clear()
		return
	}
	l.mu.Lock()
	l.current = user
	l.mu.Unlock()
}

func (l *Local) CurrentUser() (User, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return User{}, false
	}
	return *l.current, true
}

func (l *Local) CurrentUserID() (string, bool) {
	u, ok := l.CurrentUser()
	return u.UID, ok
}

func (l *Local) IsLoggedIn() bool {
	_, ok := l.CurrentUser()
	return ok
}

// SignUp creates an account and logs it in.
func (l *Local) SignUp(ctx context.Context, email, password string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if len(password) < MinPasswordLength {
		return models.NewAuthError(models.CodeAuthWeakPassword)
	}

	_, err = l.store.Get(ctx, docstore.CollectionAccounts, email)
	if err == nil {
		return models.NewAuthError(models.CodeAuthEmailInUse)
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("lookup account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	acct := account{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    l.now().Unix(),
	}
	if err := l.store.Set(ctx, docstore.CollectionAccounts, email, map[string]any{
		"uid":          acct.UID,
		"email":        acct.Email,
		"passwordHash": acct.PasswordHash,
		"createdAt":    acct.CreatedAt,
	}); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	return l.startSession(User{UID: acct.UID, Email: acct.Email})
}

func (l *Local) Login(ctx context.Context, email, password string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	doc, err := l.store.Get(ctx, docstore.CollectionAccounts, email)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.NewAuthError(models.CodeAuthUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	acct, err := docstore.DecodeDocument[account](*doc)
	if err != nil {
		return models.NewInternalError(err)
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); cmpErr != nil {
		return models.NewAuthError(models.CodeAuthWrongPassword)
	}

	return l.startSession(User{UID: acct.UID, Email: acct.Email})
}

func (l *Local) Logout(_ context.Context) error {
	l.mu.Lock()
	l.current = nil
	l.mu.Unlock()
	return l.session.Clear()
}

func (l *Local) startSession(u User) error {
	token, err := l.generateToken(u)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := l.session.Save(token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	l.mu.Lock()
	l.current = &u
	l.mu.Unlock()
	return nil
}

func (l *Local) generateToken(u User) (string, error) {
	if len(l.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	now := l.now()
	claims := jwt.MapClaims{
		"sub":   u.UID,
		"email": u.Email,
		"iss":   tokenIssuer,
		"aud":   tokenAudience,
		"exp":   now.Add(l.ttl).Unix(),
		"iat":   now.Unix(),
		"jti":   uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(l.secret)
}

func (l *Local) parseToken(tokenString string) (*User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return l.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.NewAuthError(models.CodeAuthSessionExpired)
		}
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("invalid token structure - missing subject")
	}
	email, _ := claims["email"].(string)
	return &User{UID: sub, Email: email}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return "", models.NewAuthError(models.CodeAuthInvalidEmail)
	}
	return email, nil
}
