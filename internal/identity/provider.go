// Package identity registers accounts and verifies the tokens callers present.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/societyresolver/complaint-service/internal/docstore"
	"github.com/societyresolver/complaint-service/internal/domain"
)

// AccountsCollection holds credentials. It is separate from the users
// collection so password hashes never reach user documents.
const AccountsCollection = "identity_accounts"

var (
	ErrEmailExists        = errors.New("identity: email already registered")
	ErrInvalidEmail       = errors.New("identity: invalid email")
	ErrWeakPassword       = errors.New("identity: password too short")
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
	ErrInvalidToken       = errors.New("identity: invalid or expired token")
)

// Provider is the identity service the coordinator delegates to.
type Provider interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	VerifyToken(ctx context.Context, token string) (*domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
}

// Options tunes LocalProvider.
type Options struct {
	BcryptCost        int
	MinPasswordLength int
}

// LocalProvider keeps bcrypt credentials in the document store and issues
// signed JWTs.
type LocalProvider struct {
	store  docstore.Store
	tokens *TokenManager
	opts   Options
	logger *zap.Logger
}

// NewLocalProvider wires a provider on top of store.
func NewLocalProvider(store docstore.Store, tokens *TokenManager, opts Options, logger *zap.Logger) *LocalProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalProvider{store: store, tokens: tokens, opts: opts, logger: logger}
}

// CreateAccount registers email and returns the new uid.
func (p *LocalProvider) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	if len(password) < p.opts.MinPasswordLength || password == "" {
		return "", ErrWeakPassword
	}

	hash, err := HashPassword(password, p.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	uid := p.store.NewID(AccountsCollection)
	err = p.store.Create(ctx, AccountsCollection, normalized, docstore.Fields{
		"uid":           uid,
		"email":         normalized,
		"display_name":  displayName,
		"password_hash": hash,
		"created_at":    time.Now().UTC().Format(time.RFC3339Nano),
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return "", ErrEmailExists
	}
	if err != nil {
		return "", fmt.Errorf("store account: %w", err)
	}

	p.logger.Info("identity account created", zap.String("uid", uid))
	return uid, nil
}

// SignIn checks credentials and issues a token.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	doc, err := p.store.Get(ctx, AccountsCollection, normalized)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	if err := ComparePassword(doc.Fields.String("password_hash"), password); err != nil {
		return nil, ErrInvalidCredentials
	}

	uid := doc.Fields.String("uid")
	token, expiresAt, err := p.tokens.GenerateToken(uid, normalized, doc.Fields.String("display_name"))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &domain.Session{UID: uid, Token: token, ExpiresAt: expiresAt}, nil
}

// VerifyToken validates a token issued by SignIn.
func (p *LocalProvider) VerifyToken(_ context.Context, token string) (*domain.Identity, error) {
	claims, err := p.tokens.ParseToken(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	identity := &domain.Identity{
		UID:   claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
