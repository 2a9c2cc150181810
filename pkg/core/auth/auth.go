package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carverauto/visionconnect/pkg/db"
	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
)

var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidToken            = errors.New("invalid token")
	ErrInvalidEmail            = errors.New("a valid email is required")
	ErrPasswordRequired        = errors.New("password is required")
	ErrAuthDisabled            = errors.New("authentication is not configured")
	errUnexpectedSigningMethod = errors.New("unexpected signing method")
)

const tokenTypeBearer = "bearer"

type Auth struct {
	config *models.AuthConfig
	db     db.Service
	logger logger.Logger
	now    func() time.Time
}

var _ AuthService = (*Auth)(nil)

func NewAuth(config *models.AuthConfig, database db.Service, log logger.Logger) *Auth {
	if config == nil {
		config = &models.AuthConfig{}
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Auth{config: config, db: database, logger: log, now: time.Now}
}

// Enabled reports whether tokens can be issued and verified.
func (a *Auth) Enabled() bool {
	return a.config.JWTSecret != ""
}

func (a *Auth) Register(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if password == "" {
		return nil, ErrPasswordRequired
	}

	cost := a.config.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	}

	if err := a.db.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	a.logger.Info().Str("user_id", user.ID).Msg("Registered user")

	return user, nil
}

func (a *Auth) Login(ctx context.Context, email, password string) (*models.Token, error) {
	if !a.Enabled() {
		return nil, ErrAuthDisabled
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := a.db.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	signed, expiresAt, err := GenerateJWT(user, a.config.JWTSecret, time.Duration(a.config.JWTExpiration), a.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.Token{
		AccessToken: signed,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   expiresAt,
	}, nil
}

func (a *Auth) VerifyToken(_ context.Context, token string) (*models.User, error) {
	if !a.Enabled() {
		return nil, ErrAuthDisabled
	}

	claims, err := ParseJWT(token, a.config.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return &models.User{
		ID:    claims.UserID,
		Email: claims.Email,
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}

	return email, nil
}
