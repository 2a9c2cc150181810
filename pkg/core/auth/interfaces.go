package auth

import (
	"context"

	"github.com/carverauto/visionconnect/pkg/models"
)

//go:generate mockgen -destination=mock_auth.go -package=auth github.com/carverauto/visionconnect/pkg/core/auth AuthService

type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.Token, error)
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}
