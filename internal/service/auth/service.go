package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/watchparty/server/internal/repository/user"
)

var (
	ErrUnauthenticated   = errors.New("no credential provided")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrExpiredCredential = errors.New("credential expired")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidLogin      = errors.New("invalid username or password")
)

type iUserRepo interface {
	Create(context.Context, *user.User) error
	GetByUsername(context.Context, string) (user.User, error)
}

// Identity is the claim a verified credential resolves to.
type Identity struct {
	UserId   string
	Username string
}

type Config struct {
	Secret   string
	TokenTTL time.Duration
}

type service struct {
	userRepo iUserRepo
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewService(userRepo iUserRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		userRepo: userRepo,
		secret:   []byte(cfg.Secret),
		tokenTTL: cfg.TokenTTL,
		logger:   logger,
	}
}

type RegisterParams struct {
	Username string
	Password string
}

type RegisterResponse struct {
	UserId string
}

func (s *service) Register(ctx context.Context, params *RegisterParams) (RegisterResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := user.User{
		Id:           uuid.NewString(),
		Username:     params.Username,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, &u); err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return RegisterResponse{}, ErrUsernameTaken
		}
		s.logger.InfoContext(ctx, "failed to create user", "error", err)
		return RegisterResponse{}, err
	}

	return RegisterResponse{UserId: u.Id}, nil
}

type LoginParams struct {
	Username string
	Password string
}

type LoginResponse struct {
	Token    string
	Username string
}

func (s *service) Login(ctx context.Context, params *LoginParams) (LoginResponse, error) {
	u, err := s.userRepo.GetByUsername(ctx, params.Username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return LoginResponse{}, ErrInvalidLogin
		}
		s.logger.InfoContext(ctx, "failed to get user", "error", err)
		return LoginResponse{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(params.Password)) != nil {
		return LoginResponse{}, ErrInvalidLogin
	}

	token, err := s.generateToken(Identity{UserId: u.Id, Username: u.Username})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return LoginResponse{Token: token, Username: u.Username}, nil
}
