package service

import (
	"context"
	"errors"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/auth"
	"github.com/Wh1teCaat/fitness-companion/internal/classifier"
	"github.com/Wh1teCaat/fitness-companion/internal/repository"
	"github.com/Wh1teCaat/fitness-companion/internal/responder"
)

var (
	ErrEmptyFields        = errors.New("username and password cannot be empty")
	ErrHashPassword       = errors.New("failed to hash password")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmptyMessage       = errors.New("empty message")
	ErrModelNotLoaded     = errors.New("model not loaded")
	ErrInvalidProfile     = errors.New("invalid profile value")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
)

// ClassifierProvider hands out the process-wide classifier, see classifier.Loader.
type ClassifierProvider interface {
	Get(ctx context.Context) (classifier.Classifier, error)
}

type Service struct {
	repo   *repository.Repository
	tokens *auth.TokenManager
	models ClassifierProvider
	engine *responder.Engine
	now    func() time.Time
	loc    *time.Location
}

type Option func(*Service)

// WithClock replaces time.Now. Chat timestamps and login days derive from it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the time zone in which login days are counted.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func NewService(repo *repository.Repository, tokens *auth.TokenManager, models ClassifierProvider, engine *responder.Engine, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		tokens: tokens,
		models: models,
		engine: engine,
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
