package classifier

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/Wh1teCaat/fitness-companion/internal/config"
	"github.com/Wh1teCaat/fitness-companion/internal/logging"
)

// Loader builds the classifier once, on the first Get. A failed build is kept:
// every later Get reports ErrNotLoaded until the process restarts.
type Loader struct {
	build  func() (Classifier, error)
	logger logging.Logger

	once   sync.Once
	c      Classifier
	err    error
	loaded atomic.Bool
}

func NewLoader(build func() (Classifier, error), logger logging.Logger) *Loader {
	return &Loader{build: build, logger: logger}
}

func (l *Loader) Get(ctx context.Context) (Classifier, error) {
	l.once.Do(func() {
		l.logger.Info(ctx, "loading emotion classifier")
		l.c, l.err = l.build()
		if l.err != nil {
			l.logger.Error(ctx, "failed to load emotion classifier", "error", l.err)
			return
		}
		l.loaded.Store(true)
		l.logger.Info(ctx, "emotion classifier loaded")
	})

	if l.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotLoaded, l.err)
	}
	return l.c, nil
}

// Loaded reports whether a Get has already succeeded. It never triggers a build.
func (l *Loader) Loaded() bool {
	return l.loaded.Load()
}

// Open checks the model artifact and connects to the configured backend.
func Open(cfg config.Classifier) (*Adapter, error) {
	if _, err := LoadManifest(cfg.ModelPath); err != nil {
		return nil, err
	}

	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	return NewAdapter(backend, cfg.MaxLength, cfg.Timeout), nil
}

func NewBackend(cfg config.Classifier) (Backend, error) {
	switch cfg.Backend {
	case "grpc":
		b, err := NewGRPCBackend(cfg.Addr)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "http":
		return NewHTTPBackend(cfg.Addr, &http.Client{Timeout: cfg.Timeout}), nil
	default:
		return nil, fmt.Errorf("unsupported classifier backend %q", cfg.Backend)
	}
}
