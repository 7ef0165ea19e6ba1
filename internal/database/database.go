package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/config"
	"github.com/Wh1teCaat/fitness-companion/internal/logging"
	"github.com/Wh1teCaat/fitness-companion/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type options struct {
	writer logger.Writer
}

type Option func(*options)

// WithLogger sends gorm's warnings and errors to l instead of stdout.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		o.writer = gormWriter{log: l}
	}
}

// gormWriter adapts logging.Logger to gorm's Printf-style writer. gorm only
// reaches it for slow queries and failed statements at the Warn level.
type gormWriter struct {
	log logging.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Warn(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "gorm")
}

func newGormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func InitDB(cfg config.Database, opts ...Option) (*gorm.DB, error) {
	o := options{writer: log.New(os.Stdout, "\r\n", log.LstdFlags)}
	for _, opt := range opts {
		opt(&o)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(o.writer),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema. User goes first so the message foreign key has a target.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}); err != nil {
		return fmt.Errorf("failed to migrate User table: %w", err)
	}

	if err := db.AutoMigrate(&model.Message{}); err != nil {
		return fmt.Errorf("failed to migrate Message table: %w", err)
	}

	return nil
}
