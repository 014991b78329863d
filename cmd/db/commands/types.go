package commands

import (
	"errors"

	"github.com/openshelf/reputation/internal/database"
	"github.com/openshelf/reputation/internal/redis"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var (
	ErrNameRequired         = errors.New("NAME argument required")
	ErrEventArgsRequired    = errors.New("USER TYPE SOURCE arguments required")
	ErrConfirmationRequired = errors.New("refusing to recompute reputation without --yes")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	DB       database.Client
	Migrator *migrate.Migrator
	Services *database.Service
	Cache    *redis.JSONCache
	Logger   *zap.Logger
}
