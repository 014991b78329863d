package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/openshelf/reputation/internal/database/types"
	"github.com/openshelf/reputation/internal/database/types/enum"
	restTypes "github.com/openshelf/reputation/internal/rest/types"
	"go.uber.org/zap"
)

// Ledger records and revokes reputation events.
type Ledger interface {
	AwardEvent(ctx context.Context, userID uuid.UUID, eventType enum.EventType, sourceID string) error
	RevokeEvent(ctx context.Context, userID uuid.UUID, eventType enum.EventType, sourceID string) error
}

// Ranking computes leaderboards.
type Ranking interface {
	NormalizeLimit(limit int) int
	ComputeRanking(ctx context.Context, limit int, recalculateTopFlag bool) ([]*types.LeaderboardEntry, error)
}

// Profile loads reputation profiles.
type Profile interface {
	GetReputation(ctx context.Context, userID uuid.UUID, historyLimit int) (*types.UserReputation, error)
}

// Catalog lists the achievement catalog.
type Catalog interface {
	Catalog() []types.Achievement
}

// Cache stores rendered responses.
type Cache interface {
	Version(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context) error
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(data)

	return err
}

// writeError writes an error body.
func writeError(w http.ResponseWriter, status int, message string) error {
	return writeJSON(w, status, restTypes.ErrorResponse{Error: message})
}

// writeServiceError maps a service error to a status code and writes it.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, msg string, err error) error {
	switch {
	case errors.Is(err, types.ErrUserNotFound):
		return writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, types.ErrInvalidEventType), errors.Is(err, types.ErrInvalidUserID):
		return writeError(w, http.StatusBadRequest, err.Error())
	case types.IsTransient(err):
		logger.Warn(msg, zap.Error(err))
		return writeError(w, http.StatusServiceUnavailable, "Storage temporarily unavailable")
	default:
		logger.Error(msg, zap.Error(err))
		return writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// parseUserID parses a user ID path parameter.
func parseUserID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}

	return id, true
}
