package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/openshelf/reputation/internal/rest/convert"
	restTypes "github.com/openshelf/reputation/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	ranking Ranking
	cache   Cache
	logger  *zap.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(ranking Ranking, cache Cache, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		ranking: ranking,
		cache:   cache,
		logger:  logger.Named("leaderboard_handler"),
	}
}

// GetLeaderboard handles GET /v1/leaderboard requests.
//
//	@Summary		Get the leaderboard
//	@Description	Returns users with positive reputation ranked from 1
//	@Tags			leaderboard
//	@Produce		json
//	@Param			limit	query		int	false	"Number of entries"
//	@Success		200		{object}	types.LeaderboardResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		503		{object}	types.ErrorResponse
//	@Router			/v1/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, req bunrouter.Request) error {
	var limit int

	if raw := req.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return writeError(w, http.StatusBadRequest, "Invalid limit")
		}

		limit = parsed
	}

	limit = h.ranking.NormalizeLimit(limit)

	// The version is read before computing so a result that races with an
	// invalidation lands under a key no later request uses.
	version, err := h.cache.Version(req.Context())
	cacheable := err == nil
	if err != nil {
		h.logger.Warn("Failed to read leaderboard cache version", zap.Error(err))
	}

	key := fmt.Sprintf("v%d:%d", version, limit)

	if cacheable {
		var cached restTypes.LeaderboardResponse
		if found, err := h.cache.Get(req.Context(), key, &cached); err != nil {
			h.logger.Warn("Failed to read cached leaderboard", zap.Error(err))
		} else if found {
			return writeJSON(w, http.StatusOK, cached)
		}
	}

	entries, err := h.ranking.ComputeRanking(req.Context(), limit, false)
	if err != nil {
		return writeServiceError(w, h.logger, "Failed to compute leaderboard", err)
	}

	response := restTypes.LeaderboardResponse{
		Limit:   limit,
		Entries: convert.LeaderboardEntries(entries),
	}

	if cacheable {
		if err := h.cache.Set(req.Context(), key, response); err != nil {
			h.logger.Warn("Failed to cache leaderboard", zap.Error(err))
		}
	}

	return writeJSON(w, http.StatusOK, response)
}
