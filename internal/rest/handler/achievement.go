package handler

import (
	"net/http"

	"github.com/openshelf/reputation/internal/rest/convert"
	restTypes "github.com/openshelf/reputation/internal/rest/types"
	"github.com/uptrace/bunrouter"
)

// AchievementHandler serves the achievement catalog.
type AchievementHandler struct {
	catalog Catalog
}

// NewAchievementHandler creates a new achievement handler.
func NewAchievementHandler(catalog Catalog) *AchievementHandler {
	return &AchievementHandler{catalog: catalog}
}

// ListAchievements handles GET /v1/achievements requests.
//
//	@Summary	List achievements
//	@Tags		achievements
//	@Produce	json
//	@Success	200	{object}	types.AchievementsResponse
//	@Router		/v1/achievements [get]
func (h *AchievementHandler) ListAchievements(w http.ResponseWriter, _ bunrouter.Request) error {
	return writeJSON(w, http.StatusOK, restTypes.AchievementsResponse{
		Achievements: convert.Catalog(h.catalog.Catalog()),
	})
}
