package handler

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/openshelf/reputation/internal/database/types/enum"
	"github.com/openshelf/reputation/internal/rest/convert"
	restTypes "github.com/openshelf/reputation/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// UserHandler handles per-user reputation requests.
type UserHandler struct {
	ledger       Ledger
	profile      Profile
	cache        Cache
	validate     *validator.Validate
	historyLimit int
	logger       *zap.Logger
}

// NewUserHandler creates a new user handler. The leaderboard cache is
// invalidated after every successful award or revoke.
func NewUserHandler(ledger Ledger, profile Profile, cache Cache, historyLimit int, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		ledger:       ledger,
		profile:      profile,
		cache:        cache,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		historyLimit: historyLimit,
		logger:       logger.Named("user_handler"),
	}
}

// GetReputation handles GET /v1/users/:id/reputation requests.
//
//	@Summary		Get a user's reputation
//	@Description	Returns the reputation record, unlocked achievements and recent history
//	@Tags			users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	types.ReputationResponse
//	@Failure		400	{object}	types.ErrorResponse
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/v1/users/{id}/reputation [get]
func (h *UserHandler) GetReputation(w http.ResponseWriter, req bunrouter.Request) error {
	userID, ok := parseUserID(req.Param("id"))
	if !ok {
		return writeError(w, http.StatusBadRequest, "Invalid user ID")
	}

	profile, err := h.profile.GetReputation(req.Context(), userID, h.historyLimit)
	if err != nil {
		return writeServiceError(w, h.logger, "Failed to get reputation", err)
	}

	return writeJSON(w, http.StatusOK, convert.Reputation(profile))
}

// AwardEvent handles POST /v1/users/:id/events requests.
//
//	@Summary		Award a reputation event
//	@Tags			users
//	@Accept			json
//	@Param			id		path	string				true	"User ID"
//	@Param			event	body	types.EventRequest	true	"Event"
//	@Success		204
//	@Failure		400	{object}	types.ErrorResponse
//	@Router			/v1/users/{id}/events [post]
func (h *UserHandler) AwardEvent(w http.ResponseWriter, req bunrouter.Request) error {
	return h.handleEvent(w, req, "award")
}

// RevokeEvent handles POST /v1/users/:id/events/revoke requests.
//
//	@Summary		Revoke a reputation event
//	@Tags			users
//	@Accept			json
//	@Param			id		path	string				true	"User ID"
//	@Param			event	body	types.EventRequest	true	"Event"
//	@Success		204
//	@Failure		400	{object}	types.ErrorResponse
//	@Router			/v1/users/{id}/events/revoke [post]
func (h *UserHandler) RevokeEvent(w http.ResponseWriter, req bunrouter.Request) error {
	return h.handleEvent(w, req, "revoke")
}

func (h *UserHandler) handleEvent(w http.ResponseWriter, req bunrouter.Request, action string) error {
	userID, ok := parseUserID(req.Param("id"))
	if !ok {
		return writeError(w, http.StatusBadRequest, "Invalid user ID")
	}

	var body restTypes.EventRequest
	if err := sonic.ConfigDefault.NewDecoder(req.Body).Decode(&body); err != nil {
		return writeError(w, http.StatusBadRequest, "Invalid request body")
	}

	if err := h.validate.Struct(body); err != nil {
		return writeError(w, http.StatusBadRequest, "Invalid event: "+err.Error())
	}

	eventType, err := enum.EventTypeString(body.Type)
	if err != nil {
		return writeError(w, http.StatusBadRequest, "Invalid event type")
	}

	if action == "revoke" {
		err = h.ledger.RevokeEvent(req.Context(), userID, eventType, body.SourceID)
	} else {
		err = h.ledger.AwardEvent(req.Context(), userID, eventType, body.SourceID)
	}

	if err != nil {
		return writeServiceError(w, h.logger, "Failed to "+action+" event", err)
	}

	if err := h.cache.Invalidate(req.Context()); err != nil {
		h.logger.Warn("Failed to invalidate leaderboard cache", zap.Error(err))
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
