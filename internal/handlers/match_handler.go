package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wanderlink/backend/internal/middleware"
	"github.com/wanderlink/backend/internal/models"
	"github.com/wanderlink/backend/internal/services"
)

type MatchHandler struct {
	requests    *services.MatchRequestService
	suggestions *services.SuggestionService
	logger      *zap.Logger
}

func NewMatchHandler(requests *services.MatchRequestService, suggestions *services.SuggestionService, logger *zap.Logger) *MatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchHandler{requests: requests, suggestions: suggestions, logger: logger}
}

func (h *MatchHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.SendMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(validationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	edge, err := h.requests.SendRequest(ctx, userID, req.ReceiverID)
	if err != nil {
		if writeServiceError(w, err) {
			return
		}
		h.logger.Error("send match request failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to send match request"))
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(edge))
}

func (h *MatchHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.requests.Accept)
}

func (h *MatchHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.requests.Reject)
}

func (h *MatchHandler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actingUserID, edgeID string) (*models.MatchEdge, error)) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	edgeID := chi.URLParam(r, "edgeId")
	if edgeID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing edgeId"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	edge, err := fn(ctx, userID, edgeID)
	if err != nil {
		if writeServiceError(w, err) {
			return
		}
		h.logger.Error("decide match request failed",
			zap.String("user_id", userID), zap.String("edge_id", edgeID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update match request"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(edge))
}

func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	edges, err := h.requests.AcceptedMatches(ctx, userID)
	if err != nil {
		h.logger.Error("list matches failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load matches"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(edges))
}

func (h *MatchHandler) ListIncomingRequests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	edges, err := h.requests.IncomingRequests(ctx, userID)
	if err != nil {
		h.logger.Error("list incoming requests failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load requests"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(edges))
}

func (h *MatchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid limit"))
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ranked, err := h.suggestions.Suggest(ctx, userID, limit)
	if err != nil {
		h.logger.Error("suggestions failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load suggestions"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(ranked))
}
