package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type QuotaHandler struct {
	quotaService service.QuotaService
	validate     *validator.Validate
	logger       zerolog.Logger
}

func NewQuotaHandler(quotaService service.QuotaService, validate *validator.Validate, logger zerolog.Logger) *QuotaHandler {
	return &QuotaHandler{
		quotaService: quotaService,
		validate:     validate,
		logger:       logger,
	}
}

func (h *QuotaHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/quota-check", authMw(http.HandlerFunc(h.checkQuota)))
	mux.Handle("/quota-increment", authMw(http.HandlerFunc(h.incrementUsage)))
}

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// checkQuota godoc
// @Summary Check AI generation quota
// @Description Reports whether the user may invoke AI generation today, how many free generations remain, and whether payment is needed.
// @Tags quota
// @Produce json
// @Param userId query string true "User ID"
// @Success 200 {object} dto.QuotaCheckResponseDTO
// @Failure 400 {object} handler.errorResponse "User ID required"
// @Failure 500 {object} handler.errorResponse "Internal server error"
// @Router /quota-check [post]
func (h *QuotaHandler) checkQuota(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// An authenticated subject takes precedence over the client-supplied ID.
	userID := middleware.UserFromContext(r.Context())
	if userID == "" {
		userID = r.URL.Query().Get("userId")
	}
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "User ID required"}, h.logger)
		return
	}

	status, err := h.quotaService.CheckQuota(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Quota check failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, dto.QuotaCheckResponseDTO{
		CanGenerate:   status.CanGenerate,
		FreeRemaining: status.FreeRemaining,
		FreeLimit:     status.FreeLimit,
		NeedsPayment:  status.NeedsPayment,
	}, h.logger)
}

// incrementUsage godoc
// @Summary Record an AI generation
// @Description Consumes one free generation, or records a paid one without touching the free allotment. Fails with 400 once the free quota is exhausted.
// @Tags quota
// @Accept json
// @Produce json
// @Param request body dto.QuotaIncrementDTO true "Increment request"
// @Success 200 {object} dto.QuotaIncrementResponseDTO
// @Failure 400 {object} handler.errorResponse "Quota exceeded or update failed"
// @Failure 500 {object} handler.errorResponse "Internal server error"
// @Router /quota-increment [post]
func (h *QuotaHandler) incrementUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.QuotaIncrementDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON payload"}, h.logger)
		return
	}
	if userID := middleware.UserFromContext(r.Context()); userID != "" {
		req.UserID = userID
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "User ID required"}, h.logger)
		return
	}

	if err := h.quotaService.IncrementUsage(r.Context(), req.UserID, req.IsPaid); err != nil {
		if errors.Is(err, service.ErrQuotaExceeded) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Quota exceeded or update failed"}, h.logger)
			return
		}
		h.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Quota increment failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, dto.QuotaIncrementResponseDTO{Success: true}, h.logger)
}
