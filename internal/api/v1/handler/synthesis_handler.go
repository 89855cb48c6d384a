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

type SynthesisHandler struct {
	synthesisService service.SynthesisService
	validate         *validator.Validate
	logger           zerolog.Logger
}

func NewSynthesisHandler(synthesisService service.SynthesisService, validate *validator.Validate, logger zerolog.Logger) *SynthesisHandler {
	return &SynthesisHandler{
		synthesisService: synthesisService,
		validate:         validate,
		logger:           logger,
	}
}

func (h *SynthesisHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/synthesize", authMw(http.HandlerFunc(h.synthesize)))
}

// synthesize godoc
// @Summary Synthesize a chain configuration from natural language
// @Description Turns a free-form utterance into a validated L3 chain configuration. Unusable model output comes back as HTTP 200 with success:false and a guidance message, so callers can show retry guidance rather than an error page.
// @Tags synthesis
// @Accept json
// @Produce json
// @Param request body dto.SynthesizeRequestDTO true "Synthesis request"
// @Success 200 {object} dto.SynthesizeResponseDTO
// @Failure 400 {object} dto.SynthesizeResponseDTO "User query is required"
// @Failure 500 {object} dto.SynthesizeResponseDTO "Provider not configured or internal error"
// @Router /synthesize [post]
func (h *SynthesisHandler) synthesize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.SynthesizeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.SynthesizeResponseDTO{
			Success: false,
			Message: "Invalid JSON payload",
		}, h.logger)
		return
	}
	if userID := middleware.UserFromContext(r.Context()); userID != "" {
		req.UserID = userID
	}
	if err := h.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.SynthesizeResponseDTO{
			Success: false,
			Message: "User query is required",
		}, h.logger)
		return
	}

	result, err := h.synthesisService.Synthesize(r.Context(), req.UserID, req.UserQuery)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SynthesizeResponseDTO{
		Success: result.Success,
		Config:  result.Config,
		Message: result.Message,
	}, h.logger)
}

// respondError maps the synthesis error taxonomy onto HTTP statuses:
// input problems are 400, missing provider configuration is 500, and
// provider failures carry the upstream status when one is known.
func (h *SynthesisHandler) respondError(w http.ResponseWriter, err error) {
	var provErr *service.ProviderError

	switch {
	case errors.Is(err, service.ErrEmptyQuery):
		writeJSON(w, http.StatusBadRequest, dto.SynthesizeResponseDTO{
			Success: false,
			Message: "User query is required",
		}, h.logger)
	case errors.Is(err, service.ErrProviderNotConfigured):
		writeJSON(w, http.StatusInternalServerError, dto.SynthesizeResponseDTO{
			Success: false,
			Message: "AI provider not configured",
		}, h.logger)
	case errors.As(err, &provErr):
		status := provErr.StatusCode
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, dto.SynthesizeResponseDTO{
			Success: false,
			Message: "Failed to generate configuration: " + provErr.Message,
		}, h.logger)
	default:
		h.logger.Error().Err(err).Msg("Synthesis failed")
		writeJSON(w, http.StatusInternalServerError, dto.SynthesizeResponseDTO{
			Success: false,
			Message: "Failed to generate configuration",
		}, h.logger)
	}
}
