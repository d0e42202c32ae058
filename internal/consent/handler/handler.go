package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trialconsent/internal/consent/models"
	"trialconsent/internal/consent/validation"
	"trialconsent/pkg/domain"
	dErrors "trialconsent/pkg/domain-errors"
	"trialconsent/pkg/platform/httputil"
	"trialconsent/pkg/requestcontext"
)

// maxBodyBytes bounds a consent form body.
const maxBodyBytes = 64 << 10

// Service defines the interface for consent operations.
type Service interface {
	Validate(ctx context.Context, sub *models.Submission, mode validation.Mode) (*validation.Result, error)
	Submit(ctx context.Context, sub *models.Submission) (*models.InformedConsent, error)
	ConfirmEligibility(ctx context.Context, rec *models.EligibilityConfirmation) (*models.EligibilityConfirmation, error)
	GetConsent(ctx context.Context, subject domain.SubjectIdentifier, version domain.ConsentVersion) (*models.InformedConsent, error)
	ListConsents(ctx context.Context, subject domain.SubjectIdentifier) ([]*models.InformedConsent, error)
	GetEligibility(ctx context.Context, screening domain.ScreeningIdentifier) (*models.EligibilityConfirmation, error)
}

// Handler serves the consent form and eligibility endpoints.
type Handler struct {
	logger      *slog.Logger
	consent     Service
	defaultMode validation.Mode
}

type Option func(*Handler)

// WithDefaultMode sets the mode used by /validate when none is requested.
func WithDefaultMode(mode validation.Mode) Option {
	return func(h *Handler) {
		h.defaultMode = mode
	}
}

// New creates a new consent Handler.
func New(consent Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		logger:      logger,
		consent:     consent,
		defaultMode: validation.StopAtFirst,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the consent routes. Authentication and request
// middleware are applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/consents/validate", h.handleValidate)
	r.Post("/v1/consents", h.handleSubmit)
	r.Get("/v1/subjects/{subject}/consents", h.handleListConsents)
	r.Get("/v1/subjects/{subject}/consents/{version}", h.handleGetConsent)
	r.Post("/v1/eligibility-confirmations", h.handleConfirmEligibility)
	r.Get("/v1/eligibility-confirmations/{screening}", h.handleGetEligibility)
}

// handleValidate runs the consent rules without saving. ?mode=all reports
// every failing rule.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mode := h.defaultMode
	if raw := r.URL.Query().Get("mode"); raw != "" {
		parsed, err := validation.ParseMode(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "mode must be first or all"))
			return
		}
		mode = parsed
	}

	sub, ok := h.decodeSubmission(w, r)
	if !ok {
		return
	}

	res, err := h.consent.Validate(ctx, sub, mode)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to validate consent", err)
		return
	}
	if !res.Valid() {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, toValidationResponse(res))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ValidationResponse{Valid: true})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sub, ok := h.decodeSubmission(w, r)
	if !ok {
		return
	}

	saved, err := h.consent.Submit(ctx, sub)
	if err != nil {
		var vErr *validation.Error
		if errors.As(err, &vErr) {
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, toValidationResponse(vErr.Result))
			return
		}
		h.writeServiceError(ctx, w, "failed to submit consent", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleListConsents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := domain.ParseSubjectIdentifier(chi.URLParam(r, "subject"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	consents, err := h.consent.ListConsents(ctx, subject)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list consents", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ConsentListResponse{Consents: consents})
}

func (h *Handler) handleGetConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := domain.ParseSubjectIdentifier(chi.URLParam(r, "subject"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	version, err := domain.ParseConsentVersion(chi.URLParam(r, "version"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	consent, err := h.consent.GetConsent(ctx, subject, version)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get consent", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, consent)
}

func (h *Handler) handleConfirmEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.ConfirmEligibilityRequest
	if !h.decode(w, r, &req) {
		return
	}
	sanitizeEligibility(&req)
	rec, err := req.ToEligibility()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	saved, err := h.consent.ConfirmEligibility(ctx, rec)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to confirm eligibility", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleGetEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	screening, err := domain.ParseScreeningIdentifier(chi.URLParam(r, "screening"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.consent.GetEligibility(ctx, screening)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get eligibility confirmation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) decodeSubmission(w http.ResponseWriter, r *http.Request) (*models.Submission, bool) {
	var req models.SubmitConsentRequest
	if !h.decode(w, r, &req) {
		return nil, false
	}
	sanitizeSubmission(&req)
	sub, err := req.ToSubmission()
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return sub, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

// writeServiceError logs unexpected failures and writes the mapped error.
// Client errors are written as-is.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeNotFound, dErrors.CodeConflict:
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	default:
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func toValidationResponse(res *validation.Result) models.ValidationResponse {
	return models.ValidationResponse{
		Valid:          false,
		Errors:         res.Fields(),
		NonFieldErrors: res.NonField(),
	}
}
