package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "pcrcli/internal/errors"
	"pcrcli/internal/infrastructure"
	"pcrcli/internal/websocket"
	"pcrcli/pkg/contracts/domain"
)

// AnalysisService is the slice of the format registry the handler needs.
type AnalysisService interface {
	Analyze(ctx context.Context, path string) (*domain.ExperimentRecord, error)
	Tags() []domain.VendorFormat
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	Path string `json:"path" validate:"required"`
}

// AnalyzeResponse wraps a successful analysis.
type AnalyzeResponse struct {
	Success bool                     `json:"success"`
	Record  *domain.ExperimentRecord `json:"record"`
}

// AnalyzeHandler exposes file analysis over HTTP.
type AnalyzeHandler struct {
	service  AnalysisService
	hub      *websocket.Hub
	tracer   trace.Tracer
	metrics  *infrastructure.AnalysisMetrics
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAnalyzeHandler creates a new analyze handler. hub, tracer and metrics
// may be nil; the handler degrades to plain request/response.
func NewAnalyzeHandler(service AnalysisService, hub *websocket.Hub, tracer trace.Tracer, metrics *infrastructure.AnalysisMetrics, logger *slog.Logger) *AnalyzeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeHandler{
		service:  service,
		hub:      hub,
		tracer:   tracer,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger.With(slog.String("handler", "analyze")),
	}
}

// Routes returns the analysis routes.
func (h *AnalyzeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/analyze", h.Analyze)
	r.Get("/formats", h.Formats)
	return r
}

// Analyze handles POST /api/analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.renderError(w, r, apierrors.ErrValidation("path", "path is required"))
		return
	}

	if h.tracer != nil {
		var span trace.Span
		ctx, span = h.tracer.Start(ctx, "analyze_file",
			trace.WithAttributes(attribute.String("file.path", req.Path)))
		defer span.End()
	}

	h.broadcast(websocket.Event{
		Type: websocket.TypeAnalyzeStarted,
		Path: req.Path,
	})

	start := time.Now()
	record, err := h.service.Analyze(ctx, req.Path)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		apiErr := apierrors.FromAnalysis(err)
		h.recordOutcome(ctx, record, apiErr.ErrorCode, elapsed)
		h.spanError(ctx, err)
		h.broadcast(websocket.Event{
			Type:  websocket.TypeAnalyzeFailed,
			Path:  req.Path,
			Error: apiErr.Message,
		})
		h.logger.ErrorContext(ctx, "analysis failed",
			slog.String("path", req.Path),
			slog.String("code", apiErr.ErrorCode),
			slog.String("error", err.Error()))
		h.renderError(w, r, apiErr)
		return
	}

	h.recordOutcome(ctx, record, "success", elapsed)
	h.broadcast(websocket.Event{
		Type:   websocket.TypeAnalyzeComplete,
		Path:   req.Path,
		Format: record.Format,
		Wells:  len(record.Wells),
	})
	h.logger.InfoContext(ctx, "analysis complete",
		slog.String("path", req.Path),
		slog.String("format", string(record.Format)),
		slog.Int("wells", len(record.Wells)))

	render.Status(r, http.StatusOK)
	render.JSON(w, r, AnalyzeResponse{Success: true, Record: record})
}

// Formats handles GET /api/formats, listing registered formats in detector
// precedence order.
func (h *AnalyzeHandler) Formats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"formats": h.service.Tags(),
	})
}

func (h *AnalyzeHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if err := render.Render(w, r, apierrors.NewErrorResponse(apiErr)); err != nil {
		apierrors.WriteError(w, apiErr)
	}
}

func (h *AnalyzeHandler) broadcast(event websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(event)
	}
}

func (h *AnalyzeHandler) recordOutcome(ctx context.Context, record *domain.ExperimentRecord, outcome string, seconds float64) {
	format := "unknown"
	if record != nil {
		format = string(record.Format)
	}
	h.metrics.RecordAnalysis(ctx, format, outcome, seconds)
}

func (h *AnalyzeHandler) spanError(ctx context.Context, err error) {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
