// Package handlers contains the HTTP handlers of ecorisk-web.
//
// Every request builds its own render.Board and controller.Controller, so the
// page state never leaks between users:
//   - GET  /             form page (?sample=1 pre-fills the sample site)
//   - POST /predict      form submission, answered with the page
//   - POST /api/predict  JSON submission, answered with JSON
//   - GET  /api/health   cached prediction service health
package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ecorisk/internal/controller"
	"ecorisk/internal/core"
	"ecorisk/internal/external"
	"ecorisk/internal/prediction"
	"ecorisk/internal/render"
	"ecorisk/internal/types"
)

// maxFormBytes bounds a form submission.
const maxFormBytes = 64 << 10

// PageRenderer draws a Board as a complete page.
type PageRenderer interface {
	Render(w io.Writer, b *render.Board) error
}

// PredictHandler serves the prediction page and API.
type PredictHandler struct {
	predictor external.Predictor
	pages     PageRenderer
	health    *HealthCache
	validator *prediction.Validator
	recorder  controller.OutcomeRecorder
	logger    *slog.Logger
}

// NewPredictHandler wires the handler. health and recorder may be nil.
func NewPredictHandler(
	predictor external.Predictor,
	pages PageRenderer,
	health *HealthCache,
	recorder controller.OutcomeRecorder,
	logger *slog.Logger,
) *PredictHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictHandler{
		predictor: predictor,
		pages:     pages,
		health:    health,
		validator: prediction.NewValidator(),
		recorder:  recorder,
		logger:    logger,
	}
}

// RegisterRoutes mounts the handler. It satisfies core.RouteRegistrar.
func (h *PredictHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleIndex)
	r.Post("/predict", h.HandlePredictForm)
	r.Post("/api/predict", h.HandlePredictAPI)
	r.Get("/api/health", h.HandleHealth)
}

func (h *PredictHandler) newController(board *render.Board, logger *slog.Logger) *controller.Controller {
	opts := []controller.Option{
		controller.WithLogger(logger),
		controller.WithValidator(h.validator),
	}
	if h.recorder != nil {
		opts = append(opts, controller.WithOutcomeRecorder(h.recorder))
	}
	return controller.New(h.predictor, board, opts...)
}

func (h *PredictHandler) requestLogger(r *http.Request) *slog.Logger {
	return types.LoggerFromContext(r.Context(), h.logger)
}

// HandleIndex handles GET /.
func (h *PredictHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	board := render.NewBoard()
	if r.URL.Query().Get("sample") == "1" {
		h.newController(board, h.requestLogger(r)).FillSample()
	}
	h.writePage(w, r, http.StatusOK, board)
}

// HandlePredictForm handles POST /predict. Validation and upstream failures
// are drawn in the error panel; the status code follows the error class.
func (h *PredictHandler) HandlePredictForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationFailed,
			"could not read the submitted form",
			err,
		))
		return
	}

	board := render.NewBoard()
	_, err := h.newController(board, h.requestLogger(r)).Submit(r.Context(), r.PostForm)
	h.writePage(w, r, statusFor(err), board)
}

// HandlePredictAPI handles POST /api/predict. The body is a prediction
// request with the same field names the prediction service takes.
func (h *PredictHandler) HandlePredictAPI(w http.ResponseWriter, r *http.Request) {
	var req prediction.Request
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	board := render.NewBoard()
	resp, err := h.newController(board, h.requestLogger(r)).SubmitRequest(r.Context(), req)
	if err != nil {
		core.Error(w, r, apiError(err))
		return
	}
	core.JSON(w, r, http.StatusOK, resp)
}

// HandleHealth handles GET /api/health.
func (h *PredictHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	var (
		status *prediction.HealthStatus
		err    error
	)
	if h.health != nil {
		status, err = h.health.Get(r.Context())
	} else {
		status, err = h.predictor.Health(r.Context())
	}
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, status)
}

// writePage renders into a buffer first so that a template failure can still
// be answered with the error envelope.
func (h *PredictHandler) writePage(w http.ResponseWriter, r *http.Request, status int, board *render.Board) {
	if h.health != nil {
		if hs, ok := h.health.Peek(); ok && !hs.ModelsLoaded {
			board.SetNotice(controller.ModelsNotLoadedWarning)
		}
	}

	var buf bytes.Buffer
	if err := h.pages.Render(&buf, board); err != nil {
		h.requestLogger(r).ErrorContext(r.Context(), "failed to render page", "error", err)
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// apiError gives upstream failures the same message the page shows, keeping
// the code so clients can tell the classes apart.
func apiError(err error) error {
	var appErr *types.AppError
	if !errors.As(err, &appErr) || !appErr.Code.IsUpstream() {
		return err
	}
	if appErr.Code == types.ErrCodeUpstreamPredictionFailed {
		return appErr
	}
	return types.NewAppErrorWithDetails(appErr.Code, external.NetworkErrorMessage, appErr.Err, appErr.Details)
}

// statusFor maps a submission error to the page status code.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
