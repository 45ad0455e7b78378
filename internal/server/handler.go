package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/potooio/synchook/internal/protocol"
	"github.com/potooio/synchook/internal/types"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 4 << 20

// Handler serves the hook endpoints over HTTP.
type Handler struct {
	dispatcher   *protocol.Dispatcher
	maxBodyBytes int64
	logger       *zap.Logger
	ready        atomic.Bool
}

// NewHandler creates a handler. A non-positive maxBodyBytes uses DefaultMaxBodyBytes.
func NewHandler(dispatcher *protocol.Dispatcher, maxBodyBytes int64, logger *zap.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		dispatcher:   dispatcher,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.Named("http"),
	}
}

// SetReady controls the /readyz answer.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Router builds the route tree. /metrics is mounted only when withMetrics is set.
func (h *Handler) Router(withMetrics bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":    string(types.KindUnsupportedOperation),
			"endpoint": r.URL.Path,
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, protocol.ErrorBody{
			Error:   types.KindUnsupportedOperation,
			Message: r.Method + " is not allowed on " + r.URL.Path,
		})
	})

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Get("/hooks", h.handleHooks)
	if withMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Post("/{hook}/{operation}", h.handleHook)
	return r
}

// MetricsRouter serves only /metrics, for a separate metrics listener.
func MetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (h *Handler) handleHook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	hookName := chi.URLParam(r, "hook")
	opName := chi.URLParam(r, "operation")
	op := hookName + "/" + opName

	hookLabel, opLabel := hookName, opName
	if h.dispatcher.Registry().ForName(hookName) == nil {
		hookLabel = unknownLabel
	}
	if _, ok := protocol.ParseOperation(opName); !ok {
		opLabel = unknownLabel
	}
	defer func() {
		requestDuration.WithLabelValues(hookLabel, opLabel).Observe(time.Since(start).Seconds())
	}()

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		requestsTotal.WithLabelValues(hookLabel, opLabel, string(types.KindMalformedRequest)).Inc()
		writeJSON(w, http.StatusUnsupportedMediaType, protocol.ErrorBody{
			Error:     types.KindMalformedRequest,
			Operation: op,
			Message:   "Content-Type must be application/json",
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		requestsTotal.WithLabelValues(hookLabel, opLabel, string(types.KindMalformedRequest)).Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, protocol.ErrorBody{
				Error:     types.KindMalformedRequest,
				Operation: op,
				Message:   "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
			})
			return
		}
		h.logger.Warn("Failed to read request body", zap.String("op", op), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, protocol.ErrorBody{
			Error:     types.KindMalformedRequest,
			Operation: op,
			Message:   "failed to read body",
		})
		return
	}

	resp, err := h.dispatcher.Dispatch(r.Context(), hookName, protocol.Operation(opName), body)
	if err != nil {
		kind := types.KindOf(err)
		requestsTotal.WithLabelValues(hookLabel, opLabel, string(kind)).Inc()
		writeJSON(w, StatusFor(kind), protocol.NewErrorBody(err))
		return
	}

	requestsTotal.WithLabelValues(hookLabel, opLabel, "success").Inc()
	if sync, ok := resp.(*types.SyncResponse); ok {
		desiredChildren.WithLabelValues(hookLabel).Observe(float64(len(sync.Children)))
	}
	h.logger.Debug("Served hook request",
		zap.String("op", op),
		zap.String("requestID", middleware.GetReqID(r.Context())),
		zap.Duration("duration", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.DescribeAll(h.dispatcher.Registry()))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind types.ErrorKind) int {
	switch kind {
	case types.KindMalformedRequest:
		return http.StatusBadRequest
	case types.KindUnsupportedOperation:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
