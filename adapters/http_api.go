package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"airbnk-to-mqtt/application"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const HTTPAPIShutdownTimeout = 5 * time.Second

type HTTPAPIParams struct {
	Addr    string
	Service application.LockService

	Log zerolog.Logger
}

// HTTPAPI exposes the lock service over a small local REST surface.
type HTTPAPI struct {
	params HTTPAPIParams

	log zerolog.Logger
}

func NewHTTPAPI(params HTTPAPIParams) (*HTTPAPI, error) {
	if params.Service == nil {
		return nil, errors.New("Service is nil")
	}
	return &HTTPAPI{params: params, log: params.Log}, nil
}

func (h *HTTPAPI) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/devices", h.listDevices)
		r.Get("/devices/{sn}", h.getDevice)
		r.Post("/devices/{sn}/open", h.operate(true))
		r.Post("/devices/{sn}/close", h.operate(false))
		r.Post("/refresh", h.refresh)
	})

	return r
}

func (h *HTTPAPI) listDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.params.Service.Devices())
}

func (h *HTTPAPI) getDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := h.params.Service.Device(chi.URLParam(r, "sn"))
	if !ok {
		writeError(w, http.StatusNotFound, application.ErrUnknownDevice)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (h *HTTPAPI) operate(open bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome := h.params.Service.Operate(r.Context(), chi.URLParam(r, "sn"), open)

		status := http.StatusOK
		switch outcome.Kind {
		case application.OutcomeOk:
		case application.OutcomeUnknownDevice:
			status = http.StatusNotFound
		default:
			status = http.StatusBadGateway
		}
		writeJSON(w, status, application.NewOutcomeReport(outcome))
	}
}

func (h *HTTPAPI) refresh(w http.ResponseWriter, r *http.Request) {
	devices, err := h.params.Service.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *HTTPAPI) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (h *HTTPAPI) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              h.params.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.log.Info().Str("addr", h.params.Addr).Msg("http api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), HTTPAPIShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
