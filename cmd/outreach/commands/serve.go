package commands

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/outreach/internal/config"
	"github.com/jmylchreest/outreach/internal/logger"
	"github.com/jmylchreest/outreach/internal/output"
	"github.com/jmylchreest/outreach/pkg/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generation API over HTTP",
	Long: `Serve a small HTTP API.

Endpoints:
  POST /api/generate   {"url": "...", "linkedin_email": "...", "linkedin_password": "...",
                        "llm_provider": "...", "api_key": "..."}
  GET  /healthz

Every request opens its own browser session. At most server.max_concurrent
requests run at once; the rest wait in line.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Int("max-concurrent", 4, "maximum concurrent generate requests")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.max_concurrent", serveCmd.Flags().Lookup("max-concurrent"))
}

func runServe(_ *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:              settings.Server.Addr,
		Handler:           newServer(settings, buildPipeline).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", settings.Server.Addr, "max_concurrent", settings.Server.MaxConcurrent)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}

// generateRequest is the body of POST /api/generate.
type generateRequest struct {
	URL              string `json:"url"`
	LinkedInEmail    string `json:"linkedin_email,omitempty"`
	LinkedInPassword string `json:"linkedin_password,omitempty"`
	LLMProvider      string `json:"llm_provider,omitempty"`
	APIKey           string `json:"api_key,omitempty"`
}

type server struct {
	settings config.Settings
	build    builder
}

func newServer(s config.Settings, build builder) *server {
	return &server{settings: s, build: build}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Throttle(s.settings.Server.MaxConcurrent))
		r.Post("/api/generate", s.handleGenerate)
	})
	return r
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	log := logger.With("request_id", middleware.GetReqID(r.Context()))

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOutcome(w, badRequest("Invalid request body", ""))
		return
	}
	if req.URL == "" {
		writeOutcome(w, badRequest("url is required", ""))
		return
	}

	settings, err := s.settings.WithOverrides(config.Overrides{
		Provider:      req.LLMProvider,
		APIKey:        req.APIKey,
		LoginEmail:    req.LinkedInEmail,
		LoginPassword: req.LinkedInPassword,
	})
	if err != nil {
		writeOutcome(w, badRequest(err.Error(), req.URL))
		return
	}

	log.Info("generate request", "url", req.URL, "provider", settings.Provider.Name)
	out := generate(r.Context(), settings, req.URL, s.build)
	if !out.OK() {
		log.Warn("generate failed", "url", req.URL, "kind", out.Failure.Kind, "error", out.Failure.Err)
	}
	writeOutcome(w, out)
}

func badRequest(msg, url string) *pipeline.Outcome {
	return &pipeline.Outcome{Failure: &pipeline.Failure{Kind: pipeline.KindInvalidTarget, Message: msg, URL: url}}
}

// statusFor maps an outcome to its HTTP status.
func statusFor(out *pipeline.Outcome) int {
	if out.OK() {
		return http.StatusOK
	}
	switch out.Failure.Kind {
	case pipeline.KindInvalidTarget:
		return http.StatusBadRequest
	case pipeline.KindNotConfigured:
		return http.StatusServiceUnavailable
	case pipeline.KindAcquisitionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeOutcome(w http.ResponseWriter, out *pipeline.Outcome) {
	if !out.OK() && out.Failure.RetryAfter > 0 {
		secs := int(math.Ceil(out.Failure.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeJSON(w, statusFor(out), out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	jw, err := output.NewWriter(w, output.FormatJSON, output.WithPretty(false))
	if err != nil {
		return
	}
	if err := jw.Write(v); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}
