package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/findata-cli/internal/manager"
	"github.com/sells-group/findata-cli/internal/model"
	"github.com/sells-group/findata-cli/internal/resilience"
	"github.com/sells-group/findata-cli/internal/source"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve financials over HTTP",
	Long:  "Runs a small HTTP API exposing cached financials to report tooling.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		m, st, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		addr := serveAddr
		if addr == "" {
			addr = cfg.Serve.Addr
		}
		srv := &http.Server{
			Addr:    addr,
			Handler: newServeHandler(m),
		}

		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe() }()
		zap.L().Info("listening", zap.String("addr", addr))

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// financialsProvider is what the HTTP handlers need from the manager.
type financialsProvider interface {
	GetFinancials(ctx context.Context, req manager.Request) (*model.FinancialData, error)
}

func newServeHandler(p financialsProvider) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/companies/{company}/financials", func(w http.ResponseWriter, req *http.Request) {
		filingType := req.URL.Query().Get("type")
		if filingType == "" {
			filingType = string(model.FilingAnnual)
		}
		data, err := p.GetFinancials(req.Context(), manager.Request{
			CompanyID:  chi.URLParam(req, "company"),
			FilingType: model.FilingType(filingType),
			Period:     req.URL.Query().Get("period"),
			Refresh:    req.URL.Query().Get("refresh") == "true",
		})
		if err != nil {
			switch {
			case source.IsUnknownCompany(err):
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown company"})
			case resilience.IsTransient(err):
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "source unavailable"})
			default:
				zap.L().Error("financials request failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			}
			return
		}
		writeJSON(w, http.StatusOK, data)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("response encode failed", zap.Error(err))
	}
}
