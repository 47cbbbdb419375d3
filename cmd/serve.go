package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lienwise/bidengine/internal/engine"
	"github.com/lienwise/bidengine/internal/ingest"
	"github.com/lienwise/bidengine/internal/model"
	"github.com/lienwise/bidengine/internal/retry"
	"github.com/lienwise/bidengine/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the evaluation and record-retrieval HTTP API",
	Long:  "Exposes POST /v1/evaluate plus record listing for the reporting/UI layer and the manual-approval queue.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := newEngine()
		if err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(eng, st, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			zap.L().Info("http server listening", zap.Int("port", cfg.Server.Port))
			errc <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// newRouter wires the API routes.
func newRouter(eng *engine.Engine, st store.Store, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "engine": engine.Version})
	})

	r.Post("/v1/evaluate", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, 1<<20))
		if err != nil {
			writeError(w, http.StatusBadRequest, "read body")
			return
		}

		sheet, err := ingest.Decode(body)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		record, err := eng.Evaluate(req.Context(), sheet)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		id, err := retry.Value(req.Context(), retry.DefaultConfig(), "save decision",
			func(ctx context.Context) (string, error) {
				return st.SaveDecision(ctx, record)
			})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		record.ID = id

		writeJSON(w, http.StatusOK, record)
	})

	r.Get("/v1/records", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		filter := store.DecisionFilter{
			ParcelID:       q.Get("parcel_id"),
			Recommendation: model.Recommendation(q.Get("recommendation")),
			Limit:          50,
		}
		if v := q.Get("needs_approval"); v != "" {
			needs := v == "true" || v == "1"
			filter.NeedsApproval = &needs
		}

		records, err := st.ListDecisions(req.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, records)
	})

	r.Get("/v1/records/{id}", func(w http.ResponseWriter, req *http.Request) {
		record, err := st.GetDecision(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, record)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
