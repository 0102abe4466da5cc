package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// StatusFunc reports the host state for /health. A non nil error answers 503.
type StatusFunc func() (interface{}, error)

func Router(status StatusFunc) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body, err := status()
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			body = map[string]string{"error": err.Error()}
		}
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logrus.Errorf("metrics: error encoding health: %s", err)
		}
	}).Methods(http.MethodGet)
	return r
}

// Serve runs the status server until ctx is done.
func Serve(ctx context.Context, addr string, status StatusFunc) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Router(status),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logrus.Infof("metrics: listening on %s", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
