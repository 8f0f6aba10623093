package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	cli "github.com/urfave/cli/v2"

	"github.com/bigl34/inflow-cli/pkg/serials"
)

// serveCmd exposes a small HTTP facade over the serial index: a health
// endpoint, Prometheus metrics, and serial lookups backed by the cached
// index.
var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run an HTTP facade with /health, /metrics and /serials/{serial}",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Value:   ":8080",
			EnvVars: []string{"INFLOW_LISTEN"},
		},
		&cli.StringFlag{
			Name:  "source",
			Value: string(serials.OriginProducts),
			Usage: "index source for lookups: orders or products",
		},
	},
	Action: func(cctx *cli.Context) error {
		builder := newBuilder(cctx)
		origin := serials.Origin(cctx.String("source"))
		if origin != serials.OriginOrders && origin != serials.OriginProducts {
			return fmt.Errorf("unknown source %q (want orders or products)", cctx.String("source"))
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "OK")
		})
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/serials/", serialLookupHandler(builder, origin))

		addr := cctx.String("listen")
		log.Info().
			Str("addr", addr).
			Str("source", string(origin)).
			Msg("Starting serial lookup server")

		server := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		return server.ListenAndServe()
	},
}

func serialLookupHandler(builder *serials.Builder, origin serials.Origin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serial := strings.TrimPrefix(r.URL.Path, "/serials/")
		if serial == "" {
			http.Error(w, "missing serial", http.StatusBadRequest)
			return
		}

		result, err := builder.Search(r.Context(), serial, origin, serials.BuildOptions{})
		if err != nil {
			http.Error(w, fmt.Sprintf("serial lookup failed: %v", err), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if !result.Found {
			w.WriteHeader(http.StatusNotFound)
		}
		writeJSON(w, result)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}
