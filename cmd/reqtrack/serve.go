package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured request graph's status over HTTP",
	Long: `Starts a small HTTP server exposing /healthz and /status for the
configured storage backend, for use by process supervisors or
dashboards that poll the tracker out-of-process.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
}

type statusResponse struct {
	Storage            string `json:"storage"`
	Nodes              int    `json:"nodes"`
	Edges              int    `json:"edges"`
	InvalidRequests    int    `json:"invalid_requests"`
	IncompleteRequests int    `json:"incomplete_requests"`
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		t, s, err := openTracker(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer s.Close()

		resp := statusResponse{
			Storage:            cfg.Storage.Type,
			Nodes:              t.Graph().Graph().Len(),
			Edges:              len(t.Graph().Graph().Edges()),
			InvalidRequests:    len(t.GetInvalidRequests()),
			IncompleteRequests: len(t.Graph().IncompleteRequestIDs()),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	fmt.Printf("serving status on %s\n", serveAddr)
	return http.ListenAndServe(serveAddr, mux)
}
