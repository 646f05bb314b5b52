package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes for the API server
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// API v1 endpoints
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/execute-vaa", s.handleExecuteVAA).Methods(http.MethodPost)
	v1.HandleFunc("/resolve-vaa", s.handleResolveVAA).Methods(http.MethodPost)
	v1.HandleFunc("/parse-vaa", s.handleParseVAA).Methods(http.MethodPost)
	v1.HandleFunc("/foreign-contracts", s.handleForeignContracts).Methods(http.MethodGet)
	v1.HandleFunc("/foreign-contracts/{chain:[0-9]+}", s.handleForeignContract).Methods(http.MethodGet)
	v1.HandleFunc("/execution-requests", s.handleExecutionRequests).Methods(http.MethodGet)
	v1.HandleFunc("/redemptions", s.handleRedemptions).Methods(http.MethodGet)

	return r
}

func muxVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}
