package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
)

const (
	defaultListLimit = 100
	maxBodyBytes     = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to the HTTP status returned for it.
func statusFor(err error) int {
	switch tbrerrors.CodeOf(err) {
	case tbrerrors.ErrCodeDatabase, tbrerrors.ErrCodeInternal:
		return http.StatusInternalServerError
	case tbrerrors.ErrCodeNetwork, tbrerrors.ErrCodeRPC, tbrerrors.ErrCodeTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: string(tbrerrors.CodeOf(err))})
}

// decodeVAARequest reads the request and returns the VAA body bytes.
func decodeVAARequest(w http.ResponseWriter, r *http.Request) (*VAARequest, []byte, error) {
	var req VAARequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return nil, nil, tbrerrors.NewValidationError("", "invalid request body: "+err.Error())
	}
	if req.VAA == "" {
		return nil, nil, tbrerrors.NewValidationError("", "vaa is required")
	}
	raw, err := DecodeHex(req.VAA)
	if err != nil {
		return nil, nil, err
	}
	body, err := BodyBytes(raw, req.Signed)
	if err != nil {
		return nil, nil, err
	}
	return &req, body, nil
}

func parseCompletion(kind string) (resolver.Completion, error) {
	switch kind {
	case "", "auto":
		return resolver.CompletionAuto, nil
	case "native":
		return resolver.CompletionNative, nil
	case "wrapped":
		return resolver.CompletionWrapped, nil
	default:
		return 0, tbrerrors.NewValidationError("", fmt.Sprintf("kind must be native, wrapped or empty, got %q", kind))
	}
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, tbrerrors.NewValidationError("", "limit must be a positive integer")
	}
	return n, nil
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleExecuteVAA handles POST /api/v1/execute-vaa
func (s *Server) handleExecuteVAA(w http.ResponseWriter, r *http.Request) {
	req, body, err := decodeVAARequest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	intent, err := parseCompletion(req.Kind)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ix, err := s.backend.ExecuteVAA(body, intent)
	if err != nil {
		s.metrics.Resolution("execute", "error")
		s.writeError(w, err)
		return
	}
	s.metrics.Resolution("execute", "resolved")
	writeJSON(w, http.StatusOK, QueryResponse{Data: NewInstructionResponse(ix)})
}

// handleResolveVAA handles POST /api/v1/resolve-vaa
func (s *Server) handleResolveVAA(w http.ResponseWriter, r *http.Request) {
	req, body, err := decodeVAARequest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	supplied := make(resolver.OwnerMap, len(req.Accounts))
	for key, owner := range req.Accounts {
		k, err := solana.PublicKeyFromBase58(key)
		if err != nil {
			s.writeError(w, tbrerrors.NewValidationError("", fmt.Sprintf("account %q: %v", key, err)))
			return
		}
		o, err := solana.PublicKeyFromBase58(owner)
		if err != nil {
			s.writeError(w, tbrerrors.NewValidationError("", fmt.Sprintf("owner of %q: %v", key, err)))
			return
		}
		supplied[k] = o
	}

	result, err := s.backend.ResolveVAA(r.Context(), body, supplied)
	if err != nil {
		s.metrics.Resolution("resolve", "error")
		s.writeError(w, err)
		return
	}
	resp := NewResolveResponse(result)
	s.metrics.Resolution("resolve", resp.Status)
	writeJSON(w, http.StatusOK, QueryResponse{Data: resp})
}

// handleParseVAA handles POST /api/v1/parse-vaa
func (s *Server) handleParseVAA(w http.ResponseWriter, r *http.Request) {
	_, body, err := decodeVAARequest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	parsed, err := ParseVAA(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Data: parsed})
}

// handleForeignContracts handles GET /api/v1/foreign-contracts
func (s *Server) handleForeignContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := s.backend.ForeignContracts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]ForeignContractResponse, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, ForeignContractResponse{Chain: c.Chain, Address: hex32(c.Address)})
	}
	writeJSON(w, http.StatusOK, QueryResponse{Data: out})
}

// handleForeignContract handles GET /api/v1/foreign-contracts/{chain}
func (s *Server) handleForeignContract(w http.ResponseWriter, r *http.Request) {
	chain, err := strconv.ParseUint(muxVar(r, "chain"), 10, 16)
	if err != nil {
		s.writeError(w, tbrerrors.NewValidationError("", "chain must be a wormhole chain id"))
		return
	}
	contracts, err := s.backend.ForeignContracts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, c := range contracts {
		if c.Chain == uint16(chain) {
			writeJSON(w, http.StatusOK, QueryResponse{Data: ForeignContractResponse{Chain: c.Chain, Address: hex32(c.Address)}})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("no foreign contract registered for chain %d", chain)})
}

// handleExecutionRequests handles GET /api/v1/execution-requests?limit=<n>
func (s *Server) handleExecutionRequests(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	requests, err := s.backend.ExecutionRequests(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Data: requests})
}

// handleRedemptions handles GET /api/v1/redemptions?limit=<n>
func (s *Server) handleRedemptions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	redemptions, err := s.backend.Redemptions(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Data: redemptions})
}
