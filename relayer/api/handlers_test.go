package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/internal/fixture"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/metrics"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/state"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/store"
)

// MockBackend implements Backend for testing
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ExecuteVAA(body []byte, intent resolver.Completion) (*resolver.Instruction, error) {
	args := m.Called(body, intent)
	ix, _ := args.Get(0).(*resolver.Instruction)
	return ix, args.Error(1)
}

func (m *MockBackend) ResolveVAA(ctx context.Context, body []byte, supplied resolver.OwnerMap) (resolver.Result, error) {
	args := m.Called(body, supplied)
	res, _ := args.Get(0).(resolver.Result)
	return res, args.Error(1)
}

func (m *MockBackend) ForeignContracts(ctx context.Context) ([]state.ForeignContract, error) {
	args := m.Called()
	out, _ := args.Get(0).([]state.ForeignContract)
	return out, args.Error(1)
}

func (m *MockBackend) ExecutionRequests(ctx context.Context, limit int) ([]store.ExecutionRequest, error) {
	args := m.Called(limit)
	out, _ := args.Get(0).([]store.ExecutionRequest)
	return out, args.Error(1)
}

func (m *MockBackend) Redemptions(ctx context.Context, limit int) ([]store.Redemption, error) {
	args := m.Called(limit)
	out, _ := args.Get(0).([]store.Redemption)
	return out, args.Error(1)
}

func newTestServer(t *testing.T) (*Server, *MockBackend, *prometheus.Registry) {
	backend := &MockBackend{}
	reg := prometheus.NewRegistry()
	s := NewServer(zerolog.New(zerolog.NewTestWriter(t)), 0, backend, metrics.New(reg), reg)
	t.Cleanup(func() { backend.AssertExpectations(t) })
	return s, backend, reg
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHandleHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	t.Run("Health check returns OK", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
	})

	t.Run("Wrong method is rejected", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/health", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandleExecuteVAA(t *testing.T) {
	body := fixture.DevnetBody()
	ix := &resolver.Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts:  solana.AccountMetaSlice{solana.NewAccountMeta(resolver.PayerPlaceholder, true, true)},
		Data:      []byte{1, 2, 3},
	}

	t.Run("returns the call", func(t *testing.T) {
		s, backend, reg := newTestServer(t)
		backend.On("ExecuteVAA", body, resolver.CompletionWrapped).Return(ix, nil)

		w := do(t, s, http.MethodPost, "/api/v1/execute-vaa", VAARequest{VAA: "0x" + hex.EncodeToString(body), Kind: "wrapped"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Data InstructionResponse `json:"data"`
		}
		decode(t, w, &resp)
		assert.Equal(t, solana.SystemProgramID.String(), resp.Data.ProgramID)
		assert.Equal(t, "010203", resp.Data.Data)
		require.Len(t, resp.Data.Accounts, 1)
		assert.True(t, resp.Data.Accounts[0].IsSigner)
		assert.True(t, resp.Data.Accounts[0].IsWritable)
		assert.Equal(t, hex.EncodeToString(ix.MarshalBorsh()), resp.Data.Borsh)

		families, err := reg.Gather()
		require.NoError(t, err)
		assert.NotEmpty(t, families)
	})

	t.Run("maps protocol errors to 400", func(t *testing.T) {
		s, backend, _ := newTestServer(t)
		backend.On("ExecuteVAA", body, resolver.CompletionAuto).
			Return(nil, tbrerrors.NewInvalidTransferTokenChainError(2, "wrong kind"))

		w := do(t, s, http.MethodPost, "/api/v1/execute-vaa", VAARequest{VAA: hex.EncodeToString(body)})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		decode(t, w, &resp)
		assert.Equal(t, string(tbrerrors.ErrCodeInvalidTransferTokenChain), resp.Code)
	})

	t.Run("request validation", func(t *testing.T) {
		tests := []struct {
			name string
			req  VAARequest
		}{
			{"missing vaa", VAARequest{}},
			{"bad hex", VAARequest{VAA: "zz"}},
			{"bad kind", VAARequest{VAA: "00", Kind: "other"}},
			{"bad signed vaa", VAARequest{VAA: "02", Signed: true}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s, _, _ := newTestServer(t)
				w := do(t, s, http.MethodPost, "/api/v1/execute-vaa", tt.req)
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	})
}

func TestHandleResolveVAA(t *testing.T) {
	body := fixture.DevnetBody()
	mint := solana.PublicKey{0x01}

	t.Run("missing accounts", func(t *testing.T) {
		s, backend, _ := newTestServer(t)
		backend.On("ResolveVAA", body, resolver.OwnerMap{}).
			Return(&resolver.Missing{Accounts: []solana.PublicKey{mint}}, nil)

		w := do(t, s, http.MethodPost, "/api/v1/resolve-vaa", VAARequest{VAA: hex.EncodeToString(body)})
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data ResolveResponse `json:"data"`
		}
		decode(t, w, &resp)
		assert.Equal(t, "missing", resp.Data.Status)
		assert.Equal(t, []string{mint.String()}, resp.Data.Missing)
	})

	t.Run("supplied accounts are passed through", func(t *testing.T) {
		s, backend, _ := newTestServer(t)
		supplied := resolver.OwnerMap{mint: solana.TokenProgramID}
		ix := &resolver.Instruction{ProgramID: solana.SystemProgramID}
		backend.On("ResolveVAA", body, supplied).
			Return(&resolver.Resolved{Groups: []resolver.InstructionGroup{{Instructions: []*resolver.Instruction{ix}}}}, nil)

		w := do(t, s, http.MethodPost, "/api/v1/resolve-vaa", VAARequest{
			VAA:      hex.EncodeToString(body),
			Accounts: map[string]string{mint.String(): solana.TokenProgramID.String()},
		})
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data ResolveResponse `json:"data"`
		}
		decode(t, w, &resp)
		assert.Equal(t, "resolved", resp.Data.Status)
		require.Len(t, resp.Data.Groups, 1)
		require.Len(t, resp.Data.Groups[0], 1)
	})

	t.Run("bad account key", func(t *testing.T) {
		s, _, _ := newTestServer(t)
		w := do(t, s, http.MethodPost, "/api/v1/resolve-vaa", VAARequest{
			VAA:      hex.EncodeToString(body),
			Accounts: map[string]string{"not-base58!": solana.TokenProgramID.String()},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleParseVAA(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodPost, "/api/v1/parse-vaa", VAARequest{VAA: hex.EncodeToString(fixture.DevnetBody())})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data ParsedVAA `json:"data"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "0x"+fixture.DevnetHash, resp.Data.Hash)
	assert.Equal(t, fixture.DevnetEmitterChain, resp.Data.EmitterChain)
	assert.Equal(t, fixture.DevnetSequence, resp.Data.Sequence)
	assert.Equal(t, "transfer_with_message", resp.Data.PayloadType)
	require.NotNil(t, resp.Data.TransferWithMessage)
	assert.Equal(t, fixture.DevnetRecipient, resp.Data.TransferWithMessage.RelayRecipient)

	w = do(t, s, http.MethodPost, "/api/v1/parse-vaa", VAARequest{VAA: "0011"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp ErrorResponse
	decode(t, w, &errResp)
	assert.Equal(t, string(tbrerrors.ErrCodeTruncatedInput), errResp.Code)
}

func TestHandleForeignContracts(t *testing.T) {
	contracts := []state.ForeignContract{
		{Chain: 2, Address: [32]byte{0x22}},
		{Chain: 6, Address: [32]byte{0x66}},
	}

	t.Run("list", func(t *testing.T) {
		s, backend, _ := newTestServer(t)
		backend.On("ForeignContracts").Return(contracts, nil)

		w := do(t, s, http.MethodGet, "/api/v1/foreign-contracts", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data []ForeignContractResponse `json:"data"`
		}
		decode(t, w, &resp)
		require.Len(t, resp.Data, 2)
		assert.Equal(t, uint16(6), resp.Data[1].Chain)
		assert.True(t, strings.HasPrefix(resp.Data[1].Address, "66"))
	})

	t.Run("by chain", func(t *testing.T) {
		s, backend, _ := newTestServer(t)
		backend.On("ForeignContracts").Return(contracts, nil)

		w := do(t, s, http.MethodGet, "/api/v1/foreign-contracts/2", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = do(t, s, http.MethodGet, "/api/v1/foreign-contracts/3", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("database failure", func(t *testing.T) {
		s, backend, _ := newTestServer(t)
		backend.On("ForeignContracts").Return(nil, tbrerrors.NewDatabaseError("", "locked", nil))

		w := do(t, s, http.MethodGet, "/api/v1/foreign-contracts", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandleLists(t *testing.T) {
	t.Run("execution requests with limit", func(t *testing.T) {
		s, backend, _ := newTestServer(t)
		backend.On("ExecutionRequests", 5).Return([]store.ExecutionRequest{{Kind: "ERV1", Sequence: 9}}, nil)

		w := do(t, s, http.MethodGet, "/api/v1/execution-requests?limit=5", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"ERV1"`)
	})

	t.Run("redemptions default limit", func(t *testing.T) {
		s, backend, _ := newTestServer(t)
		backend.On("Redemptions", defaultListLimit).Return([]store.Redemption{}, nil)

		w := do(t, s, http.MethodGet, "/api/v1/redemptions", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid limit", func(t *testing.T) {
		s, _, _ := newTestServer(t)
		for _, limit := range []string{"0", "-1", "ten"} {
			w := do(t, s, http.MethodGet, "/api/v1/redemptions?limit="+limit, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, limit)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
