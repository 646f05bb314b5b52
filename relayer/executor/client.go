package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/metrics"
)

// maxResponseSize bounds quote responses.
const maxResponseSize = 1 << 20

// QuoteRequest is the body of POST /v0/quote.
type QuoteRequest struct {
	SrcChain          uint16        `json:"srcChain"`
	DstChain          uint16        `json:"dstChain"`
	RelayInstructions hexutil.Bytes `json:"relayInstructions"`
}

// QuoteResponse is the executor's answer. EstimatedCost is in the source
// chain's smallest unit.
type QuoteResponse struct {
	SignedQuote   hexutil.Bytes `json:"signedQuote"`
	EstimatedCost *big.Int      `json:"-"`
}

type quoteResponseJSON struct {
	SignedQuote   hexutil.Bytes   `json:"signedQuote"`
	EstimatedCost json.RawMessage `json:"estimatedCost"`
}

// Quote parses the signed quote of the response.
func (r *QuoteResponse) Quote() (*SignedQuote, error) {
	return ParseSignedQuote(r.SignedQuote)
}

// QuoteClient fetches quotes from an executor API.
type QuoteClient struct {
	baseURL string
	client  *http.Client
	retry   *tbrerrors.RetryConfig
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewQuoteClient creates a client for the executor at baseURL.
func NewQuoteClient(baseURL string, timeout time.Duration, retry *tbrerrors.RetryConfig, logger zerolog.Logger) *QuoteClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if retry == nil {
		retry = tbrerrors.DefaultRetryConfig()
	}
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &QuoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout, Transport: transport},
		retry:   retry,
		logger:  logger.With().Str("component", "quote_client").Logger(),
	}
}

// WithMetrics records quote latency on m.
func (c *QuoteClient) WithMetrics(m *metrics.Metrics) *QuoteClient {
	c.metrics = m
	return c
}

// FetchQuote requests a signed quote, retrying network failures, 429 and
// 5xx responses.
func (c *QuoteClient) FetchQuote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, tbrerrors.Wrap(err, "failed to marshal quote request")
	}

	var out *QuoteResponse
	start := time.Now()
	err = tbrerrors.RetryWithConfig(ctx, func() error {
		resp, err := c.post(ctx, "/v0/quote", body)
		if err != nil {
			return err
		}
		out = resp
		return nil
	}, c.retry)
	c.metrics.QuoteLatency(time.Since(start))
	if err != nil {
		c.logger.Warn().Err(err).
			Uint16("src_chain", req.SrcChain).
			Uint16("dst_chain", req.DstChain).
			Msg("quote request failed")
		return nil, err
	}

	c.logger.Debug().
		Uint16("src_chain", req.SrcChain).
		Uint16("dst_chain", req.DstChain).
		Str("estimated_cost", out.EstimatedCost.String()).
		Dur("elapsed", time.Since(start)).
		Msg("quote received")
	return out, nil
}

func (c *QuoteClient) post(ctx context.Context, path string, body []byte) (*QuoteResponse, error) {
	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, tbrerrors.NewValidationError("", "failed to create request: "+err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, tbrerrors.NewNetworkError("", "quote request to "+url+" failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, tbrerrors.NewNetworkError("", "failed to read quote response", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, tbrerrors.NewNetworkError("", fmt.Sprintf("executor returned %d: %s", resp.StatusCode, raw), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, tbrerrors.NewValidationError("", fmt.Sprintf("executor returned %d: %s", resp.StatusCode, raw))
	}
	return decodeQuoteResponse(raw)
}

func decodeQuoteResponse(raw []byte) (*QuoteResponse, error) {
	var wire quoteResponseJSON
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, tbrerrors.NewMalformedMessageError("invalid quote response", err)
	}
	if len(wire.SignedQuote) == 0 {
		return nil, tbrerrors.NewMalformedMessageError("quote response has no signedQuote", nil)
	}
	cost, err := parseCost(wire.EstimatedCost)
	if err != nil {
		return nil, err
	}
	return &QuoteResponse{SignedQuote: wire.SignedQuote, EstimatedCost: cost}, nil
}

// parseCost accepts the estimated cost as a JSON number or a decimal or
// hex string.
func parseCost(raw json.RawMessage) (*big.Int, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return nil, tbrerrors.NewMalformedMessageError("quote response has no estimatedCost", nil)
	}
	cost, ok := new(big.Int).SetString(s, 0)
	if !ok || cost.Sign() < 0 {
		return nil, tbrerrors.NewMalformedMessageError("invalid estimatedCost "+s, nil)
	}
	return cost, nil
}
