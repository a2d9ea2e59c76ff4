package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/dex"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/health"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/pricing"
)

var (
	apiWETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	apiUSDC = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

// downCaller fails every chain call, as if the RPC endpoint were unreachable.
type downCaller struct{}

func (downCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, errors.New("connection refused")
}

// unitPrices prices every token at 1 USD.
type unitPrices struct{}

func (unitPrices) PriceOf(_ context.Context, token, quoteToken common.Address) (model.Price, error) {
	return model.Price{Token: token.Hex(), QuoteToken: quoteToken.Hex(), Value: 1, Source: model.PriceSourcePool}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	registry, err := dex.NewTokenRegistry(downCaller{}, map[string]string{
		"WETH": apiWETH.Hex(),
		"USDC": apiUSDC.Hex(),
	}, zap.NewNop())
	require.NoError(t, err)
	registry.Seed(model.TokenMeta{Address: apiWETH.Hex(), Decimals: 18, Symbol: "WETH"})
	registry.Seed(model.TokenMeta{Address: apiUSDC.Hex(), Decimals: 6, Symbol: "USDC"})

	engine := pricing.NewEngine(pricing.Config{
		Factory:      common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984"),
		Quoter:       common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e"),
		PrimaryQuote: apiUSDC,
		FeeTiers:     []uint32{500, 3000},
	}, downCaller{}, registry, nil, zap.NewNop())

	analyzer := health.NewAnalyzer(unitPrices{}, health.DefaultConfig(apiUSDC), zap.NewNop())

	return NewServer(engine, analyzer, zap.NewNop())
}

func doRequest(t *testing.T, server *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthzEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestQuoteEndpoint(t *testing.T) {
	server := newTestServer(t)

	payload := `{"amount_in":"1000","reserve_in":"1000000","reserve_out":"2000000","fee_bps":30,"slippage_bps":50}`
	rec := doRequest(t, server, http.MethodPost, "/v1/quote", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote model.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	require.Equal(t, "1992", quote.AmountOut)
	require.Equal(t, "1982", quote.MinimumReceived)
	require.Equal(t, uint32(19), quote.PriceImpactBps)
}

func TestQuoteEndpointRejectsBadInput(t *testing.T) {
	server := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"amount_in":`},
		{"non-numeric amount", `{"amount_in":"abc","reserve_in":"1000000","reserve_out":"2000000","fee_bps":30}`},
		{"zero reserve", `{"amount_in":"1000","reserve_in":"0","reserve_out":"2000000","fee_bps":30}`},
		{"fee consumes everything", `{"amount_in":"1000","reserve_in":"1000000","reserve_out":"2000000","fee_bps":10000}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, server, http.MethodPost, "/v1/quote", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotEmpty(t, resp.Error)
		})
	}
}

func TestPriceEndpoint(t *testing.T) {
	server := newTestServer(t)

	// Missing params.
	rec := doRequest(t, server, http.MethodGet, "/v1/price?token=WETH", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown symbol.
	rec = doRequest(t, server, http.MethodGet, "/v1/price?token=DOGE&quote=USDC", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Identity pair resolves without touching the chain.
	rec = doRequest(t, server, http.MethodGet, "/v1/price?token=USDC&quote=USDC", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var price model.Price
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &price))
	require.Equal(t, 1.0, price.Value)

	// With the upstream down every strategy fails; the chain being exhausted
	// is a 404, not a 5xx.
	rec = doRequest(t, server, http.MethodGet, "/v1/price?token=WETH&quote=USDC", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "price data unavailable", resp.Error)
}

func TestPoolsEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/v1/pools", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/v1/pools?token=DOGE", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Lookup failures degrade to refs without pool addresses.
	rec = doRequest(t, server, http.MethodGet, "/v1/pools?token=WETH", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var refs []model.PoolRef
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refs))
	require.Len(t, refs, 2)
	for _, ref := range refs {
		require.Empty(t, ref.PoolAddress)
		require.False(t, ref.Initialized)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/v1/positions/analyze", `{"items":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	sqrtPrice, err := pricing.TickToSqrtPriceX96(0)
	require.NoError(t, err)

	req := AnalyzeRequest{Items: []health.Item{
		{
			Position: model.Position{TickLower: 1000, TickUpper: -1000, Liquidity: "1"},
			Pool:     model.ConcentratedPool{SqrtPriceX96: sqrtPrice.String()},
		},
		{
			Position: model.Position{TickLower: -1000, TickUpper: 1000, Liquidity: "1000000"},
			Pool: model.ConcentratedPool{
				Token0:         apiWETH.Hex(),
				Token1:         apiUSDC.Hex(),
				SqrtPriceX96:   sqrtPrice.String(),
				Tick:           0,
				Token0Decimals: 18,
				Token1Decimals: 6,
			},
		},
	}}
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(req))

	rec = doRequest(t, server, http.MethodPost, "/v1/positions/analyze", buf.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var results []model.HealthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)

	require.Nil(t, results[0].Report)
	require.NotEmpty(t, results[0].Error)

	require.NotNil(t, results[1].Report)
	require.True(t, results[1].Report.InRange)
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}
