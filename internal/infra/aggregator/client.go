package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/fleshka4/swap-widget/internal/apperrors"
	"github.com/fleshka4/swap-widget/internal/swap"
)

const (
	routePath     = "route/encode"
	defaultBurst  = 5
	maxErrorBytes = 512
)

// Config configures the aggregator client.
type Config struct {
	BaseURL           string
	Chain             string
	ClientID          string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client asks a KyberSwap-compatible aggregator for an encoded route.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  logrus.FieldLogger
}

// NewClient creates an aggregator client. A non-positive RequestsPerSecond
// disables throttling.
func NewClient(cfg Config, httpClient *http.Client, logger logrus.FieldLogger) (*Client, error) {
	if cfg.BaseURL == "" || cfg.Chain == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidArgument, "aggregator base url and chain are required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, "url.Parse")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, defaultBurst),
		logger:  logger,
	}, nil
}

type routeResponse struct {
	InputAmount     string  `json:"inputAmount"`
	OutputAmount    string  `json:"outputAmount"`
	AmountInUsd     float64 `json:"amountInUsd"`
	AmountOutUsd    float64 `json:"amountOutUsd"`
	GasUsd          float64 `json:"gasUsd"`
	RouterAddress   string  `json:"routerAddress"`
	EncodedSwapData string  `json:"encodedSwapData"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Quote requests a route for params and maps it to a Trade.
func (c *Client) Quote(ctx context.Context, params swap.QuoteParams) (*swap.Trade, error) {
	if params.AmountIn == nil || params.AmountIn.Sign() <= 0 {
		return nil, errors.Wrap(apperrors.ErrInvalidArgument, "amount in must be positive")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "c.limiter.Wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.routeURL(params), nil)
	if err != nil {
		return nil, errors.Wrap(err, "http.NewRequestWithContext")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Version", "Latest")
	if c.cfg.ClientID != "" {
		req.Header.Set("X-Client-Id", c.cfg.ClientID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "c.http.Do")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "json.Decode")
	}

	trade, err := body.trade(params)
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrAggregator, err.Error())
	}

	c.logger.WithFields(logrus.Fields{
		"token_in":  params.TokenIn.Hex(),
		"token_out": params.TokenOut.Hex(),
		"amount_in": params.AmountIn.String(),
		"out":       trade.OutputAmount.String(),
	}).Debug("route received")

	return trade, nil
}

func (c *Client) routeURL(p swap.QuoteParams) string {
	q := url.Values{}
	q.Set("tokenIn", p.TokenIn.Hex())
	q.Set("tokenOut", p.TokenOut.Hex())
	q.Set("amountIn", p.AmountIn.String())
	q.Set("to", p.Recipient.Hex())
	q.Set("saveGas", "0")
	q.Set("gasInclude", "1")
	q.Set("slippageTolerance", strconv.FormatUint(uint64(p.SlippageBps), 10))
	if !p.Deadline.IsZero() {
		q.Set("deadline", strconv.FormatInt(p.Deadline.Unix(), 10))
	}
	if len(p.ExcludedSources) > 0 {
		q.Set("excludedSources", strings.Join(p.ExcludedSources, ","))
	}
	if c.cfg.ClientID != "" {
		q.Set("clientData", fmt.Sprintf(`{"source":%q}`, c.cfg.ClientID))
	}

	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + c.cfg.Chain + "/" + routePath + "?" + q.Encode()
}

func (c *Client) statusError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
	if err != nil {
		c.logger.WithError(err).WithField("status", resp.StatusCode).Warn("aggregator error body unreadable")
		return errors.Wrapf(apperrors.ErrAggregator, "status %d: io.ReadAll: %v", resp.StatusCode, err)
	}

	var body errorResponse
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		msg = body.Message
	}

	c.logger.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"message": msg,
	}).Warn("aggregator rejected route request")

	return errors.Wrapf(apperrors.ErrAggregator, "status %d: %s", resp.StatusCode, msg)
}

func (r routeResponse) trade(params swap.QuoteParams) (*swap.Trade, error) {
	in, ok := new(big.Int).SetString(r.InputAmount, 10)
	if !ok {
		// some deployments omit inputAmount; the requested amount is what gets routed.
		if r.InputAmount != "" {
			return nil, errors.Errorf("bad inputAmount %q", r.InputAmount)
		}
		in = new(big.Int).Set(params.AmountIn)
	}

	out, ok := new(big.Int).SetString(r.OutputAmount, 10)
	if !ok {
		return nil, errors.Errorf("bad outputAmount %q", r.OutputAmount)
	}
	if out.Sign() <= 0 {
		return nil, errors.New("no route found")
	}

	if !common.IsHexAddress(r.RouterAddress) {
		return nil, errors.Errorf("bad routerAddress %q", r.RouterAddress)
	}

	data, err := hexutil.Decode(r.EncodedSwapData)
	if err != nil {
		return nil, errors.Wrap(err, "hexutil.Decode")
	}

	return &swap.Trade{
		TokenIn:         params.TokenIn,
		TokenOut:        params.TokenOut,
		InputAmount:     in,
		OutputAmount:    out,
		AmountInUSD:     r.AmountInUsd,
		AmountOutUSD:    r.AmountOutUsd,
		GasUSD:          r.GasUsd,
		RouterAddress:   common.HexToAddress(r.RouterAddress),
		EncodedSwapData: data,
	}, nil
}
