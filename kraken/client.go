package kraken

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"krakenbot/config"
	"krakenbot/logger"
)

// Client is the raw call surface against the Kraken REST API. It performs no
// rate limiting, retries or shape normalization; that is the gateway's job.
type Client struct {
	rest   *resty.Client
	key    string
	secret string
	nonce  atomic.Int64
	log    *logger.Log
}

// OrderParams describes a single order submission. A stop-loss can ride along
// as a conditional close so entry and protection go out in one round-trip.
type OrderParams struct {
	Pair           string
	Side           string
	OrderType      string
	Volume         string
	Price          string
	CloseOrderType string
	ClosePrice     string
}

// NewClient builds a REST client from configuration. Credentials may be
// empty; private calls then fail at the gateway with an error envelope.
func NewClient(cfg *config.Config, key, secret string) *Client {
	transport := &http.Transport{
		MaxIdleConns:       cfg.Kraken.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:    cfg.Kraken.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:    cfg.Kraken.ConnectionPool.IdleConnTimeout,
		DisableCompression: false,
	}

	rest := resty.NewWithClient(&http.Client{Transport: transport})
	rest.SetBaseURL(cfg.Kraken.URL)
	rest.SetTimeout(cfg.Kraken.Timeout)

	c := &Client{
		rest:   rest,
		key:    key,
		secret: secret,
		log:    logger.GetLogger(),
	}
	c.nonce.Store(time.Now().UnixNano())

	c.log.WithComponent("kraken_client").WithFields(logger.Fields{
		"base_url":        cfg.Kraken.URL,
		"timeout":         cfg.Kraken.Timeout,
		"has_credentials": c.HasCredentials(),
	}).Info("kraken client initialized")

	return c
}

// HasCredentials reports whether private endpoints can be signed.
func (c *Client) HasCredentials() bool {
	return c.key != "" && c.secret != ""
}

// Balance fetches account balances (private endpoint).
func (c *Client) Balance(ctx context.Context) (*Result, error) {
	body, err := c.post(ctx, "/0/private/Balance", url.Values{})
	if err != nil {
		return nil, err
	}
	return decodeDoc(body)
}

// Ticker fetches ticker information. An empty pair argument requests every
// tradable pair, which the screener relies on.
func (c *Client) Ticker(ctx context.Context, pair string) (*Result, error) {
	req := c.rest.R().SetContext(ctx)
	if pair != "" {
		req.SetQueryParam("pair", pair)
	}
	resp, err := req.Get("/0/public/Ticker")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("ticker request failed: %s", resp.Status())
	}
	return decodeDoc(resp.Body())
}

// OHLC fetches candles for a pair at the given interval in minutes. A zero
// since fetches from the earliest available candle.
func (c *Client) OHLC(ctx context.Context, pair string, interval int, since int64) (*Result, error) {
	req := c.rest.R().SetContext(ctx).
		SetQueryParam("pair", pair).
		SetQueryParam("interval", strconv.Itoa(interval))
	if since > 0 {
		req.SetQueryParam("since", strconv.FormatInt(since, 10))
	}
	resp, err := req.Get("/0/public/OHLC")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("ohlc request failed: %s", resp.Status())
	}
	return decodeOHLC(resp.Body())
}

// AddOrder submits an order (private endpoint).
func (c *Client) AddOrder(ctx context.Context, params OrderParams) (*Result, error) {
	form := url.Values{}
	form.Set("pair", params.Pair)
	form.Set("type", params.Side)
	form.Set("ordertype", params.OrderType)
	form.Set("volume", params.Volume)
	if params.Price != "" {
		form.Set("price", params.Price)
	}
	if params.CloseOrderType != "" {
		form.Set("close[ordertype]", params.CloseOrderType)
		form.Set("close[price]", params.ClosePrice)
	}
	body, err := c.post(ctx, "/0/private/AddOrder", form)
	if err != nil {
		return nil, err
	}
	return decodeDoc(body)
}

// post signs and submits a private request.
func (c *Client) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	nonce := strconv.FormatInt(c.nonce.Add(1), 10)
	form.Set("nonce", nonce)

	sig, err := c.sign(path, nonce, form)
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	resp, err := c.rest.R().SetContext(ctx).
		SetHeader("API-Key", c.key).
		SetHeader("API-Sign", sig).
		SetFormDataFromValues(form).
		Post(path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s request failed: %s", path, resp.Status())
	}
	return resp.Body(), nil
}
