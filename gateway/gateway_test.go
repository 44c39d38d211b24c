package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"krakenbot/config"
	"krakenbot/kraken"
	"krakenbot/models"
)

// fakeExchange scripts the raw SDK surface one call at a time.
type fakeExchange struct {
	creds   bool
	results []*kraken.Result
	errs    []error
	calls   int
}

func (f *fakeExchange) next() (*kraken.Result, error) {
	i := f.calls
	f.calls++
	var res *kraken.Result
	var err error
	if i < len(f.results) {
		res = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if res == nil && err == nil {
		err = errors.New("fake exchange: unscripted call")
	}
	return res, err
}

func (f *fakeExchange) HasCredentials() bool { return f.creds }
func (f *fakeExchange) Balance(ctx context.Context) (*kraken.Result, error) {
	return f.next()
}
func (f *fakeExchange) Ticker(ctx context.Context, pair string) (*kraken.Result, error) {
	return f.next()
}
func (f *fakeExchange) OHLC(ctx context.Context, pair string, interval int, since int64) (*kraken.Result, error) {
	return f.next()
}
func (f *fakeExchange) AddOrder(ctx context.Context, params kraken.OrderParams) (*kraken.Result, error) {
	return f.next()
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Gateway.RateLimit.Capacity = 100
	cfg.Gateway.RateLimit.RefillPeriod = time.Second
	cfg.Gateway.Retry.MaxAttempts = 3
	cfg.Gateway.Retry.BaseDelay = time.Millisecond
	cfg.Gateway.CallTimeout = time.Second
	return cfg
}

func docResult(doc map[string]string) *kraken.Result {
	raw := make(map[string]json.RawMessage, len(doc))
	for k, v := range doc {
		raw[k] = json.RawMessage(v)
	}
	return &kraken.Result{Kind: kraken.KindDoc, Doc: raw}
}

func TestGetBalanceWithoutCredentials(t *testing.T) {
	api := &fakeExchange{creds: false}
	g := New(testConfig(), api)

	env := g.GetBalance(context.Background())
	if !env.Failed() {
		t.Fatal("expected a failed envelope")
	}
	if env.ErrorText() != "API client not initialized." {
		t.Errorf("unexpected error text: %q", env.ErrorText())
	}
	if api.calls != 0 {
		t.Errorf("exchange should not be called, got %d calls", api.calls)
	}
}

func TestGetTickerWithoutCredentialsReturnsMock(t *testing.T) {
	api := &fakeExchange{creds: false}
	g := New(testConfig(), api)

	env := g.GetTicker(context.Background(), "XETHZUSD")
	if env.Failed() {
		t.Fatalf("mock ticker should succeed, got %v", env.Errors)
	}
	ticker, ok := env.Result["XETHZUSD"].(models.Ticker)
	if !ok {
		t.Fatalf("expected a ticker under the requested pair, got %#v", env.Result)
	}
	if ticker.LastPrice() != "50000.00" {
		t.Errorf("mock last price = %q, want 50000.00", ticker.LastPrice())
	}
	if api.calls != 0 {
		t.Errorf("exchange should not be called, got %d calls", api.calls)
	}
}

func TestGetTickerMockDefaultsPair(t *testing.T) {
	g := New(testConfig(), &fakeExchange{creds: false})

	env := g.GetTicker(context.Background(), "")
	if _, ok := env.Result["XXBTZUSD"]; !ok {
		t.Errorf("expected mock data under the default pair, got %#v", env.Result)
	}
}

func TestGetBalanceNormalizesDoc(t *testing.T) {
	api := &fakeExchange{
		creds:   true,
		results: []*kraken.Result{docResult(map[string]string{"ZUSD": `"100.00"`, "XXBT": `"0.50000000"`})},
	}
	g := New(testConfig(), api)

	env := g.GetBalance(context.Background())
	if env.Failed() {
		t.Fatalf("unexpected failure: %v", env.Errors)
	}
	if env.Result["ZUSD"] != "100.00" {
		t.Errorf("ZUSD = %v, want 100.00", env.Result["ZUSD"])
	}
	if env.Result["XXBT"] != "0.50000000" {
		t.Errorf("XXBT = %v, want 0.50000000", env.Result["XXBT"])
	}
}

func TestGetOHLCNormalizesRows(t *testing.T) {
	rows := []models.Candle{
		{Time: 1700000000, Open: 100, High: 110, Low: 90, Close: 105, Volume: 12.5},
	}
	api := &fakeExchange{
		creds:   true,
		results: []*kraken.Result{{Kind: kraken.KindRows, Rows: rows, Last: 1700000360}},
	}
	g := New(testConfig(), api)

	env := g.GetOHLC(context.Background(), "XXBTZUSD", 60, 0)
	if env.Failed() {
		t.Fatalf("unexpected failure: %v", env.Errors)
	}
	candles, ok := env.Candles()
	if !ok {
		t.Fatalf("expected candles in the envelope, got %#v", env.Result)
	}
	if len(candles) != 1 || candles[0].Close != 105 {
		t.Errorf("unexpected candles: %+v", candles)
	}
	if env.Result["last"] != int64(1700000360) {
		t.Errorf("last cursor = %v, want 1700000360", env.Result["last"])
	}
}

func TestErrorResultBecomesErrorEnvelope(t *testing.T) {
	api := &fakeExchange{
		creds:   true,
		results: []*kraken.Result{kraken.ErrorResult("EGeneral:Invalid arguments")},
	}
	g := New(testConfig(), api)

	env := g.GetBalance(context.Background())
	if !env.Failed() {
		t.Fatal("expected a failed envelope")
	}
	if env.ErrorText() != "EGeneral:Invalid arguments" {
		t.Errorf("unexpected error text: %q", env.ErrorText())
	}
	if api.calls != 1 {
		t.Errorf("non-retryable error should not retry, got %d calls", api.calls)
	}
}

func TestUnknownShapeFailsClosed(t *testing.T) {
	api := &fakeExchange{
		creds:   true,
		results: []*kraken.Result{{Kind: kraken.Kind(99)}},
	}
	g := New(testConfig(), api)

	env := g.GetBalance(context.Background())
	if !env.Failed() {
		t.Fatal("expected a failed envelope")
	}
	if env.ErrorText() != "unhandled result shape" {
		t.Errorf("unexpected error text: %q", env.ErrorText())
	}
}

func TestTransientErrorRetriesWithBackoff(t *testing.T) {
	api := &fakeExchange{
		creds: true,
		results: []*kraken.Result{
			kraken.ErrorResult("EAPI:Rate limit exceeded"),
			docResult(map[string]string{"ZUSD": `"100.00"`}),
		},
	}
	g := New(testConfig(), api)

	env := g.GetBalance(context.Background())
	if env.Failed() {
		t.Fatalf("expected recovery after retry, got %v", env.Errors)
	}
	if api.calls != 2 {
		t.Errorf("expected 2 calls, got %d", api.calls)
	}
}

func TestTransientErrorExhaustsRetries(t *testing.T) {
	api := &fakeExchange{
		creds: true,
		results: []*kraken.Result{
			kraken.ErrorResult("EService:Unavailable"),
			kraken.ErrorResult("EService:Unavailable"),
			kraken.ErrorResult("EService:Unavailable"),
		},
	}
	g := New(testConfig(), api)

	env := g.GetBalance(context.Background())
	if !env.Failed() {
		t.Fatal("expected a failed envelope")
	}
	if env.ErrorText() != "EService:Unavailable" {
		t.Errorf("unexpected error text: %q", env.ErrorText())
	}
	if api.calls != 3 {
		t.Errorf("expected retries up to max attempts, got %d calls", api.calls)
	}
}

func TestTimeoutRetriedExactlyOnce(t *testing.T) {
	api := &fakeExchange{
		creds: true,
		errs:  []error{context.DeadlineExceeded, context.DeadlineExceeded},
	}
	g := New(testConfig(), api)

	env := g.GetBalance(context.Background())
	if !env.Failed() {
		t.Fatal("expected a failed envelope")
	}
	if env.ErrorText() != "get_balance timed out" {
		t.Errorf("unexpected error text: %q", env.ErrorText())
	}
	if api.calls != 2 {
		t.Errorf("timeout should be retried exactly once, got %d calls", api.calls)
	}
}

func TestTimeoutRecoversOnRetry(t *testing.T) {
	api := &fakeExchange{
		creds:   true,
		errs:    []error{context.DeadlineExceeded, nil},
		results: []*kraken.Result{nil, docResult(map[string]string{"ZUSD": `"1.00"`})},
	}
	g := New(testConfig(), api)

	env := g.GetBalance(context.Background())
	if env.Failed() {
		t.Fatalf("expected recovery after one timeout, got %v", env.Errors)
	}
	if api.calls != 2 {
		t.Errorf("expected 2 calls, got %d", api.calls)
	}
}

func TestTransportErrorIsFatal(t *testing.T) {
	api := &fakeExchange{
		creds: true,
		errs:  []error{errors.New("connection refused")},
	}
	g := New(testConfig(), api)

	env := g.GetBalance(context.Background())
	if !env.Failed() {
		t.Fatal("expected a failed envelope")
	}
	if env.ErrorText() != "connection refused" {
		t.Errorf("unexpected error text: %q", env.ErrorText())
	}
	if api.calls != 1 {
		t.Errorf("transport errors should not retry, got %d calls", api.calls)
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		errs []string
		want bool
	}{
		{[]string{"EAPI:Rate limit exceeded"}, true},
		{[]string{"EService:Unavailable"}, true},
		{[]string{"EGeneral:Invalid arguments"}, false},
		{[]string{"EOrder:Insufficient funds"}, false},
		{nil, false},
	}
	for _, c := range cases {
		if got := Retryable(c.errs); got != c.want {
			t.Errorf("Retryable(%v) = %v, want %v", c.errs, got, c.want)
		}
	}
}

func TestMinSizeRejectionClassification(t *testing.T) {
	cases := []struct {
		errs []string
		want bool
	}{
		{[]string{"EOrder:Order minimum not met"}, true},
		{[]string{"EGeneral:Invalid arguments:volume"}, true},
		{[]string{"EOrder:Insufficient funds"}, false},
		{nil, false},
	}
	for _, c := range cases {
		if got := IsMinSizeRejection(c.errs); got != c.want {
			t.Errorf("IsMinSizeRejection(%v) = %v, want %v", c.errs, got, c.want)
		}
	}
}
