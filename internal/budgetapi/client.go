// Package budgetapi is the HTTP client for the budget backend.
//
// Every read maps to one GET on a fixed endpoint; writes are JSON POSTs or a
// DELETE. Non-2xx answers come back as *StatusError carrying the server's
// `error` message when the body has one.
package budgetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budgetdash/internal/cache"
	"budgetdash/internal/core"
	"budgetdash/internal/log"
)

var (
	// ErrTransport marks failures where no HTTP response was received.
	ErrTransport = errors.New("budget api unreachable")
	// ErrDecode marks a 2xx response whose body could not be decoded.
	ErrDecode = errors.New("unexpected response body")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// ServerMessage extracts the server-provided error message from err, if any.
func ServerMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

// TransactionsPage is the body of the month transactions endpoint.
type TransactionsPage struct {
	Transactions core.TransactionGroups `json:"transactions"`
	DailyTotals  core.DailyTotals       `json:"daily_totals"`
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	categories *cache.LRUCache[[]core.Category]
	logger     *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request; zero disables the per-request deadline
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithCategoryCache keeps the category list for ttl; the list is static server side
func WithCategoryCache(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.categories = cache.NewLRUCache[[]core.Category](1, ttl)
		}
	}
}

// WithLogger sets the client logger
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the API rooted at baseURL (e.g. http://localhost:5000).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse budget API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("budget API URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		timeout:    7 * time.Second,
		logger:     log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent(log.ComponentAPI)
	return c, nil
}

// CategoryCache exposes the category cache for registration with a cache.Manager.
// It is nil when caching is disabled.
func (c *Client) CategoryCache() *cache.LRUCache[[]core.Category] {
	return c.categories
}

const categoriesKey = "categories"

// Categories returns the selectable categories.
func (c *Client) Categories(ctx context.Context) ([]core.Category, error) {
	if c.categories != nil {
		if cats, ok := c.categories.Get(categoriesKey); ok {
			return cats, nil
		}
	}
	var cats []core.Category
	if err := c.getJSON(ctx, "/api/categories", &cats); err != nil {
		return nil, err
	}
	if c.categories != nil {
		c.categories.Set(categoriesKey, cats)
	}
	return cats, nil
}

// Ping checks the API is reachable, bypassing the category cache.
func (c *Client) Ping(ctx context.Context) error {
	var cats []core.Category
	return c.getJSON(ctx, "/api/categories", &cats)
}

// Budget returns the month overview.
func (c *Client) Budget(ctx context.Context, month core.MonthKey) (core.BudgetSummary, error) {
	var b core.BudgetSummary
	if err := c.getJSON(ctx, "/api/budget/"+url.PathEscape(month.String()), &b); err != nil {
		return core.BudgetSummary{}, err
	}
	return b, nil
}

// SetIncome stores the monthly income.
func (c *Client) SetIncome(ctx context.Context, month core.MonthKey, income float64) error {
	body := struct {
		Income float64 `json:"income"`
	}{Income: income}
	return c.send(ctx, http.MethodPost, "/api/budget/"+url.PathEscape(month.String())+"/income", body, nil)
}

// Transactions returns the month's transactions grouped by day with daily totals.
func (c *Client) Transactions(ctx context.Context, month core.MonthKey) (TransactionsPage, error) {
	var page TransactionsPage
	if err := c.getJSON(ctx, "/api/transactions/"+url.PathEscape(month.String()), &page); err != nil {
		return TransactionsPage{}, err
	}
	if page.Transactions == nil {
		page.Transactions = core.TransactionGroups{}
	}
	if page.DailyTotals == nil {
		page.DailyTotals = core.DailyTotals{}
	}
	return page, nil
}

// Week returns the per-day totals of the current week.
func (c *Client) Week(ctx context.Context, month core.MonthKey) ([]core.WeekDay, error) {
	var body struct {
		Week []core.WeekDay `json:"week"`
	}
	if err := c.getJSON(ctx, "/api/transactions/"+url.PathEscape(month.String())+"/week", &body); err != nil {
		return nil, err
	}
	return body.Week, nil
}

// Trends returns income/spent/savings for the last n months, oldest first.
func (c *Client) Trends(ctx context.Context, n int) ([]core.TrendPoint, error) {
	var body struct {
		Trends []core.TrendPoint `json:"trends"`
	}
	if err := c.getJSON(ctx, "/api/trends/"+strconv.Itoa(n), &body); err != nil {
		return nil, err
	}
	return body.Trends, nil
}

// AddTransaction records an expense and returns it as stored by the server.
// A 2xx answer counts as success even when its body is unreadable; the
// returned transaction is then zero.
func (c *Client) AddTransaction(ctx context.Context, tx core.NewTransaction) (core.Transaction, error) {
	var body struct {
		Transaction core.Transaction `json:"transaction"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/transaction", tx, &body); err != nil {
		if errors.Is(err, ErrDecode) {
			c.logger.WarnContext(ctx, "Transaction stored but response unreadable", log.FieldError, err.Error())
			return core.Transaction{}, nil
		}
		return core.Transaction{}, err
	}
	return body.Transaction, nil
}

// DeleteTransaction removes a transaction by its server id.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, "/api/transaction/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrTransport, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "Budget API call",
		log.FieldMethod, method,
		log.FieldEndpoint, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrDecode, err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Error
}
