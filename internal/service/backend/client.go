package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"DashSync/internal/domain/feederr"
	"DashSync/internal/domain/models"
	drepo "DashSync/internal/domain/repository"
	"DashSync/internal/service/normalize"
	xhttp "DashSync/pkg/http"
)

// Client consumes the dashboard backend: price, news, prediction, sentiment,
// price history and auth endpoints.
type Client struct {
	baseURL string
	http    *xhttp.Client
}

var (
	_ drepo.MarketAPI = (*Client)(nil)
	_ drepo.AuthAPI   = (*Client)(nil)
)

// New creates a backend client rooted at baseURL (e.g. http://localhost:8000).
func New(baseURL string, opts ...xhttp.ClientOption) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    xhttp.NewClient(opts...),
	}
}

// Price calls GET /api/price/{symbol}.
func (c *Client) Price(ctx context.Context, token string, inst models.Instrument) (models.PriceSample, error) {
	body, err := c.do(ctx, "price", &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.url("api", "price", inst.Symbol),
		Headers: xhttp.BearerHeaders(token),
	})
	if err != nil {
		return models.PriceSample{}, err
	}
	return normalize.DecodePrice(body, inst.CoinID)
}

// News calls GET /api/news for one currency code.
func (c *Client) News(ctx context.Context, token, currency string, limit int) (models.NewsBatch, error) {
	body, err := c.do(ctx, "news", &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.url("api", "news"),
		Headers: xhttp.BearerHeaders(token),
		QueryParams: map[string][]string{
			"currencies": {currency},
			"limit":      {strconv.Itoa(limit)},
			"filter":     {"important"},
			"kind":       {"news"},
			"public":     {"true"},
		},
	})
	if err != nil {
		return nil, err
	}
	return normalize.DecodeNews(body)
}

// Prediction calls GET /api/price/{symbol}/predict.
func (c *Client) Prediction(ctx context.Context, token string, inst models.Instrument) (models.Prediction, error) {
	body, err := c.do(ctx, "prediction", &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.url("api", "price", inst.Symbol, "predict"),
		Headers: xhttp.BearerHeaders(token),
	})
	if err != nil {
		return models.Prediction{}, err
	}
	return normalize.DecodePrediction(body)
}

// Sentiment calls POST /api/sentiment with the instrument-level phrase.
func (c *Client) Sentiment(ctx context.Context, token string, inst models.Instrument) (models.SentimentReading, error) {
	body, err := c.do(ctx, "sentiment", &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.url("api", "sentiment"),
		Headers: xhttp.BearerHeaders(token),
		Body:    map[string]string{"text": inst.DisplayName + " is the future!"},
	})
	if err != nil {
		return models.SentimentReading{}, err
	}
	return normalize.DecodeSentiment(body)
}

// History calls GET /api/search/prices/{symbol}?interval=<window>.
func (c *Client) History(ctx context.Context, token string, inst models.Instrument, window drepo.HistoryRange) (models.PriceHistory, error) {
	body, err := c.do(ctx, "history", &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.url("api", "search", "prices", inst.Symbol),
		Headers:     xhttp.BearerHeaders(token),
		QueryParams: map[string][]string{"interval": {string(window)}},
	})
	if err != nil {
		return nil, err
	}
	return normalize.DecodeHistory(body)
}

// Token calls POST /api/auth/token with a form body.
func (c *Client) Token(ctx context.Context, username, password string) (models.Credentials, error) {
	body, err := c.do(ctx, "auth token", &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.url("api", "auth", "token"),
		Headers: map[string]string{"Content-Type": xhttp.ContentTypeForm, "Accept": xhttp.ContentTypeJSON},
		Body:    map[string]string{"username": username, "password": password},
	})
	if err != nil {
		return models.Credentials{}, err
	}
	return normalize.DecodeToken(body)
}

// Register calls POST /api/auth/register with a JSON body.
func (c *Client) Register(ctx context.Context, username, email, password string) (models.Credentials, error) {
	body, err := c.do(ctx, "auth register", &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.url("api", "auth", "register"),
		Headers: map[string]string{"Accept": xhttp.ContentTypeJSON},
		Body:    map[string]string{"username": username, "email": email, "password": password},
	})
	if err != nil {
		return models.Credentials{}, err
	}
	return normalize.DecodeToken(body)
}

// Validate calls GET /api/auth/validate. Any failure means the token is not trusted.
func (c *Client) Validate(ctx context.Context, token string) error {
	body, err := c.do(ctx, "auth validate", &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.url("api", "auth", "validate"),
		Headers: xhttp.BearerHeaders(token),
	})
	if err != nil {
		return err
	}
	return normalize.DecodeValidate(body)
}

// do sends the request and classifies failures: 401 is auth, every other
// non-2xx and every transport failure is network.
func (c *Client) do(ctx context.Context, op string, opts *xhttp.RequestOptions) ([]byte, error) {
	var body []byte
	err := c.http.SendAndParse(ctx, opts, &body)
	if err == nil {
		return body, nil
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusUnauthorized {
			return nil, feederr.Auth(op, se)
		}
		return nil, feederr.Network(op, se)
	}
	return nil, feederr.Network(op, fmt.Errorf("%s %s: %w", opts.Method, opts.URL, err))
}

func (c *Client) url(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}
