// Package catalog looks up product data from the external storefront API.
// Prices are fetched once, when an item is added, and snapshotted into the
// cart; the engine never re-fetches on read.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrProductNotFound is returned when the API has no product for the id.
	ErrProductNotFound = errors.New("product not found")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("catalog unavailable")
)

// Product is the catalog's view of a sellable item.
type Product struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	ImageURL       string           `json:"image_url,omitempty"`
}

// Catalog is the lookup contract consumed by the cart service.
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
}

// Client talks to the external product API over HTTP. Requests are traced,
// deduplicated per product id and guarded by a circuit breaker so a flapping
// upstream does not stall every add-to-cart.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Product]
	sfg     singleflight.Group
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog base url %q: %w", baseURL, err)
	}

	breaker := gobreaker.NewCircuitBreaker[*Product](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing product is an answer, not an upstream failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProductNotFound)
		},
	})

	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}, nil
}

// GetProduct fetches a single product. Concurrent lookups for the same id
// collapse into one request.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	v, err, _ := c.sfg.Do(productID, func() (interface{}, error) {
		return c.breaker.Execute(func() (*Product, error) {
			return c.fetch(ctx, productID)
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return v.(*Product), nil
}

func (c *Client) fetch(ctx context.Context, productID string) (*Product, error) {
	rel := &url.URL{Path: "/products/" + productID}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.ResolveReference(rel).String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var p Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode product failed: %w", err)
	}
	if p.ID == "" {
		p.ID = productID
	}
	return &p, nil
}
