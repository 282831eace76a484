package stadiamaps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bwise1/snapguide_api/internal/model"
	"github.com/goccy/go-json"
	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

const (
	defaultStadiaBaseURL = "https://api.stadiamaps.com"
	defaultTimeout       = 5 * time.Second
)

// Client handles communication with the Stadia Maps geocoding API.
type Client struct {
	BaseURL    *url.URL
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a client whose requests give up after timeout. An empty
// baseURL targets the public API.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultStadiaBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL: u,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}, nil
}

// GeocodeQuery represents parameters for geocoding requests.
type GeocodeQuery struct {
	PointLat *float64 `url:"point.lat,omitempty"`
	PointLon *float64 `url:"point.lon,omitempty"`
	Size     *int     `url:"size,omitempty"`
	Layers   []string `url:"layers,omitempty,comma"` // e.g., "address", "venue"
}

// FeatureCollection is the GeoJSON body of a geocoding response.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type     string `json:"type"`
	Geometry *struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

type featureProperties struct {
	Name                 string `json:"name"`
	Label                string `json:"label"`
	FormattedAddressLine string `json:"formatted_address_line"`
	CountryCode          string `json:"country_code"`
	Context              struct {
		Iso3166A2 string `json:"iso_3166_a2"`
	} `json:"context"`
}

// buildURL constructs the API URL with query parameters.
func (c *Client) buildURL(endpoint string, queryParams interface{}) (string, error) {
	rel, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrap(err, "parse endpoint")
	}
	u := c.BaseURL.ResolveReference(rel)

	q := u.Query()
	q.Set("api_key", c.APIKey)

	if queryParams != nil {
		v, err := query.Values(queryParams)
		if err != nil {
			return "", errors.Wrap(err, "encode query parameters")
		}
		for k, vals := range v {
			for _, val := range vals {
				q.Add(k, val)
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ReverseGeocode returns the best address for a coordinate, or nil when the
// API knows nothing about it.
// Endpoint: /geocoding/v1/reverse
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*model.Address, error) {
	size := 1
	params := &GeocodeQuery{PointLat: &lat, PointLon: &lon, Size: &size}

	reqURL, err := c.buildURL("/geocoding/v1/reverse", params)
	if err != nil {
		return nil, errors.Wrap(err, "build reverse geocode URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create reverse geocode request")
	}

	var result FeatureCollection
	if err := c.do(req, &result); err != nil {
		return nil, errors.Wrap(err, "execute reverse geocode request")
	}
	if len(result.Features) == 0 {
		return nil, nil
	}

	raw := result.Features[0].Properties
	var props featureProperties
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, errors.Wrap(err, "decode feature properties")
	}

	addr := &model.Address{
		Name:             props.Name,
		FormattedAddress: props.FormattedAddressLine,
		CountryCode:      props.CountryCode,
		Raw:              raw,
	}
	if addr.FormattedAddress == "" {
		addr.FormattedAddress = props.Label
	}
	if addr.CountryCode == "" {
		addr.CountryCode = props.Context.Iso3166A2
	}
	return addr, nil
}

// do executes HTTP requests and decodes JSON responses.
func (c *Client) do(req *http.Request, v interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%w: %w: %w", model.ErrUpstreamUnavailable, model.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: API request failed with status %d: %s", model.ErrUpstreamUnavailable, resp.StatusCode, string(bodyBytes))
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
