package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultClientCacheTTL = time.Minute
	defaultClientTimeout  = 10 * time.Second
	maxErrorBodyBytes     = 4 << 10
	// UserAgent identifies requests of the profile editor.
	UserAgent = "fitcoach-editor/1.0"
)

// APIError is returned for any non-2xx answer of the profile API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("profile api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("profile api: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the profile HTTP API. Fetched profiles are kept in a small
// in-memory cache until they expire or are invalidated.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *freecache.Cache
	// CacheTTL is how long a fetched profile is served from the cache.
	CacheTTL time.Duration
}

// NewClient creates a client. A nil httpClient gets an otelhttp transport.
func NewClient(baseURL string, httpClient *http.Client, cacheSizeBytes int) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultClientTimeout,
		}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		cache:      freecache.NewCache(cacheSizeBytes),
		CacheTTL:   DefaultClientCacheTTL,
	}
}

func (c *Client) FetchProfile(ctx context.Context, id int) (*Profile, error) {
	key := []byte(cacheKey(id))
	if cached, err := c.cache.Get(key); err == nil {
		var p Profile
		if err := json.Unmarshal(cached, &p); err == nil {
			return &p, nil
		}
		c.cache.Del(key)
	}

	body, err := c.do(ctx, http.MethodGet, c.profileURL(id), nil)
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	if err := c.cache.Set(key, body, int(c.CacheTTL.Seconds())); err != nil {
		log.Debugf("profile client, cache profile [%d]: %s", id, err)
	}

	return &p, nil
}

// SaveProfile sends a partial update and returns the saved profile.
func (c *Client) SaveProfile(ctx context.Context, id int, in Input) (*Profile, error) {
	inJson, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}

	body, err := c.do(ctx, http.MethodPatch, c.profileURL(id), inJson)
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &p, nil
}

func (c *Client) RequestEmailChange(ctx context.Context, id int, email string) (string, error) {
	reqJson, err := json.Marshal(EmailChangeRequest{Email: email})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.profileURL(id)+"/email", reqJson)
	if err != nil {
		return "", err
	}

	var resp EmailChangeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return resp.RequestID, nil
}

func (c *Client) ConfirmEmailChange(ctx context.Context, id int, requestID, code string) (*Profile, error) {
	reqJson, err := json.Marshal(EmailConfirmRequest{RequestID: requestID, Code: code})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.profileURL(id)+"/email/confirm", reqJson)
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	c.InvalidateProfile(id)
	return &p, nil
}

// InvalidateProfile drops the cached copy, so the next fetch hits the API.
func (c *Client) InvalidateProfile(id int) {
	c.cache.Del([]byte(cacheKey(id)))
}

func (c *Client) profileURL(id int) string {
	return c.baseURL + "/profiles/" + strconv.Itoa(id)
}

func (c *Client) do(ctx context.Context, method, url string, reqBody []byte) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		bodyReader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
