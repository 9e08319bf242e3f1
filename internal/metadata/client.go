package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"appanote/pkg/models"
)

var (
	ErrFetchFailed = errors.New("metadata fetch failed")
	ErrEmptyURL    = errors.New("no URL provided")
)

// HTTPClient interface for mocking
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches video metadata from the oEmbed endpoint, optionally
// enriched with details from the YouTube Data API, and caches results
// in memory per video ID.
type Client struct {
	oembedEndpoint string
	apiEndpoint    string
	apiKey         string
	httpClient     HTTPClient
	cacheTTL       time.Duration

	mu    sync.RWMutex
	cache map[string]models.Metadata
}

// oembedResponse is the subset of the oEmbed document we care about
type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// apiResponse is the subset of the Data API videos.list response we care about
type apiResponse struct {
	Items []struct {
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Snippet struct {
			PublishedAt string `json:"publishedAt"`
			Description string `json:"description"`
		} `json:"snippet"`
	} `json:"items"`
}

// NewClient creates a metadata client from configuration
func NewClient(cfg *models.Config) *Client {
	timeout := time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		oembedEndpoint: cfg.OEmbedEndpoint,
		apiEndpoint:    cfg.YouTubeAPIEndpoint,
		apiKey:         cfg.YouTubeAPIKey,
		httpClient:     &http.Client{Timeout: timeout},
		cacheTTL:       time.Duration(cfg.MetadataCacheTTLMin) * time.Minute,
		cache:          make(map[string]models.Metadata),
	}
}

// SetHTTPClient replaces the HTTP client (for tests)
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// Fetch retrieves metadata for a video URL. Results are cached per video
// ID until the cache TTL expires. The Data API call is best-effort: its
// failure never fails the fetch.
func (c *Client) Fetch(ctx context.Context, videoURL string) (models.Metadata, error) {
	if videoURL == "" {
		return models.Metadata{}, ErrEmptyURL
	}

	videoID, idErr := ExtractVideoID(videoURL)
	if idErr == nil {
		if meta, ok := c.cached(videoID); ok {
			return meta, nil
		}
	}

	oembed, err := c.fetchOEmbed(ctx, videoURL)
	if err != nil {
		return models.Metadata{}, err
	}

	meta := models.Metadata{
		ID:           videoID,
		URL:          videoURL,
		Title:        oembed.Title,
		Channel:      oembed.AuthorName,
		ThumbnailURL: oembed.ThumbnailURL,
		FetchedAt:    time.Now(),
	}

	if c.apiKey != "" && videoID != "" {
		if details, err := c.fetchAPIDetails(ctx, videoID); err == nil {
			meta.Duration = details.Duration
			meta.PublishedAt = details.PublishedAt
			meta.Description = details.Description
		}
	}

	if videoID != "" {
		c.store(videoID, meta)
	}

	return meta, nil
}

// CacheSize returns the number of cached metadata entries
func (c *Client) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *Client) cached(videoID string) (models.Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	meta, ok := c.cache[videoID]
	if !ok {
		return models.Metadata{}, false
	}

	if c.cacheTTL > 0 && time.Since(meta.FetchedAt) > c.cacheTTL {
		return models.Metadata{}, false
	}

	return meta, true
}

func (c *Client) store(videoID string, meta models.Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[videoID] = meta
}

// fetchOEmbed calls the oEmbed endpoint for basic metadata
func (c *Client) fetchOEmbed(ctx context.Context, videoURL string) (*oembedResponse, error) {
	endpoint, err := url.Parse(c.oembedEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid oEmbed endpoint: %w", err)
	}

	q := endpoint.Query()
	q.Set("url", videoURL)
	q.Set("format", "json")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: oEmbed returned status %d", ErrFetchFailed, resp.StatusCode)
	}

	var out oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid oEmbed response: %v", ErrFetchFailed, err)
	}

	return &out, nil
}

// apiDetails holds the optional Data API fields
type apiDetails struct {
	Duration    string
	PublishedAt string
	Description string
}

// fetchAPIDetails calls the YouTube Data API v3 videos endpoint
func (c *Client) fetchAPIDetails(ctx context.Context, videoID string) (*apiDetails, error) {
	endpoint, err := url.Parse(c.apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid API endpoint: %w", err)
	}

	q := endpoint.Query()
	q.Set("part", "contentDetails,snippet")
	q.Set("id", videoID)
	q.Set("key", c.apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: API returned status %d", ErrFetchFailed, resp.StatusCode)
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid API response: %v", ErrFetchFailed, err)
	}

	if len(out.Items) == 0 {
		return &apiDetails{}, nil
	}

	item := out.Items[0]
	return &apiDetails{
		Duration:    item.ContentDetails.Duration,
		PublishedAt: item.Snippet.PublishedAt,
		Description: item.Snippet.Description,
	}, nil
}
