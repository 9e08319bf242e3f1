package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appanote/pkg/models"
)

func testConfig(oembedURL, apiURL, apiKey string) *models.Config {
	cfg := models.DefaultConfig()
	cfg.OEmbedEndpoint = oembedURL
	cfg.YouTubeAPIEndpoint = apiURL
	cfg.YouTubeAPIKey = apiKey
	return cfg
}

func TestFetch(t *testing.T) {
	var oembedCalls int
	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		oembedCalls++
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "https://www.youtube.com/watch?v=abc123", r.URL.Query().Get("url"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"title": "Test Video",
			"author_name": "Test Channel",
			"thumbnail_url": "https://i.ytimg.com/vi/abc123/hqdefault.jpg"
		}`)
	}))
	defer oembed.Close()

	client := NewClient(testConfig(oembed.URL, "https://unused.invalid", ""))

	meta, err := client.Fetch(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)

	assert.Equal(t, "abc123", meta.ID)
	assert.Equal(t, "Test Video", meta.Title)
	assert.Equal(t, "Test Channel", meta.Channel)
	assert.Equal(t, "https://i.ytimg.com/vi/abc123/hqdefault.jpg", meta.ThumbnailURL)

	// Second fetch is served from cache
	_, err = client.Fetch(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	assert.Equal(t, 1, oembedCalls)
	assert.Equal(t, 1, client.CacheSize())
}

func TestFetchWithAPIDetails(t *testing.T) {
	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title": "T", "author_name": "C", "thumbnail_url": "thumb"}`)
	}))
	defer oembed.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "contentDetails,snippet", r.URL.Query().Get("part"))
		assert.Equal(t, "abc123", r.URL.Query().Get("id"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		fmt.Fprint(w, `{
			"items": [{
				"contentDetails": {"duration": "PT4M13S"},
				"snippet": {"publishedAt": "2009-10-25T06:57:33Z", "description": "desc"}
			}]
		}`)
	}))
	defer api.Close()

	client := NewClient(testConfig(oembed.URL, api.URL, "secret"))

	meta, err := client.Fetch(context.Background(), "https://youtu.be/abc123")
	require.NoError(t, err)

	assert.Equal(t, "PT4M13S", meta.Duration)
	assert.Equal(t, "2009-10-25T06:57:33Z", meta.PublishedAt)
	assert.Equal(t, "desc", meta.Description)
}

func TestFetchAPIFailureIsNonFatal(t *testing.T) {
	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title": "Still Works", "author_name": "C", "thumbnail_url": "thumb"}`)
	}))
	defer oembed.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer api.Close()

	client := NewClient(testConfig(oembed.URL, api.URL, "secret"))

	meta, err := client.Fetch(context.Background(), "https://youtu.be/abc123")
	require.NoError(t, err)

	assert.Equal(t, "Still Works", meta.Title)
	assert.Empty(t, meta.Duration)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		url     string
		wantErr error
	}{
		{
			name:    "empty URL",
			url:     "",
			wantErr: ErrEmptyURL,
		},
		{
			name: "oEmbed not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "Not Found", http.StatusNotFound)
			},
			url:     "https://youtu.be/missing",
			wantErr: ErrFetchFailed,
		},
		{
			name: "oEmbed invalid JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "<html>nope</html>")
			},
			url:     "https://youtu.be/abc123",
			wantErr: ErrFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint := "https://unused.invalid"
			if tt.handler != nil {
				srv := httptest.NewServer(tt.handler)
				defer srv.Close()
				endpoint = srv.URL
			}

			client := NewClient(testConfig(endpoint, "https://unused.invalid", ""))

			_, err := client.Fetch(context.Background(), tt.url)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchNonYouTubeURLStillWorks(t *testing.T) {
	// oEmbed is a generic protocol; URLs without an extractable YouTube ID
	// are fetched but not cached.
	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title": "Other Host", "author_name": "A", "thumbnail_url": ""}`)
	}))
	defer oembed.Close()

	client := NewClient(testConfig(oembed.URL, "https://unused.invalid", ""))

	meta, err := client.Fetch(context.Background(), "https://example.com/clip")
	require.NoError(t, err)
	assert.Equal(t, "Other Host", meta.Title)
	assert.Empty(t, meta.ID)
	assert.Equal(t, 0, client.CacheSize())
}
