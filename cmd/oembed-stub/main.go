package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"appanote/internal/metadata"
)

// Local oEmbed endpoint for offline development. Point the
// oEmbedEndpoint config value at it to add videos without
// touching youtube.com.

var (
	listenAddr    = "127.0.0.1:9696"
	ErrMissingURL = errors.New("url query parameter required")
)

// oembedPayload mirrors the fields YouTube's oEmbed endpoint returns
type oembedPayload struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	ProviderName string `json:"provider_name"`
	Type         string `json:"type"`
}

func main() {
	os.Exit(run())
}

// run starts the stub server and returns exit code
func run() int {
	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", handleOEmbed)

	fmt.Printf("oEmbed stub listening on %s\n", listenAddr)
	fmt.Println("Press Ctrl+C to stop")

	if err := http.ListenAndServe(listenAddr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}

// handleOEmbed answers an oEmbed lookup with deterministic metadata
// derived from the video ID
func handleOEmbed(w http.ResponseWriter, r *http.Request) {
	videoURL := r.URL.Query().Get("url")
	if videoURL == "" {
		http.Error(w, ErrMissingURL.Error(), http.StatusBadRequest)
		return
	}

	payload, err := buildPayload(videoURL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

// buildPayload derives a stable fake response from the URL
func buildPayload(videoURL string) (oembedPayload, error) {
	id, err := metadata.ExtractVideoID(videoURL)
	if err != nil {
		return oembedPayload{}, fmt.Errorf("not a YouTube video URL: %w", err)
	}

	return oembedPayload{
		Title:        fmt.Sprintf("Stub video %s", id),
		AuthorName:   "Stub channel",
		ThumbnailURL: fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", id),
		ProviderName: "oembed-stub",
		Type:         "video",
	}, nil
}
