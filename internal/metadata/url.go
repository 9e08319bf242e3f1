package metadata

import (
	"errors"
	"net/url"
	"strings"
)

var ErrVideoIDNotFound = errors.New("video ID not found in URL")

// youtubeHosts are the hostnames recognized as YouTube
var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

// IsYouTubeURL reports whether rawURL points at YouTube
func IsYouTubeURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return youtubeHosts[strings.ToLower(u.Host)]
}

// ExtractVideoID extracts the video ID from a YouTube URL.
// Supported forms: youtu.be/ID, watch?v=ID, /shorts/ID, /embed/ID.
func ExtractVideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrVideoIDNotFound
	}

	host := strings.ToLower(u.Host)

	if host == "youtu.be" {
		id := strings.Trim(u.Path, "/")
		if id == "" {
			return "", ErrVideoIDNotFound
		}
		return id, nil
	}

	if !youtubeHosts[host] {
		return "", ErrVideoIDNotFound
	}

	if strings.Contains(u.Path, "watch") {
		id := u.Query().Get("v")
		if id == "" {
			return "", ErrVideoIDNotFound
		}
		return id, nil
	}

	if strings.Contains(u.Path, "shorts") || strings.Contains(u.Path, "embed") {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		id := parts[len(parts)-1]
		if id == "" || id == "shorts" || id == "embed" {
			return "", ErrVideoIDNotFound
		}
		return id, nil
	}

	return "", ErrVideoIDNotFound
}
