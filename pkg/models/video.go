package models

import "time"

// Video represents a single catalog record for an externally hosted video.
// JSON keys match the on-disk store document.
type Video struct {
	ID           string   `json:"id"`
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Channel      string   `json:"channel"`
	Duration     string   `json:"duration,omitempty"`
	PublishedAt  string   `json:"published_at,omitempty"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags"`
	WatchLater   bool     `json:"watch_later"`
	Watched      bool     `json:"watched"`
	Notes        string   `json:"notes"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	AddedAt      string   `json:"added_at"`
}

// Folder groups videos together with free-form notes.
type Folder struct {
	Videos []Video `json:"videos"`
	Notes  string  `json:"notes"`
}

// Document is the top-level store document persisted as a single JSON file.
type Document struct {
	Folders map[string]Folder `json:"folders"`
}

// NewDocument returns an empty store document
func NewDocument() *Document {
	return &Document{
		Folders: make(map[string]Folder),
	}
}

// Metadata represents the result of a remote metadata fetch
type Metadata struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Channel      string    `json:"channel"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Duration     string    `json:"duration,omitempty"`
	PublishedAt  string    `json:"published_at,omitempty"`
	Description  string    `json:"description,omitempty"`
	FetchedAt    time.Time `json:"-"`
}

// VideoUpdate describes a partial update to a video record.
// Nil fields are left unchanged.
type VideoUpdate struct {
	Title      *string   `json:"title,omitempty"`
	Channel    *string   `json:"channel,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	Watched    *bool     `json:"watched,omitempty"`
	WatchLater *bool     `json:"watch_later,omitempty"`
}
