package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appanote/pkg/models"
)

func mustAddVideo(t *testing.T, manager *Manager, folder string, video models.Video) {
	t.Helper()

	_, err := manager.AddVideo(folder, video)
	require.NoError(t, err)
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	dataPath := filepath.Join(t.TempDir(), "data_store.json")
	manager, err := NewManager(dataPath)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return manager
}

func TestNewManagerCreatesEmptyStore(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "data_store.json")

	manager, err := NewManager(dataPath)
	require.NoError(t, err)
	defer manager.Close()

	assert.Empty(t, manager.Folders())

	// File should exist and hold an empty document
	data, err := os.ReadFile(dataPath)
	require.NoError(t, err)

	var doc models.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Empty(t, doc.Folders)
}

func TestNewManagerLoadsExisting(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "data_store.json")

	seed := `{
		"folders": {
			"tutorials": {
				"videos": [
					{"id": "abc123", "url": "https://youtu.be/abc123", "title": "Intro", "channel": "ch", "tags": [], "watched": false, "watch_later": false, "notes": "", "added_at": "2026-01-01T00:00:00Z"}
				],
				"notes": "go here first"
			}
		}
	}`
	require.NoError(t, os.WriteFile(dataPath, []byte(seed), 0644))

	manager, err := NewManager(dataPath)
	require.NoError(t, err)
	defer manager.Close()

	assert.Equal(t, []string{"tutorials"}, manager.Folders())

	video, err := manager.FindVideo("tutorials", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Intro", video.Title)

	folder, err := manager.Folder("tutorials")
	require.NoError(t, err)
	assert.Equal(t, "go here first", folder.Notes)
}

func TestNewManagerRejectsSecondInstance(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "data_store.json")

	first, err := NewManager(dataPath)
	require.NoError(t, err)
	defer first.Close()

	_, err = NewManager(dataPath)
	assert.ErrorIs(t, err, ErrStoreLocked)
}

func TestAddFolder(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.AddFolder("music"))
	assert.Equal(t, []string{"music"}, manager.Folders())

	// Duplicate folder is rejected
	assert.ErrorIs(t, manager.AddFolder("music"), ErrFolderExists)

	// Blank name is rejected
	assert.ErrorIs(t, manager.AddFolder("  "), ErrInvalidName)
}

func TestAddFolderTrimsName(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.AddFolder("  music  "))
	assert.Equal(t, []string{"music"}, manager.Folders())

	// The padded spelling is the same folder
	assert.ErrorIs(t, manager.AddFolder(" music"), ErrFolderExists)

	_, err := manager.Folder("music")
	require.NoError(t, err)
}

func TestAddVideo(t *testing.T) {
	manager := newTestManager(t)

	video := models.Video{
		ID:    "dQw4w9WgXcQ",
		URL:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Title: "Test Video",
	}

	// Folder is created implicitly
	mustAddVideo(t, manager, "music", video)

	got, err := manager.FindVideo("music", "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Test Video", got.Title)
	assert.NotEmpty(t, got.AddedAt)
	assert.NotNil(t, got.Tags)
}

func TestAddVideoGeneratesID(t *testing.T) {
	manager := newTestManager(t)

	mustAddVideo(t, manager, "misc", models.Video{URL: "https://example.com/v"})

	folder, err := manager.Folder("misc")
	require.NoError(t, err)
	require.Len(t, folder.Videos, 1)
	assert.NotEmpty(t, folder.Videos[0].ID)
}

func TestUpdateVideo(t *testing.T) {
	manager := newTestManager(t)
	mustAddVideo(t, manager, "music", models.Video{ID: "v1", Title: "old"})

	newTitle := "new title"
	notes := "some notes"
	watched := true

	err := manager.UpdateVideo("music", "v1", models.VideoUpdate{
		Title:   &newTitle,
		Notes:   &notes,
		Watched: &watched,
	})
	require.NoError(t, err)

	got, err := manager.FindVideo("music", "v1")
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, "some notes", got.Notes)
	assert.True(t, got.Watched)
	// Untouched fields stay as they were
	assert.False(t, got.WatchLater)

	// Unknown video
	err = manager.UpdateVideo("music", "nope", models.VideoUpdate{Title: &newTitle})
	assert.ErrorIs(t, err, ErrVideoNotFound)

	// Unknown folder
	err = manager.UpdateVideo("nope", "v1", models.VideoUpdate{Title: &newTitle})
	assert.ErrorIs(t, err, ErrFolderNotFound)
}

func TestToggles(t *testing.T) {
	manager := newTestManager(t)
	mustAddVideo(t, manager, "music", models.Video{ID: "v1"})

	on, err := manager.ToggleWatched("music", "v1")
	require.NoError(t, err)
	assert.True(t, on)

	off, err := manager.ToggleWatched("music", "v1")
	require.NoError(t, err)
	assert.False(t, off)

	later, err := manager.ToggleWatchLater("music", "v1")
	require.NoError(t, err)
	assert.True(t, later)

	_, err = manager.ToggleWatched("music", "missing")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestMoveVideo(t *testing.T) {
	manager := newTestManager(t)
	mustAddVideo(t, manager, "src", models.Video{ID: "v1", Title: "mover"})

	// Destination folder is created implicitly
	require.NoError(t, manager.MoveVideo("src", "dst", "v1"))

	_, err := manager.FindVideo("src", "v1")
	assert.ErrorIs(t, err, ErrVideoNotFound)

	got, err := manager.FindVideo("dst", "v1")
	require.NoError(t, err)
	assert.Equal(t, "mover", got.Title)

	// Missing video
	assert.ErrorIs(t, manager.MoveVideo("src", "dst", "v1"), ErrVideoNotFound)

	// Missing source folder
	assert.ErrorIs(t, manager.MoveVideo("nope", "dst", "v1"), ErrFolderNotFound)
}

func TestDeleteVideo(t *testing.T) {
	manager := newTestManager(t)
	mustAddVideo(t, manager, "music", models.Video{ID: "v1"})
	mustAddVideo(t, manager, "music", models.Video{ID: "v2"})

	require.NoError(t, manager.DeleteVideo("music", "v1"))

	_, err := manager.FindVideo("music", "v1")
	assert.ErrorIs(t, err, ErrVideoNotFound)

	_, err = manager.FindVideo("music", "v2")
	assert.NoError(t, err)

	assert.ErrorIs(t, manager.DeleteVideo("music", "v1"), ErrVideoNotFound)
}

func TestSearch(t *testing.T) {
	manager := newTestManager(t)
	mustAddVideo(t, manager, "go talks", models.Video{
		ID: "v1", Title: "Concurrency Patterns", Channel: "GopherCon",
		Tags: []string{"go", "concurrency"},
	})
	mustAddVideo(t, manager, "cooking", models.Video{
		ID: "v2", Title: "Sourdough basics", Channel: "Bread Channel",
		Notes: "try the overnight proof",
	})

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"matches title", "concurrency", []string{"v1"}},
		{"matches channel case-insensitively", "gophercon", []string{"v1"}},
		{"matches tags", "go", []string{"v1"}},
		{"matches notes", "overnight", []string{"v2"}},
		{"matches folder name", "cooking", []string{"v2"}},
		{"no match", "zzzzz", nil},
		{"empty query matches everything", "", []string{"v1", "v2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := manager.Search(tt.query)

			var ids []string
			for _, r := range results {
				ids = append(ids, r.Video.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestSetFolderNotes(t *testing.T) {
	manager := newTestManager(t)
	require.NoError(t, manager.AddFolder("music"))

	require.NoError(t, manager.SetFolderNotes("music", "mostly live sets"))

	folder, err := manager.Folder("music")
	require.NoError(t, err)
	assert.Equal(t, "mostly live sets", folder.Notes)

	assert.ErrorIs(t, manager.SetFolderNotes("nope", "x"), ErrFolderNotFound)
}

func TestSetMetadata(t *testing.T) {
	manager := newTestManager(t)
	mustAddVideo(t, manager, "music", models.Video{ID: "v1", Title: "placeholder"})

	err := manager.SetMetadata("music", "v1", models.Metadata{
		Title:        "Fetched Title",
		Channel:      "Fetched Channel",
		ThumbnailURL: "https://i.ytimg.com/vi/v1/hqdefault.jpg",
	})
	require.NoError(t, err)

	got, err := manager.FindVideo("music", "v1")
	require.NoError(t, err)
	assert.Equal(t, "Fetched Title", got.Title)
	assert.Equal(t, "Fetched Channel", got.Channel)
	assert.NotEmpty(t, got.ThumbnailURL)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "data_store.json")

	manager, err := NewManager(dataPath)
	require.NoError(t, err)
	mustAddVideo(t, manager, "music", models.Video{ID: "v1", Title: "kept"})
	require.NoError(t, manager.Close())

	reopened, err := NewManager(dataPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.FindVideo("music", "v1")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Title)
	assert.Equal(t, 1, reopened.VideoCount())
}

func TestDocumentReturnsCopy(t *testing.T) {
	manager := newTestManager(t)
	mustAddVideo(t, manager, "music", models.Video{ID: "v1"})

	doc := manager.Document()
	doc.Folders["music"].Videos[0].Title = "mutated"
	delete(doc.Folders, "music")

	got, err := manager.FindVideo("music", "v1")
	require.NoError(t, err)
	assert.Empty(t, got.Title)
}
