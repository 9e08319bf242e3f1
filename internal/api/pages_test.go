package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appanote/pkg/models"
)

// doForm submits an HTML form through the router
func (e *testEnv) doForm(target string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.server.router.ServeHTTP(w, req)
	return w
}

func writeTestPost(t *testing.T, env *testEnv, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(env.config.PostsDir, name), []byte(content), 0644))
}

func TestHomePage(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do("GET", "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "AppaNote")
}

func TestBlogIndexPage(t *testing.T) {
	env := newTestEnv(t, nil)

	writeTestPost(t, env, "first.md", `---
title: First Post
date: 2026-03-01T00:00:00Z
summary: An opening post.
---
# First Post

hello`)

	w := env.do("GET", "/blog", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "First Post")
	assert.Contains(t, body, "An opening post.")
	assert.Contains(t, body, `href="/blog/first"`)
}

func TestBlogPostPage(t *testing.T) {
	env := newTestEnv(t, nil)

	writeTestPost(t, env, "hello.md", "# Hello\n\nSome **bold** text.")

	w := env.do("GET", "/blog/hello", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<strong>bold</strong>")
}

func TestBlogPostNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do("GET", "/blog/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLibraryPage(t *testing.T) {
	env := newTestEnv(t, nil)
	seedVideo(t, env, "music", models.Video{ID: "v1", Title: "A Live Set", Channel: "DJ"})

	w := env.do("GET", "/library", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "A Live Set")
	assert.Contains(t, body, "DJ")
}

func TestLibrarySearch(t *testing.T) {
	env := newTestEnv(t, nil)
	seedVideo(t, env, "music", models.Video{ID: "v1", Title: "Jazz Hour"})
	seedVideo(t, env, "cooking", models.Video{ID: "v2", Title: "Bread"})

	w := env.do("GET", "/library?q=jazz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Jazz Hour")
	assert.NotContains(t, body, "Bread")
}

func TestWatchPage(t *testing.T) {
	env := newTestEnv(t, nil)
	seedVideo(t, env, "music", models.Video{
		ID:    "v1",
		URL:   "https://www.youtube.com/watch?v=v1",
		Title: "Player Test",
		Notes: "my notes",
	})

	w := env.do("GET", "/library/watch?folder=music&id=v1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Player Test")
	assert.Contains(t, body, "youtube.com/embed/v1")
	assert.Contains(t, body, "vq=highres")
	assert.Contains(t, body, "my notes")
}

func TestWatchPageQuality(t *testing.T) {
	env := newTestEnv(t, nil)
	seedVideo(t, env, "music", models.Video{
		ID:  "v1",
		URL: "https://youtu.be/v1",
	})

	w := env.do("GET", "/library/watch?folder=music&id=v1&quality=hd720", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vq=hd720")

	// Unknown quality falls back to the default
	w = env.do("GET", "/library/watch?folder=music&id=v1&quality=bogus", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vq=highres")
}

func TestWatchPageNonYouTubeLink(t *testing.T) {
	env := newTestEnv(t, nil)
	seedVideo(t, env, "talks", models.Video{
		ID:    "deadbeef",
		URL:   "https://example.com/clip.mp4",
		Title: "Conference Talk",
	})

	w := env.do("GET", "/library/watch?folder=talks&id=deadbeef", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, "youtube.com/embed")
	assert.Contains(t, body, `href="https://example.com/clip.mp4"`)
}

func TestWatchPageNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do("GET", "/library/watch?folder=music&id=missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFormAddFolder(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.doForm("/library/folders", url.Values{"name": {"music"}})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"music"}, env.store.Folders())

	// Duplicate folder redirects back with an error
	w = env.doForm("/library/folders", url.Values{"name": {"music"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "error=")
}

func TestFormAddVideo(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.store.AddFolder("music"))

	w := env.doForm("/library/videos", url.Values{
		"url":    {"https://www.youtube.com/watch?v=abc123"},
		"folder": {"music"},
		"tags":   {"live, jazz"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)

	video, err := env.store.FindVideo("music", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Stub Title", video.Title)
	assert.Equal(t, []string{"live", "jazz"}, video.Tags)
}

func TestFormAddVideoFetchFailureStillStores(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	require.NoError(t, env.store.AddFolder("music"))

	// Refresher is not running, so the follow-up queue attempt fails
	// too; the record is still stored and the redirect carries no error
	w := env.doForm("/library/videos", url.Values{
		"url":    {"https://www.youtube.com/watch?v=abc123"},
		"folder": {"music"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.NotContains(t, w.Header().Get("Location"), "error=")

	video, err := env.store.FindVideo("music", "abc123")
	require.NoError(t, err)
	assert.Empty(t, video.Title)
}

func TestFormAddVideoRequiresURL(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.doForm("/library/videos", url.Values{"folder": {"music"}})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "error=")
}

func TestFormToggles(t *testing.T) {
	env := newTestEnv(t, nil)
	seedVideo(t, env, "music", models.Video{ID: "v1"})

	w := env.doForm("/library/videos/toggle-watched", url.Values{"folder": {"music"}, "id": {"v1"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	video, err := env.store.FindVideo("music", "v1")
	require.NoError(t, err)
	assert.True(t, video.Watched)

	w = env.doForm("/library/videos/toggle-later", url.Values{"folder": {"music"}, "id": {"v1"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	video, err = env.store.FindVideo("music", "v1")
	require.NoError(t, err)
	assert.True(t, video.WatchLater)
}

func TestFormSaveNotes(t *testing.T) {
	env := newTestEnv(t, nil)
	seedVideo(t, env, "music", models.Video{ID: "v1"})

	w := env.doForm("/library/videos/notes", url.Values{
		"folder": {"music"},
		"id":     {"v1"},
		"notes":  {"remember the bridge at 3:40"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/library/watch")

	video, err := env.store.FindVideo("music", "v1")
	require.NoError(t, err)
	assert.Equal(t, "remember the bridge at 3:40", video.Notes)
}

func TestFormMoveAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	seedVideo(t, env, "src", models.Video{ID: "v1"})

	w := env.doForm("/library/videos/move", url.Values{"folder": {"src"}, "id": {"v1"}, "to": {"dst"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	_, err := env.store.FindVideo("dst", "v1")
	require.NoError(t, err)

	w = env.doForm("/library/videos/delete", url.Values{"folder": {"dst"}, "id": {"v1"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	_, err = env.store.FindVideo("dst", "v1")
	assert.Error(t, err)
}
