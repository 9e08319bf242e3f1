package api

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"appanote/internal/blog"
	"appanote/internal/metadata"
	"appanote/internal/refresh"
	"appanote/pkg/models"
)

// pageData carries the fields every page template needs
type pageData struct {
	SiteTitle string
	PageTitle string
}

// videoCard pairs a video with its folder for rendering
type videoCard struct {
	Folder string
	Video  models.Video
}

func (s *Server) page(title string) pageData {
	return pageData{
		SiteTitle: s.config.SiteTitle,
		PageTitle: title,
	}
}

// renderPage executes a page template
func (s *Server) renderPage(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("template render failed")
	}
}

// handleHome renders the landing page linking both tools
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	posts, err := s.blog.Posts()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to list posts")
	}

	s.renderPage(w, "home.html", struct {
		pageData
		BlogTitle   string
		PostCount   int
		FolderCount int
		VideoCount  int
	}{
		pageData:    s.page("Home"),
		BlogTitle:   s.config.BlogTitle,
		PostCount:   len(posts),
		FolderCount: len(s.store.Folders()),
		VideoCount:  s.store.VideoCount(),
	})
}

// handleBlogIndex lists all published posts
func (s *Server) handleBlogIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := s.blog.Posts()
	if err != nil {
		http.Error(w, "failed to list posts", http.StatusInternalServerError)
		return
	}

	s.renderPage(w, "blog_index.html", struct {
		pageData
		BlogTitle string
		Posts     []blog.Post
	}{
		pageData:  s.page(s.config.BlogTitle),
		BlogTitle: s.config.BlogTitle,
		Posts:     posts,
	})
}

// handleBlogPost renders a single post
func (s *Server) handleBlogPost(w http.ResponseWriter, r *http.Request) {
	slug := urlParam(r, "slug")

	post, body, err := s.blog.Post(slug)
	if err != nil {
		if errors.Is(err, blog.ErrPostNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to render post", http.StatusInternalServerError)
		return
	}

	s.renderPage(w, "blog_post.html", struct {
		pageData
		Post blog.Post
		Body template.HTML
	}{
		pageData: s.page(post.Title),
		Post:     post,
		Body:     body,
	})
}

// handleLibrary renders the video library grid
func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	folders := s.store.Folders()
	active := r.URL.Query().Get("folder")
	query := r.URL.Query().Get("q")
	errMsg := r.URL.Query().Get("error")

	if active == "" && len(folders) > 0 {
		active = folders[0]
	}

	var cards []videoCard
	if query != "" {
		for _, result := range s.store.Search(query) {
			cards = append(cards, videoCard{Folder: result.Folder, Video: result.Video})
		}
	} else if active != "" {
		if folder, err := s.store.Folder(active); err == nil {
			for _, v := range folder.Videos {
				cards = append(cards, videoCard{Folder: active, Video: v})
			}
		}
	}

	s.renderPage(w, "library.html", struct {
		pageData
		Folders      []string
		ActiveFolder string
		Query        string
		Error        string
		Cards        []videoCard
	}{
		pageData:     s.page("Library"),
		Folders:      folders,
		ActiveFolder: active,
		Query:        query,
		Error:        errMsg,
		Cards:        cards,
	})
}

// watchQualities are the playback qualities offered on the watch page
var watchQualities = []string{"highres", "hd1080", "hd720", "large", "medium"}

// handleWatch renders the player page with the notes editor.
// Records that aren't YouTube videos get a plain link instead of an
// embedded player.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	folderName := r.URL.Query().Get("folder")
	id := r.URL.Query().Get("id")

	video, err := s.store.FindVideo(folderName, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	quality := r.URL.Query().Get("quality")
	if !validQuality(quality) {
		quality = watchQualities[0]
	}

	embedURL := ""
	if metadata.IsYouTubeURL(video.URL) {
		embedURL = fmt.Sprintf("https://www.youtube.com/embed/%s?autoplay=1&vq=%s",
			url.PathEscape(video.ID), url.QueryEscape(quality))
	}

	s.renderPage(w, "watch.html", struct {
		pageData
		Folder    string
		Folders   []string
		Video     models.Video
		EmbedURL  string
		Quality   string
		Qualities []string
	}{
		pageData:  s.page(video.Title),
		Folder:    folderName,
		Folders:   s.store.Folders(),
		Video:     video,
		EmbedURL:  embedURL,
		Quality:   quality,
		Qualities: watchQualities,
	})
}

func validQuality(q string) bool {
	for _, known := range watchQualities {
		if q == known {
			return true
		}
	}
	return false
}

// redirectToLibrary sends the browser back to the library page
func redirectToLibrary(w http.ResponseWriter, r *http.Request, folder, errMsg string) {
	q := url.Values{}
	if folder != "" {
		q.Set("folder", folder)
	}
	if errMsg != "" {
		q.Set("error", errMsg)
	}

	target := "/library"
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleFormAddFolder handles the add-folder form
func (s *Server) handleFormAddFolder(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))

	if err := s.store.AddFolder(name); err != nil {
		redirectToLibrary(w, r, "", err.Error())
		return
	}

	redirectToLibrary(w, r, name, "")
}

// handleFormAddVideo handles the add-video form
func (s *Server) handleFormAddVideo(w http.ResponseWriter, r *http.Request) {
	videoURL := strings.TrimSpace(r.FormValue("url"))
	folderName := r.FormValue("folder")

	if videoURL == "" {
		redirectToLibrary(w, r, folderName, "URL required")
		return
	}
	if folderName == "" {
		redirectToLibrary(w, r, "", "folder required")
		return
	}

	video := s.buildVideo(r, addVideoRequest{
		URL:  videoURL,
		Tags: splitTags(r.FormValue("tags")),
	})

	stored, err := s.store.AddVideo(folderName, video)
	if err != nil {
		redirectToLibrary(w, r, folderName, err.Error())
		return
	}

	if stored.Title == "" || stored.ThumbnailURL == "" {
		if err := s.refresher.Queue(folderName, stored.ID, stored.URL); err != nil && !errors.Is(err, refresh.ErrAlreadyQueued) {
			s.logger.Debug().Err(err).Str("video", stored.ID).Msg("refresh not queued")
		}
	}

	redirectToLibrary(w, r, folderName, "")
}

// handleFormToggleWatched flips the watched flag
func (s *Server) handleFormToggleWatched(w http.ResponseWriter, r *http.Request) {
	folderName := r.FormValue("folder")

	if _, err := s.store.ToggleWatched(folderName, r.FormValue("id")); err != nil {
		redirectToLibrary(w, r, folderName, err.Error())
		return
	}

	redirectToLibrary(w, r, folderName, "")
}

// handleFormToggleLater flips the watch-later flag
func (s *Server) handleFormToggleLater(w http.ResponseWriter, r *http.Request) {
	folderName := r.FormValue("folder")

	if _, err := s.store.ToggleWatchLater(folderName, r.FormValue("id")); err != nil {
		redirectToLibrary(w, r, folderName, err.Error())
		return
	}

	redirectToLibrary(w, r, folderName, "")
}

// handleFormSaveNotes saves the notes from the player page
func (s *Server) handleFormSaveNotes(w http.ResponseWriter, r *http.Request) {
	folderName := r.FormValue("folder")
	id := r.FormValue("id")
	notes := r.FormValue("notes")

	if err := s.store.UpdateVideo(folderName, id, models.VideoUpdate{Notes: &notes}); err != nil {
		redirectToLibrary(w, r, folderName, err.Error())
		return
	}

	http.Redirect(w, r, "/library/watch?folder="+url.QueryEscape(folderName)+"&id="+url.QueryEscape(id), http.StatusSeeOther)
}

// handleFormMoveVideo moves a video between folders
func (s *Server) handleFormMoveVideo(w http.ResponseWriter, r *http.Request) {
	src := r.FormValue("folder")
	dst := r.FormValue("to")

	if err := s.store.MoveVideo(src, dst, r.FormValue("id")); err != nil {
		redirectToLibrary(w, r, src, err.Error())
		return
	}

	redirectToLibrary(w, r, dst, "")
}

// handleFormDeleteVideo removes a video
func (s *Server) handleFormDeleteVideo(w http.ResponseWriter, r *http.Request) {
	folderName := r.FormValue("folder")

	if err := s.store.DeleteVideo(folderName, r.FormValue("id")); err != nil {
		redirectToLibrary(w, r, folderName, err.Error())
		return
	}

	redirectToLibrary(w, r, folderName, "")
}

// splitTags turns a comma-separated tag string into a slice
func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
