// Package blog renders a directory of Markdown files as pages.
package blog

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var ErrPostNotFound = errors.New("post not found")

// Post holds the metadata of a single blog post
type Post struct {
	Slug     string
	Title    string
	Summary  string
	Author   string
	Tags     []string
	Date     time.Time
	Draft    bool
	Path     string
	Modified time.Time
}

// postFrontMatter is the metadata block at the top of a post file
type postFrontMatter struct {
	Title   string    `yaml:"title"`
	Slug    string    `yaml:"slug"`
	Summary string    `yaml:"summary"`
	Author  string    `yaml:"author"`
	Tags    []string  `yaml:"tags"`
	Date    time.Time `yaml:"date"`
	Draft   bool      `yaml:"draft"`
}

// renderedPost is a cached render, invalidated by file modification time
type renderedPost struct {
	html     template.HTML
	modified time.Time
}

// Manager lists and renders the Markdown posts in a directory
type Manager struct {
	mu       sync.RWMutex
	postsDir string
	md       goldmark.Markdown
	cache    map[string]renderedPost
}

// NewManager creates a blog manager over postsDir.
// The directory is created if it doesn't exist.
func NewManager(postsDir string) (*Manager, error) {
	if err := os.MkdirAll(postsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create posts directory: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	return &Manager{
		postsDir: postsDir,
		md:       md,
		cache:    make(map[string]renderedPost),
	}, nil
}

// PostsDir returns the posts directory path
func (m *Manager) PostsDir() string {
	return m.postsDir
}

// Posts returns all non-draft posts, newest first
func (m *Manager) Posts() ([]Post, error) {
	posts, err := m.scan()
	if err != nil {
		return nil, err
	}

	visible := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.Draft {
			continue
		}
		visible = append(visible, p)
	}

	sort.Slice(visible, func(i, j int) bool {
		if !visible[i].Date.Equal(visible[j].Date) {
			return visible[i].Date.After(visible[j].Date)
		}
		return visible[i].Title < visible[j].Title
	})

	return visible, nil
}

// Post returns a single post by slug together with its rendered body
func (m *Manager) Post(slug string) (Post, template.HTML, error) {
	posts, err := m.scan()
	if err != nil {
		return Post{}, "", err
	}

	for _, p := range posts {
		if p.Slug != slug || p.Draft {
			continue
		}

		html, err := m.render(p)
		if err != nil {
			return Post{}, "", err
		}
		return p, html, nil
	}

	return Post{}, "", ErrPostNotFound
}

// scan lists the Markdown files in the posts directory and parses their
// frontmatter. Body rendering happens lazily in render.
func (m *Manager) scan() ([]Post, error) {
	entries, err := os.ReadDir(m.postsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts directory: %w", err)
	}

	posts := make([]Post, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".md") {
			continue
		}

		path := filepath.Join(m.postsDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}

		source, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		post, err := parsePost(entry.Name(), path, source, info.ModTime())
		if err != nil {
			// A malformed post shouldn't take the whole blog down
			continue
		}

		posts = append(posts, post)
	}

	return posts, nil
}

// parsePost builds a Post from a file's frontmatter and body
func parsePost(fileName, path string, source []byte, modified time.Time) (Post, error) {
	var meta postFrontMatter

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return Post{}, fmt.Errorf("parse frontmatter: %w", err)
	}

	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	slug := meta.Slug
	if slug == "" {
		slug = base
	}

	title := meta.Title
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		title = base
	}

	return Post{
		Slug:     slug,
		Title:    title,
		Summary:  meta.Summary,
		Author:   meta.Author,
		Tags:     meta.Tags,
		Date:     meta.Date,
		Draft:    meta.Draft,
		Path:     path,
		Modified: modified,
	}, nil
}

// firstHeading returns the text of the first level-one heading, if any
func firstHeading(body []byte) string {
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

// render converts a post body to HTML, using the cache when the file
// hasn't changed since the last render.
func (m *Manager) render(post Post) (template.HTML, error) {
	m.mu.RLock()
	cached, ok := m.cache[post.Slug]
	m.mu.RUnlock()

	if ok && cached.modified.Equal(post.Modified) {
		return cached.html, nil
	}

	source, err := os.ReadFile(post.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read post: %w", err)
	}

	var meta postFrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return "", fmt.Errorf("parse frontmatter: %w", err)
	}

	var buf bytes.Buffer
	if err := m.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}

	html := template.HTML(buf.String())

	m.mu.Lock()
	m.cache[post.Slug] = renderedPost{html: html, modified: post.Modified}
	m.mu.Unlock()

	return html, nil
}
