package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"watch URL with extra params", "https://www.youtube.com/watch?v=abc123&t=42s", "abc123", false},
		{"short URL", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"shorts URL", "https://www.youtube.com/shorts/xyz789", "xyz789", false},
		{"embed URL", "https://www.youtube.com/embed/xyz789", "xyz789", false},
		{"mobile URL", "https://m.youtube.com/watch?v=abc123", "abc123", false},
		{"music URL", "https://music.youtube.com/watch?v=abc123", "abc123", false},
		{"watch without v param", "https://www.youtube.com/watch", "", true},
		{"bare shorts path", "https://www.youtube.com/shorts/", "", true},
		{"empty youtu.be path", "https://youtu.be/", "", true},
		{"non-YouTube URL", "https://vimeo.com/12345", "", true},
		{"not a URL", "://nope", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrVideoIDNotFound)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsYouTubeURL(t *testing.T) {
	assert.True(t, IsYouTubeURL("https://www.youtube.com/watch?v=abc"))
	assert.True(t, IsYouTubeURL("https://youtu.be/abc"))
	assert.False(t, IsYouTubeURL("https://example.com/video.mp4"))
	assert.False(t, IsYouTubeURL("not a url"))
}
