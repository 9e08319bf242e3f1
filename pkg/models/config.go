package models

// Config represents the application configuration
type Config struct {
	WebServerPort       int    `json:"webServerPort"`
	DataFile            string `json:"dataFile"`
	PostsDir            string `json:"postsDir"`
	BackupDir           string `json:"backupDir"`
	OEmbedEndpoint      string `json:"oembedEndpoint"`
	YouTubeAPIEndpoint  string `json:"youtubeApiEndpoint"`
	YouTubeAPIKey       string `json:"youtubeApiKey"`
	FetchTimeoutSeconds int    `json:"fetchTimeoutSeconds"`
	MetadataCacheTTLMin int    `json:"metadataCacheTtlMinutes"`
	RefreshWorkers      int    `json:"refreshWorkers"`
	SiteTitle           string `json:"siteTitle"`
	BlogTitle           string `json:"blogTitle"`
	LogLevel            string `json:"logLevel"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		WebServerPort:       8787,
		DataFile:            "data_store.json",
		PostsDir:            "posts",
		BackupDir:           "backups",
		OEmbedEndpoint:      "https://www.youtube.com/oembed",
		YouTubeAPIEndpoint:  "https://www.googleapis.com/youtube/v3/videos",
		YouTubeAPIKey:       "",
		FetchTimeoutSeconds: 10,
		MetadataCacheTTLMin: 60,
		RefreshWorkers:      2,
		SiteTitle:           "AppaNote",
		BlogTitle:           "Blog",
		LogLevel:            "info",
	}
}
