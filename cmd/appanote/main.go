package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"appanote/internal/api"
	"appanote/internal/blog"
	"appanote/internal/cli"
	"appanote/internal/config"
	"appanote/internal/logging"
	"appanote/internal/metadata"
	"appanote/internal/refresh"
	"appanote/internal/store"
	"appanote/pkg/models"
)

const Version = "0.1.0"

func main() {
	// Create CLI instance
	cliApp := cli.NewCLI(Version)

	// Parse command-line arguments
	if len(os.Args) < 2 {
		cliApp.PrintHelp(os.Stderr)
		os.Exit(1)
	}

	cmd, err := cliApp.ParseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		cliApp.PrintHelp(os.Stderr)
		os.Exit(1)
	}

	// Handle help and version commands
	if cmd.Type == cli.CommandHelp {
		cliApp.PrintHelp(os.Stdout)
		os.Exit(0)
	}

	if cmd.Type == cli.CommandVersion {
		cliApp.PrintVersion(os.Stdout)
		os.Exit(0)
	}

	// Execute command
	exitCode := executeCommand(cmd)
	os.Exit(exitCode)
}

func executeCommand(cmd *cli.Command) int {
	switch cmd.Type {
	case cli.CommandServe:
		return runServe(cmd)
	case cli.CommandAdd:
		return runAdd(cmd.URL, cmd.Folder)
	case cli.CommandFetch:
		return runFetch(cmd.URL)
	case cli.CommandBackup:
		return runBackup(cmd.Path)
	case cli.CommandRestore:
		return runRestore(cmd.Path)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd.String())
		return 1
	}
}

// resolvePath resolves a config path against the data directory
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(config.GetDataDir(), path)
}

func runServe(cmd *cli.Command) int {
	// Initialize configuration
	configPath := config.GetDefaultConfigPath()
	cfgMgr, err := config.NewManager(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// Get config and apply flag overrides
	cfg := cfgMgr.Get()
	if cmd.Port != 0 {
		cfg.WebServerPort = cmd.Port
	}
	if cmd.DataFile != "" {
		cfg.DataFile = cmd.DataFile
	}
	if cmd.PostsDir != "" {
		cfg.PostsDir = cmd.PostsDir
	}
	cfg.DataFile = resolvePath(cfg.DataFile)
	cfg.PostsDir = resolvePath(cfg.PostsDir)
	cfg.BackupDir = resolvePath(cfg.BackupDir)

	logger := logging.New(os.Stderr, cfg.LogLevel)

	// Open the video store
	storeMgr, err := store.NewManager(cfg.DataFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return 1
	}
	defer storeMgr.Close()

	// Initialize the blog manager
	blogMgr, err := blog.NewManager(cfg.PostsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading posts: %v\n", err)
		return 1
	}

	// Initialize API server (metadata client and refresher are created inside)
	server, err := api.NewServer(cfg, storeMgr, blogMgr, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		return 1
	}

	fmt.Printf("Server listening on :%d\n", cfg.WebServerPort)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return 1
	}

	// Keep server running (Start returns immediately)
	select {}
}

func runAdd(videoURL, folderName string) int {
	configPath := config.GetDefaultConfigPath()
	cfgMgr, err := config.NewManager(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	cfg := cfgMgr.Get()

	storeMgr, err := store.NewManager(resolvePath(cfg.DataFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return 1
	}
	defer storeMgr.Close()

	video, err := buildVideo(cfg, videoURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: metadata fetch failed: %v\n", err)
	}

	stored, err := storeMgr.AddVideo(folderName, video)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding video: %v\n", err)
		return 1
	}

	if stored.Title != "" {
		fmt.Printf("Added %q to %s (id: %s)\n", stored.Title, folderName, stored.ID)
	} else {
		fmt.Printf("Added %s to %s (id: %s)\n", stored.URL, folderName, stored.ID)
	}
	return 0
}

// runFetch prints metadata for a URL, or refreshes stored videos
// missing metadata when no URL is given
func runFetch(videoURL string) int {
	configPath := config.GetDefaultConfigPath()
	cfgMgr, err := config.NewManager(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	cfg := cfgMgr.Get()

	if videoURL != "" {
		return fetchOne(cfg, videoURL)
	}

	storeMgr, err := store.NewManager(resolvePath(cfg.DataFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return 1
	}
	defer storeMgr.Close()

	logger := logging.New(os.Stderr, cfg.LogLevel)
	client := metadata.NewClient(cfg)
	refresher := refresh.NewRefresher(client, storeMgr, logger, cfg.RefreshWorkers)

	if err := refresher.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting refresher: %v\n", err)
		return 1
	}
	defer refresher.Stop()

	queued := refresher.QueueStale()
	if queued == 0 {
		fmt.Println("All videos have metadata")
		return 0
	}

	fmt.Printf("Fetching metadata for %d video(s)...\n", queued)
	for refresher.Pending() > 0 {
		time.Sleep(200 * time.Millisecond)
	}

	fmt.Println("Done")
	return 0
}

// fetchOne fetches metadata for a single URL and prints it as JSON
func fetchOne(cfg *models.Config, videoURL string) int {
	client := metadata.NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.FetchTimeoutSeconds)*time.Second)
	defer cancel()

	meta, err := client.Fetch(ctx, videoURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching metadata: %v\n", err)
		return 1
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding metadata: %v\n", err)
		return 1
	}

	fmt.Println(string(data))
	return 0
}

func runBackup(dir string) int {
	configPath := config.GetDefaultConfigPath()
	cfgMgr, err := config.NewManager(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	cfg := cfgMgr.Get()

	if dir == "" {
		dir = resolvePath(cfg.BackupDir)
	}

	storeMgr, err := store.NewManager(resolvePath(cfg.DataFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return 1
	}
	defer storeMgr.Close()

	path, err := storeMgr.Backup(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing backup: %v\n", err)
		return 1
	}

	fmt.Printf("Backup written to %s\n", path)
	return 0
}

func runRestore(path string) int {
	configPath := config.GetDefaultConfigPath()
	cfgMgr, err := config.NewManager(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	cfg := cfgMgr.Get()

	storeMgr, err := store.NewManager(resolvePath(cfg.DataFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return 1
	}
	defer storeMgr.Close()

	if err := storeMgr.RestoreFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error restoring backup: %v\n", err)
		return 1
	}

	fmt.Printf("Store restored from %s (%d videos)\n", path, storeMgr.VideoCount())
	return 0
}

// buildVideo assembles a video record from a URL, filling in what the
// oEmbed endpoint returns
func buildVideo(cfg *models.Config, videoURL string) (models.Video, error) {
	video := models.Video{URL: videoURL}
	if id, err := metadata.ExtractVideoID(videoURL); err == nil {
		video.ID = id
	}

	client := metadata.NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.FetchTimeoutSeconds)*time.Second)
	defer cancel()

	meta, err := client.Fetch(ctx, videoURL)
	if err != nil {
		return video, err
	}

	video.Title = meta.Title
	video.Channel = meta.Channel
	video.Duration = meta.Duration
	video.PublishedAt = meta.PublishedAt
	video.Description = meta.Description
	video.ThumbnailURL = meta.ThumbnailURL
	return video, nil
}
