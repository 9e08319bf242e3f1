package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// CommandType represents the type of CLI command
type CommandType int

const (
	CommandHelp CommandType = iota
	CommandVersion
	CommandServe
	CommandAdd
	CommandFetch
	CommandBackup
	CommandRestore
)

// Command represents a parsed CLI command
type Command struct {
	Type     CommandType
	Port     int
	URL      string
	Folder   string
	Path     string
	DataFile string
	PostsDir string
}

// String returns a string representation of the command
func (c *Command) String() string {
	switch c.Type {
	case CommandHelp:
		return "help"
	case CommandVersion:
		return "version"
	case CommandServe:
		return fmt.Sprintf("serve (port: %d)", c.Port)
	case CommandAdd:
		return fmt.Sprintf("add (url: %s, folder: %s)", c.URL, c.Folder)
	case CommandFetch:
		if c.URL != "" {
			return fmt.Sprintf("fetch (url: %s)", c.URL)
		}
		return "fetch"
	case CommandBackup:
		if c.Path != "" {
			return fmt.Sprintf("backup (dir: %s)", c.Path)
		}
		return "backup"
	case CommandRestore:
		return fmt.Sprintf("restore (file: %s)", c.Path)
	default:
		return "unknown"
	}
}

// CLI represents the command-line interface
type CLI struct {
	version string
}

// NewCLI creates a new CLI instance
func NewCLI(version string) *CLI {
	return &CLI{
		version: version,
	}
}

// ParseCommand parses command-line arguments and returns a Command
func (c *CLI) ParseCommand(args []string) (*Command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no command specified")
	}

	// Check for global flags first
	if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		return &Command{Type: CommandHelp}, nil
	}

	if args[0] == "-v" || args[0] == "--version" || args[0] == "version" {
		return &Command{Type: CommandVersion}, nil
	}

	// Parse subcommands
	switch args[0] {
	case "serve":
		return c.parseServeCommand(args[1:])
	case "add":
		return c.parseAddCommand(args[1:])
	case "fetch":
		return c.parseFetchCommand(args[1:])
	case "backup":
		return c.parseBackupCommand(args[1:])
	case "restore":
		return c.parseRestoreCommand(args[1:])
	default:
		return nil, fmt.Errorf("unknown command: %s", args[0])
	}
}

// parseServeCommand parses the serve command
func (c *CLI) parseServeCommand(args []string) (*Command, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.Int("port", 0, "Server port (config value if 0)")
	dataFile := fs.String("data", "", "Data store file (config value if empty)")
	postsDir := fs.String("posts", "", "Posts directory (config value if empty)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &Command{
		Type:     CommandServe,
		Port:     *port,
		DataFile: *dataFile,
		PostsDir: *postsDir,
	}, nil
}

// parseFetchCommand parses the fetch command.
// With a URL argument it fetches metadata for that URL; without one it
// refreshes stored videos that are missing metadata.
func (c *CLI) parseFetchCommand(args []string) (*Command, error) {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &Command{
		Type: CommandFetch,
		URL:  fs.Arg(0),
	}, nil
}

// parseAddCommand parses the add command
func (c *CLI) parseAddCommand(args []string) (*Command, error) {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	folder := fs.String("folder", "inbox", "Folder to add the video to")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() == 0 {
		return nil, fmt.Errorf("add requires a video URL")
	}

	return &Command{
		Type:   CommandAdd,
		URL:    fs.Arg(0),
		Folder: *folder,
	}, nil
}

// parseBackupCommand parses the backup command
func (c *CLI) parseBackupCommand(args []string) (*Command, error) {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	dir := fs.String("dir", "", "Backup directory (config value if empty)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &Command{
		Type: CommandBackup,
		Path: *dir,
	}, nil
}

// parseRestoreCommand parses the restore command
func (c *CLI) parseRestoreCommand(args []string) (*Command, error) {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() == 0 {
		return nil, fmt.Errorf("restore requires a backup file path")
	}

	return &Command{
		Type: CommandRestore,
		Path: fs.Arg(0),
	}, nil
}

// PrintHelp prints the help message
func (c *CLI) PrintHelp(w io.Writer) {
	help := `AppaNote - personal blog and YouTube video library

Usage:
  appanote [command] [flags]

Available Commands:
  serve       Start the web server (blog, library and JSON API)
  add         Add a video URL to the library
  fetch       Print fetched metadata for a URL as JSON, or refresh
              stored videos missing metadata when no URL is given
  backup      Write a backup of the video store
  restore     Replace the video store from a backup file
  version     Print version information
  help        Print this help message

Serve Flags:
  -port int      Server port (config value if 0)
  -data string   Data store file (config value if empty)
  -posts string  Posts directory (config value if empty)

Add Flags:
  -folder string   Folder to add the video to (default: inbox)

Backup Flags:
  -dir string   Backup directory (config value if empty)

Examples:
  appanote serve
  appanote serve -port 9000 -posts ./posts
  appanote add https://www.youtube.com/watch?v=dQw4w9WgXcQ
  appanote add -folder music https://youtu.be/dQw4w9WgXcQ
  appanote fetch https://youtu.be/dQw4w9WgXcQ
  appanote fetch
  appanote backup
  appanote restore backups/backup-20260101-120000.json
  appanote version
`
	fmt.Fprint(w, help)
}

// PrintVersion prints the version information
func (c *CLI) PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "AppaNote version %s\n", c.version)
}

// Run executes the CLI with the given arguments
func (c *CLI) Run(args []string) int {
	cmd, err := c.ParseCommand(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		c.PrintHelp(os.Stderr)
		return 1
	}

	switch cmd.Type {
	case CommandHelp:
		c.PrintHelp(os.Stdout)
		return 0
	case CommandVersion:
		c.PrintVersion(os.Stdout)
		return 0
	default:
		// Other commands will be handled by the main function
		return 0
	}
}
