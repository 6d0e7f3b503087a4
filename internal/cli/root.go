// Package cli implements the command-line interface for folio.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kilupskalvis/folio/internal/config"
	"github.com/kilupskalvis/folio/internal/core"
	"github.com/kilupskalvis/folio/internal/editor"
	"github.com/spf13/cobra"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Workspace *core.Workspace
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Workspace != nil {
		c.Workspace.Close()
	}
}

// initContext opens the workspace of the current directory
func initContext() *cmdContext {
	ws, err := core.Open(newLogger(os.Stderr))
	if err != nil {
		exitError("%v", err)
	}
	return &cmdContext{Workspace: ws}
}

var (
	pageFlag      string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Block editor for a portfolio site",
	Long: `folio edits the pages of a portfolio site as a list of content blocks.
Pages are saved in a local .folio workspace with full undo history and
published to a GitHub repository.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&pageFlag, "page", "p", config.DefaultPage, "Page to operate on")
	pf.StringVar(&logLevelFlag, "log-level", envOrDefault("FOLIO_LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")
	pf.StringVar(&logFormatFlag, "log-format", envOrDefault("FOLIO_LOG_FORMAT", "text"), "Log format (json|text)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(blocksCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(panelCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(duplicateCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(deselectCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(mediaCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

// newLogger builds the slog logger selected by the log flags.
func newLogger(w *os.File) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(logLevelFlag) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}
	if logFormatFlag == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// envOrDefault returns the value of the environment variable key, or defaultVal if unset.
func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// describeResult prints a one-line summary of an applied command.
func describeResult(res editor.Result) {
	switch res.Command {
	case core.OpSelect:
		fmt.Printf("Selected %s\n", res.BlockID)
		return
	case core.OpDeselect:
		fmt.Println("Selection cleared")
		return
	}
	if !res.Changed {
		fmt.Println("No change")
		return
	}
	if res.BlockID != "" {
		fmt.Printf("%s: %s\n", res.Command, res.BlockID)
		return
	}
	fmt.Println(res.Command)
}
