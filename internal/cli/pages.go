package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/kilupskalvis/folio/internal/core"
	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the page locally",
	Long:  `Save the page being edited as its stored content. 'folio restore' returns to this state.`,
	Args:  cobra.NoArgs,
	Run:   runSave,
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the page with its saved content",
	Long: `Replace the page being edited with its last saved content. The
replacement is recorded in history, so 'folio undo' brings the edits back.`,
	Args: cobra.NoArgs,
	Run:  runRestore,
}

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List the saved pages",
	Args:  cobra.NoArgs,
	Run:   runPages,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the page as HTML or Markdown",
	Long: `Render the page being edited.

Formats:
  html      block markup, as saved and published
  page      a standalone HTML document for previewing
  markdown  the readable text of the page

Without --output the result is written to standard output.`,
	Args: cobra.NoArgs,
	Run:  runExport,
}

var (
	exportFormat string
	exportOutput string
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", core.FormatHTML, "Output format (html|page|markdown)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file; a bare name is placed in .folio/exports")
}

func runSave(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	rec, err := c.Workspace.SavePage(pageFlag)
	if err != nil {
		exitError("failed to save: %v", err)
	}
	color.New(color.FgGreen).Printf("Saved %s ", pageFlag)
	fmt.Printf("(%d bytes, %s)\n", len(rec.HTMLContent), rec.LastModified.Local().Format(time.DateTime))
}

func runRestore(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	res, rec, err := c.Workspace.Restore(pageFlag)
	if err != nil {
		exitError("failed to restore: %v", err)
	}
	if !res.Changed {
		fmt.Println("Page already matches the saved content")
		return
	}
	color.New(color.FgGreen).Printf("Restored %s ", pageFlag)
	fmt.Printf("from %s\n", rec.LastModified.Local().Format(time.DateTime))
}

func runPages(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	pages, err := c.Workspace.Pages()
	if err != nil {
		exitError("%v", err)
	}
	if len(pages) == 0 {
		fmt.Println("No saved pages")
		return
	}
	yellow := color.New(color.FgYellow)
	for _, p := range pages {
		yellow.Printf("%-24s ", p.PageID)
		fmt.Printf("%8d bytes  %s\n", p.Bytes, p.LastModified.Local().Format(time.DateTime))
	}
}

func runExport(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	out, err := c.Workspace.Export(pageFlag, exportFormat)
	if err != nil {
		exitError("failed to export: %v", err)
	}
	if exportOutput == "" {
		fmt.Print(out)
		return
	}

	path := exportOutput
	if filepath.Base(path) == path {
		path = filepath.Join(c.Workspace.Config.ExportsPath(), path)
	}
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		exitError("failed to write %s: %v", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
}
