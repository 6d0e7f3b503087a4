package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/kilupskalvis/folio/internal/core"
	"github.com/kilupskalvis/folio/internal/editor"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <type>",
	Short: "Add a block to the page",
	Long: `Add a new block of the given type and select it. Without --at the
block is appended to the end of the page.

Examples:
  folio add heading
  folio add image --at 0`,
	Args: cobra.ExactArgs(1),
	Run:  runAdd,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <block-id>",
	Short: "Delete a block",
	Args:  cobra.ExactArgs(1),
	Run:   runDelete,
}

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <block-id>",
	Short: "Insert a copy of a block right after it",
	Args:  cobra.ExactArgs(1),
	Run:   runDuplicate,
}

var moveCmd = &cobra.Command{
	Use:       "move <block-id> up|down",
	Short:     "Move a block one position up or down",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"up", "down"},
	Run:       runMove,
}

var selectCmd = &cobra.Command{
	Use:   "select <block-id>",
	Short: "Select a block for property editing",
	Args:  cobra.ExactArgs(1),
	Run:   runSelect,
}

var deselectCmd = &cobra.Command{
	Use:   "deselect",
	Short: "Clear the selection",
	Args:  cobra.NoArgs,
	Run:   runDeselect,
}

var setCmd = &cobra.Command{
	Use:   "set <property> <value>",
	Short: "Set a property of the selected block",
	Long: `Set a property of the selected block, or of --block when given.
An empty value clears the property.

Properties: id, class, paddingTop, paddingBottom, paddingLeft, paddingRight,
backgroundColor, textColor, width, height.

Examples:
  folio set paddingTop 24
  folio set textColor "#1e90ff" --block 01J8Z...`,
	Args: cobra.ExactArgs(2),
	Run:  runSet,
}

var editCmd = &cobra.Command{
	Use:   "edit <block-id>",
	Short: "Replace the content of a text or heading block",
	Long: `Replace the content of a text or heading block. The content is read
from --text, --markdown or --file ("-" reads standard input).`,
	Args: cobra.ExactArgs(1),
	Run:  runEdit,
}

var mediaCmd = &cobra.Command{
	Use:   "media <file>",
	Short: "Add an image or video to the page",
	Long: `Add an image or video to the page as an embedded data URL. With --block
the source of an existing image block is replaced instead. Large images are
scaled down to the configured maximum width.`,
	Args: cobra.ExactArgs(1),
	Run:  runMedia,
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last change",
	Args:  cobra.NoArgs,
	Run:   func(cmd *cobra.Command, args []string) { runStep("undo", (*editor.Session).Undo) },
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Redo the last undone change",
	Args:  cobra.NoArgs,
	Run:   func(cmd *cobra.Command, args []string) { runStep("redo", (*editor.Session).Redo) },
}

var (
	addAt        int
	setBlock     string
	editText     string
	editMarkdown string
	editFile     string
	editFileIsMD bool
	mediaBlock   string
)

func init() {
	addCmd.Flags().IntVar(&addAt, "at", editor.AtEnd, "Position to insert at (0 is the top)")
	setCmd.Flags().StringVar(&setBlock, "block", "", "Block to change instead of the selection")

	ef := editCmd.Flags()
	ef.StringVar(&editText, "text", "", "New content as HTML")
	ef.StringVar(&editMarkdown, "markdown", "", "New content as Markdown")
	ef.StringVar(&editFile, "file", "", "Read the new content from a file")
	ef.BoolVar(&editFileIsMD, "md", false, "Treat --file as Markdown")
	editCmd.MarkFlagsMutuallyExclusive("text", "markdown", "file")
	editCmd.MarkFlagsOneRequired("text", "markdown", "file")

	mediaCmd.Flags().StringVar(&mediaBlock, "block", "", "Image block whose source is replaced")
}

// dispatch applies one request to the current page and reports the result.
func dispatch(req core.CommandRequest) {
	c := initContext()
	defer c.Close()

	res, err := c.Workspace.Dispatch(pageFlag, req)
	if err != nil {
		exitError("%v", err)
	}
	describeResult(res)
}

func runAdd(cmd *cobra.Command, args []string) {
	req := core.CommandRequest{Op: core.OpInsert, Type: args[0]}
	if addAt != editor.AtEnd {
		req.Position = &addAt
	}
	dispatch(req)
}

func runDelete(cmd *cobra.Command, args []string) {
	dispatch(core.CommandRequest{Op: core.OpDelete, BlockID: args[0]})
}

func runDuplicate(cmd *cobra.Command, args []string) {
	dispatch(core.CommandRequest{Op: core.OpDuplicate, BlockID: args[0]})
}

func runMove(cmd *cobra.Command, args []string) {
	switch args[1] {
	case "up":
		dispatch(core.CommandRequest{Op: core.OpMoveUp, BlockID: args[0]})
	case "down":
		dispatch(core.CommandRequest{Op: core.OpMoveDown, BlockID: args[0]})
	default:
		exitError("direction must be up or down, got %q", args[1])
	}
}

func runSelect(cmd *cobra.Command, args []string) {
	dispatch(core.CommandRequest{Op: core.OpSelect, BlockID: args[0]})
}

func runDeselect(cmd *cobra.Command, args []string) {
	dispatch(core.CommandRequest{Op: core.OpDeselect})
}

func runSet(cmd *cobra.Command, args []string) {
	dispatch(core.CommandRequest{Op: core.OpSetProperty, BlockID: setBlock, Property: args[0], Value: args[1]})
}

func runEdit(cmd *cobra.Command, args []string) {
	req := core.CommandRequest{Op: core.OpEditContent, BlockID: args[0]}
	switch {
	case cmd.Flags().Changed("markdown"):
		req.Content, req.Format = editMarkdown, "markdown"
	case cmd.Flags().Changed("file"):
		data, err := readInput(editFile)
		if err != nil {
			exitError("failed to read %s: %v", editFile, err)
		}
		req.Content = string(data)
		if editFileIsMD {
			req.Format = "markdown"
		}
	default:
		req.Content = editText
	}
	dispatch(req)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func runMedia(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	f, err := os.Open(args[0])
	if err != nil {
		exitError("%v", err)
	}
	defer f.Close()

	res, asset, err := c.Workspace.ImportMedia(pageFlag, f, mediaBlock)
	if err != nil {
		exitError("%v", err)
	}
	describeResult(res)
	fmt.Printf("Type: %s", asset.MIME)
	if asset.Width > 0 {
		fmt.Printf(", %dx%d", asset.Width, asset.Height)
	}
	fmt.Println()
	if asset.Resized {
		color.New(color.FgYellow).Printf("Scaled down to %d px wide\n", asset.Width)
	}
}

func runStep(name string, step func(*editor.Session) (bool, error)) {
	c := initContext()
	defer c.Close()

	var changed bool
	_, err := c.Workspace.Edit(pageFlag, func(s *editor.Session) error {
		var err error
		changed, err = step(s)
		return err
	})
	if err != nil {
		exitError("%s failed: %v", name, err)
	}
	if !changed {
		fmt.Printf("Nothing to %s\n", name)
		return
	}
	color.New(color.FgGreen).Printf("%s done\n", name)
}
