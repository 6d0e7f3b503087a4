package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/htmldoc"
	"github.com/spf13/cobra"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks [query]",
	Short: "List the block types that can be added",
	Args:  cobra.MaximumNArgs(1),
	Run:   runBlocks,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the blocks of the page",
	Long:  `Show the blocks of the page being edited, in order, with the selection marked.`,
	Args:  cobra.NoArgs,
	Run:   runShow,
}

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Show the property panel of the selected block",
	Args:  cobra.NoArgs,
	Run:   runPanel,
}

var showJSON bool

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the document as JSON")
}

func runBlocks(cmd *cobra.Command, args []string) {
	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	specs := blocks.Search(query)
	if len(specs) == 0 {
		fmt.Printf("No block types match %q\n", query)
		return
	}
	cyan := color.New(color.FgCyan)
	for _, s := range specs {
		cyan.Printf("%-8s ", s.Type)
		fmt.Printf("%-8s %s", s.Label, s.Group)
		if s.Editable {
			fmt.Print(" (editable text)")
		}
		fmt.Println()
	}
}

func runShow(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	s, err := c.Workspace.Session(pageFlag)
	if err != nil {
		exitError("failed to open page: %v", err)
	}
	doc := s.Document()

	if showJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			exitError("%v", err)
		}
		return
	}

	fmt.Printf("Page %s: %d block(s)", doc.PageID, doc.Len())
	if s.CanUndo() {
		fmt.Printf(", %d undo step(s)", s.HistoryLen()-1)
	}
	fmt.Println()
	if doc.Len() == 0 {
		fmt.Println("\nThe page is empty. Add a block with 'folio add <type>'.")
		return
	}

	selected, _ := s.Selected()
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen, color.Bold)
	fmt.Println()
	for i, b := range doc.Blocks {
		marker := " "
		if b.ID == selected {
			marker = green.Sprint("*")
		}
		fmt.Printf("%s %2d. ", marker, i)
		yellow.Printf("%s ", b.ID)
		fmt.Printf("%-7s %s\n", b.Type, preview(htmldoc.PlainText(b.Content), 50))
	}
}

func runPanel(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	s, err := c.Workspace.Session(pageFlag)
	if err != nil {
		exitError("failed to open page: %v", err)
	}
	panel := s.Panel()
	if panel.BlockID == "" {
		fmt.Println("No block selected")
		return
	}

	color.New(color.FgYellow).Printf("%s ", panel.BlockID)
	fmt.Printf("(%s)\n\n", panel.Type)
	for _, f := range panel.Fields {
		value := f.Value
		if value == "" {
			value = color.New(color.Faint).Sprint("-")
		}
		fmt.Printf("  %-16s %-16s %s\n", f.Label, f.Property, value)
	}
}

// preview shortens text to at most n runes on one line.
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n-3]) + "..."
}
