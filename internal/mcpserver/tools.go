package mcpserver

import (
	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/mark3labs/mcp-go/mcp"
)

func blockTypes() []string {
	specs := blocks.Types()
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = string(s.Type)
	}
	return out
}

func pageArg() mcp.ToolOption {
	return mcp.WithString("page",
		mcp.Description("Page to edit (default index.html)"),
	)
}

func blockArg(desc string) mcp.ToolOption {
	return mcp.WithString("block_id",
		mcp.Required(),
		mcp.Description(desc),
	)
}

var listBlockTypesTool = mcp.NewTool("list_block_types",
	mcp.WithDescription("List the block types that can be added to a page."),
	mcp.WithString("query",
		mcp.Description("Only types whose tag or label contains this text"),
	),
)

var getDocumentTool = mcp.NewTool("get_document",
	mcp.WithDescription("Get the blocks of a page in order, the selected block and whether undo or redo is possible."),
	pageArg(),
)

var insertBlockTool = mcp.NewTool("insert_block",
	mcp.WithDescription("Insert a new block with default content and select it."),
	pageArg(),
	mcp.WithString("type",
		mcp.Required(),
		mcp.Description("Block type"),
		mcp.Enum(blockTypes()...),
	),
	mcp.WithNumber("position",
		mcp.Description("Zero-based position; omit to append"),
	),
)

var deleteBlockTool = mcp.NewTool("delete_block",
	mcp.WithDescription("Delete a block."),
	pageArg(),
	blockArg("Block to delete"),
)

var duplicateBlockTool = mcp.NewTool("duplicate_block",
	mcp.WithDescription("Insert a copy of a block right after it."),
	pageArg(),
	blockArg("Block to copy"),
)

var moveBlockTool = mcp.NewTool("move_block",
	mcp.WithDescription("Move a block one position up or down."),
	pageArg(),
	blockArg("Block to move"),
	mcp.WithString("direction",
		mcp.Required(),
		mcp.Enum("up", "down"),
	),
)

var setPropertyTool = mcp.NewTool("set_property",
	mcp.WithDescription("Set an attribute or style property of a block. An empty value clears it."),
	pageArg(),
	blockArg("Block to change"),
	mcp.WithString("property",
		mcp.Required(),
		mcp.Enum("id", "class", "paddingTop", "paddingBottom", "paddingLeft", "paddingRight",
			"backgroundColor", "textColor", "width", "height"),
	),
	mcp.WithString("value",
		mcp.Required(),
		mcp.Description("New value, e.g. 24 for a padding, #1e90ff for a color, 50% for a width"),
	),
)

var editContentTool = mcp.NewTool("edit_content",
	mcp.WithDescription("Replace the content of a text or heading block."),
	pageArg(),
	blockArg("Text or heading block"),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("New content"),
	),
	mcp.WithString("format",
		mcp.Description("Content format (default markdown)"),
		mcp.Enum("markdown", "html"),
	),
)

var undoTool = mcp.NewTool("undo",
	mcp.WithDescription("Undo the last change to a page."),
	pageArg(),
)

var redoTool = mcp.NewTool("redo",
	mcp.WithDescription("Redo the last undone change to a page."),
	pageArg(),
)

var savePageTool = mcp.NewTool("save_page",
	mcp.WithDescription("Save the page locally."),
	pageArg(),
)

var exportPageTool = mcp.NewTool("export_page",
	mcp.WithDescription("Render the page as block HTML, a standalone HTML document or Markdown."),
	pageArg(),
	mcp.WithString("format",
		mcp.Description("Output format (default markdown)"),
		mcp.Enum("markdown", "html", "page"),
	),
)

var listPagesTool = mcp.NewTool("list_pages",
	mcp.WithDescription("List the saved pages."),
)
