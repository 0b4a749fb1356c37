package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listLayersTool = mcp.NewTool("list_layers",
	mcp.WithDescription("List every layer of the loaded configuration with its title and how it is drawn."),
)

var viewStateTool = mcp.NewTool("view_state",
	mcp.WithDescription("Describe the current view: layer, breadcrumbs, clickable nodes or regions, and the side panel."),
)

// navigateTool defines the navigate MCP tool.
var navigateTool = mcp.NewTool("navigate",
	mcp.WithDescription("Navigate to a layer, appending it to the history. A catalog-viewer layer with a catalog opens the table panel instead."),
	mcp.WithString("layer",
		mcp.Required(),
		mcp.Description("Layer id, as listed by list_layers"),
	),
	mcp.WithString("catalog",
		mcp.Description("Catalog file passed as context, e.g. dim_issue_h.json"),
	),
)

var goBackTool = mcp.NewTool("go_back",
	mcp.WithDescription("Return to the previous layer."),
)

var jumpToTool = mcp.NewTool("jump_to",
	mcp.WithDescription("Jump to a layer already in the history, truncating everything after it."),
	mcp.WithString("layer",
		mcp.Required(),
		mcp.Description("Layer id from the breadcrumbs"),
	),
)

var homeTool = mcp.NewTool("home",
	mcp.WithDescription("Navigate to the root layer."),
)

// clickNodeTool defines the click_node MCP tool.
var clickNodeTool = mcp.NewTool("click_node",
	mcp.WithDescription("Click a node of the current diagram. A single click drills down or opens a table; a double click opens documentation."),
	mcp.WithString("node_id",
		mcp.Required(),
		mcp.Description("Declared node id, as listed by view_state"),
	),
	mcp.WithBoolean("double",
		mcp.Description("Double click instead of single click"),
	),
)

var clickRegionTool = mcp.NewTool("click_region",
	mcp.WithDescription("Click a region of the current image layer."),
	mcp.WithNumber("index",
		mcp.Required(),
		mcp.Description("Region index, as listed by view_state"),
	),
)

var getCatalogTool = mcp.NewTool("get_catalog",
	mcp.WithDescription("Get the columns of a catalog as a markdown table, without changing the view."),
	mcp.WithString("file",
		mcp.Required(),
		mcp.Description("Catalog file under catalogs/, e.g. fact_daily_worklogs_h.json"),
	),
)

var getDocTool = mcp.NewTool("get_doc",
	mcp.WithDescription("Get the raw markdown of a document under docs/, without changing the view."),
	mcp.WithString("file",
		mcp.Required(),
		mcp.Description("Document file under docs/, e.g. johanna.md"),
	),
)
