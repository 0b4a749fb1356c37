package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnemet/lookin/internal/docs"
	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/navigation"
	"github.com/gnemet/lookin/internal/panel"
	"github.com/gnemet/lookin/internal/resource"
)

func (s *Server) handleListLayers(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows := make([][]string, 0, len(s.doc.Layers))
	for _, l := range s.doc.Layers {
		rows = append(rows, []string{l.ID, l.Title, layerKind(&l)})
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d layer(s), root %s\n\n", s.doc.Title, len(s.doc.Layers), s.doc.RootID())
	sb.WriteString(docs.Table([]string{"Layer", "Title", "Kind"}, rows))
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleViewState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.viewResult(""), nil
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layer, err := request.RequireString("layer")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: layer"), nil
	}
	catalog := request.GetString("catalog", "")
	if err := s.engine.GoTo(ctx, layer, catalog); err != nil {
		return navigationError(err), nil
	}
	return s.viewResult(""), nil
}

func (s *Server) handleGoBack(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	moved, err := s.engine.GoBack(ctx)
	if err != nil {
		return navigationError(err), nil
	}
	if !moved {
		return s.viewResult("Already at the first layer."), nil
	}
	return s.viewResult(""), nil
}

func (s *Server) handleJumpTo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layer, err := request.RequireString("layer")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: layer"), nil
	}
	if err := s.engine.JumpTo(ctx, layer); err != nil {
		return navigationError(err), nil
	}
	return s.viewResult(""), nil
}

func (s *Server) handleHome(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.Home(ctx); err != nil {
		return navigationError(err), nil
	}
	return s.viewResult(""), nil
}

func (s *Server) handleClickNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID, err := request.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: node_id"), nil
	}
	double := request.GetBool("double", false)

	action, ok := s.engine.Activate(ctx, nodeID, double)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Node %q is not clickable on the current layer. Use view_state to list the interactive nodes.",
			nodeID,
		)), nil
	}
	return s.viewResult("Performed: " + action.String()), nil
}

func (s *Server) handleClickRegion(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := request.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: index"), nil
	}
	if !s.engine.ClickRegion(index) {
		return mcp.NewToolResultError(fmt.Sprintf("Region %d is not clickable on the current layer.", index)), nil
	}
	return s.viewResult(fmt.Sprintf("Clicked region %d.", index)), nil
}

func (s *Server) handleGetCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := request.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: file"), nil
	}
	data, err := s.fetcher.Fetch(ctx, "catalogs/"+file)
	if err != nil {
		return fetchError("Catalog", file, err), nil
	}
	cat, err := panel.ParseCatalog(file, data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse catalog: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("# " + cat.Title + "\n\n")
	if cat.Description != "" {
		sb.WriteString(cat.Description + "\n\n")
	}
	if cat.Schema != "" {
		fmt.Fprintf(&sb, "Schema: %s\n\n", cat.Schema)
	}
	if cat.Shape == panel.ShapeUnknown {
		sb.WriteString("Unrecognized catalog layout, raw source:\n\n" + string(data))
		return mcp.NewToolResultText(sb.String()), nil
	}
	sb.WriteString(docs.Table(cat.Headers, cat.Rows))
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleGetDoc(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := request.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: file"), nil
	}
	data, err := s.fetcher.Fetch(ctx, "docs/"+file)
	if err != nil {
		return fetchError("Doc", file, err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// viewResult renders the current view, prefixed by note and followed by
// any URLs the last action opened.
func (s *Server) viewResult(note string) *mcp.CallToolResult {
	var sb strings.Builder
	if note != "" {
		sb.WriteString(note + "\n\n")
	}
	sb.WriteString(formatView(s.engine.View()))
	for _, u := range s.takeURLs() {
		sb.WriteString("\nOpened URL: " + u + "\n")
	}
	return mcp.NewToolResultText(sb.String())
}

func navigationError(err error) *mcp.CallToolResult {
	if errors.Is(err, layers.ErrLayerNotFound) {
		return mcp.NewToolResultError(err.Error() + ". Use list_layers to see the layer ids.")
	}
	return mcp.NewToolResultError(fmt.Sprintf("navigation failed: %v", err))
}

func fetchError(kind, file string, err error) *mcp.CallToolResult {
	if errors.Is(err, resource.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("%s %q not found.", kind, file))
	}
	return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", strings.ToLower(kind), err))
}

func layerKind(l *layers.Layer) string {
	switch {
	case l.Type == layers.TypeCatalogViewer:
		return "catalog viewer"
	case l.Render == layers.RenderImage:
		return "image " + l.Image
	case l.File != "":
		return "diagram " + l.File
	}
	return "synthesized"
}

// formatView converts a view into a text format optimized for AI agent
// consumption.
func formatView(v navigation.View) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Layer: %s (%s)\n", v.LayerID, v.Title)
	fmt.Fprintf(&sb, "Source: %s\n", v.Badge.Label)

	crumbs := make([]string, len(v.Breadcrumbs))
	for i, c := range v.Breadcrumbs {
		crumbs[i] = c.ID
	}
	fmt.Fprintf(&sb, "Breadcrumbs: %s\n", strings.Join(crumbs, " > "))

	fmt.Fprintf(&sb, "Render: %s", v.Render.State)
	if v.Render.Strategy != "" {
		fmt.Fprintf(&sb, " (%s)", v.Render.Strategy)
	}
	sb.WriteString("\n")
	if v.Render.Error != "" {
		fmt.Fprintf(&sb, "Render error: %s\n", v.Render.Error)
	}

	var interactive []string
	for _, n := range v.Nodes {
		if !n.Interactive {
			continue
		}
		entry := n.NodeID
		if n.Tooltip != "" {
			entry += " (" + n.Tooltip + ")"
		}
		interactive = append(interactive, entry)
	}
	if len(interactive) > 0 {
		fmt.Fprintf(&sb, "Clickable nodes: %s\n", strings.Join(interactive, ", "))
	}
	for _, r := range v.Regions {
		label := r.Label
		if label == "" {
			label = r.Category
		}
		fmt.Fprintf(&sb, "Region %d: %s\n", r.Index, label)
	}
	if len(v.Unmatched) > 0 {
		fmt.Fprintf(&sb, "Nodes missing from the diagram: %s\n", strings.Join(v.Unmatched, ", "))
	}

	if v.Panel.Mode != panel.Closed.String() {
		fmt.Fprintf(&sb, "\nPanel: %s %q (%s)\n", v.Panel.Mode, v.Panel.Title, v.Panel.Ref)
		if v.Panel.Error != "" {
			fmt.Fprintf(&sb, "Panel error: %s\n", v.Panel.Error)
		}
	}
	return sb.String()
}
