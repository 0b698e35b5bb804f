package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/propdoc/pkg/catalog"
	"github.com/gnana997/propdoc/pkg/props"
)

type widgetSummary struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Properties int    `json:"properties"`
	Children   int    `json:"children"`
}

type listWidgetsResponse struct {
	Widgets []widgetSummary `json:"widgets"`
	Total   int             `json:"total"`
	Counts  map[string]int  `json:"counts"`
}

type widgetDetail struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	Properties props.PropertyList `json:"properties"`
	Children   props.PropertyList `json:"children"`
}

type widgetPropertiesResponse struct {
	Widgets  []widgetDetail `json:"widgets"`
	NotFound []string       `json:"not_found"`
}

type searchResult struct {
	Widget  string   `json:"widget"`
	Status  string   `json:"status"`
	Matches []string `json:"matches"`
}

type searchPropertiesResponse struct {
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
}

func (s *Server) handleListWidgets(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	qs := s.service()

	var filter *props.Status
	if raw := req.GetString("status", ""); raw != "" {
		status, err := props.ParseStatus(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter = &status
	}

	widgets := qs.List(filter)
	resp := listWidgetsResponse{
		Widgets: make([]widgetSummary, 0, len(widgets)),
		Total:   len(qs.Catalog.Widgets),
		Counts:  qs.Stats(),
	}
	for _, w := range widgets {
		resp.Widgets = append(resp.Widgets, widgetSummary{
			Name:       w.Name,
			Status:     w.Entry.Status().String(),
			Properties: w.Entry.Properties.Len(),
			Children:   w.Entry.Children.Len(),
		})
	}
	return jsonResult(resp)
}

func (s *Server) handleGetWidgetProperties(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := req.GetStringSlice("names", nil)
	if len(names) == 0 {
		return mcp.NewToolResultError("names is required and must list at least one widget"), nil
	}

	found, missing := s.service().WidgetsByNames(names)
	resp := widgetPropertiesResponse{
		Widgets:  make([]widgetDetail, 0, len(found)),
		NotFound: missing,
	}
	if resp.NotFound == nil {
		resp.NotFound = []string{}
	}
	for _, w := range found {
		resp.Widgets = append(resp.Widgets, detail(w))
	}
	return jsonResult(resp)
}

func (s *Server) handleSearchProperties(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil || query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	matches := s.service().SearchProperty(query)
	resp := searchPropertiesResponse{Query: query, Results: make([]searchResult, 0, len(matches))}
	for _, m := range matches {
		resp.Results = append(resp.Results, searchResult{
			Widget:  m.Widget.Name,
			Status:  m.Widget.Entry.Status().String(),
			Matches: m.Matches,
		})
	}
	return jsonResult(resp)
}

func detail(w *catalog.Widget) widgetDetail {
	return widgetDetail{
		Name:       w.Name,
		Status:     w.Entry.Status().String(),
		Properties: w.Entry.Properties,
		Children:   w.Entry.Children,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
