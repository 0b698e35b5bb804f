package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/propdoc/pkg/props"
)

// ToolNames lists the tools the server registers, in registration order.
func ToolNames() []string {
	return []string{"list_widgets", "get_widget_properties", "search_properties"}
}

func listWidgetsTool() mcp.Tool {
	return mcp.NewTool("list_widgets",
		mcp.WithDescription("Lists catalog widgets with their extraction status and property counts."),
		mcp.WithString("status",
			mcp.Description("Only return widgets with this status."),
			mcp.Enum(props.StatusResolved.String(), props.StatusSkipped.String(), props.StatusNotFound.String()),
		),
	)
}

func getWidgetPropertiesTool() mcp.Tool {
	return mcp.NewTool("get_widget_properties",
		mcp.WithDescription("Returns the properties and children of one or more widgets. Names are matched exactly, then case-insensitively."),
		mcp.WithArray("names",
			mcp.Required(),
			mcp.Description("Widget names, as configured (for example \"text-input\")."),
			mcp.WithStringItems(),
		),
	)
}

func searchPropertiesTool() mcp.Tool {
	return mcp.NewTool("search_properties",
		mcp.WithDescription("Finds widgets declaring a property or child whose name contains the query (case-insensitive)."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Property name or fragment."),
		),
	)
}
