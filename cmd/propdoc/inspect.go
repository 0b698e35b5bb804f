package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ddddddO/gtree"
	"github.com/spf13/cobra"

	"github.com/gnana997/propdoc/pkg/catalog"
	"github.com/gnana997/propdoc/pkg/props"
)

const maxWidth = 80

// inspectCmd returns the widget inspection command
func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <widget>...",
		Short: "Print the properties and children of widgets in a catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInspect,
	}
	cmd.Flags().String("catalog", "", "Catalog JSON (default: output from the project config, then propdoc.json)")
	cmd.Flags().String("format", "tree", "Output format: tree or table")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, os.Getenv)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "tree" && format != "table" {
		return fmt.Errorf("unknown format %q (want tree or table)", format)
	}

	qs, err := catalog.LoadAndQuery(cfg.CatalogPath())
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	found, missing := qs.WidgetsByNames(args)
	if len(missing) > 0 {
		return fmt.Errorf("widget not found in %s: %s", cfg.CatalogPath(), strings.Join(missing, ", "))
	}

	w := cmd.OutOrStdout()
	for i, widget := range found {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if format == "table" {
			printWidgetTable(w, widget)
			continue
		}
		if err := printWidgetTree(w, widget); err != nil {
			return err
		}
	}
	return nil
}

// printWidgetTree renders a widget as a tree:
//
//	text-input [resolved]
//	├── properties
//	│   ├── value: string
//	│   └── placeholder?: string  (Placeholder text.)
//	└── children
//	    └── prefix?: Node
func printWidgetTree(w io.Writer, widget *catalog.Widget) error {
	root := gtree.NewRoot(fmt.Sprintf("%s [%s]", widget.Name, widget.Entry.Status()))
	addListNode(root, "properties", widget.Entry.Properties)
	addListNode(root, "children", widget.Entry.Children)
	return gtree.OutputFromRoot(w, root)
}

func addListNode(parent *gtree.Node, label string, list props.PropertyList) {
	switch list.Status {
	case props.StatusSkipped:
		parent.Add(label + " (skipped: default export is not class-like)")
		return
	case props.StatusNotFound:
		parent.Add(label + " (not found)")
		return
	}
	if list.Len() == 0 {
		parent.Add(label + " (none)")
		return
	}
	node := parent.Add(label)
	for _, p := range list.Properties {
		node.Add(propertyLine(p))
	}
}

func propertyLine(p props.PropertyDescriptor) string {
	name := p.Name
	if p.Optional {
		name += "?"
	}
	line := name + ": " + p.Type
	if p.Description != "" {
		summary, _, _ := strings.Cut(p.Description, "\n")
		line += "  (" + summary + ")"
	}
	return line
}

// printWidgetTable prints a widget's lists as aligned tables.
func printWidgetTable(w io.Writer, widget *catalog.Widget) {
	fmt.Fprintf(w, "%s  [%s]\n", widget.Name, widget.Entry.Status())
	fmt.Fprintln(w)
	printPropsSection(w, "Properties", widget.Entry.Properties)
	fmt.Fprintln(w)
	printPropsSection(w, "Children", widget.Entry.Children)
}

// printPropsSection renders one list with dynamic column widths.
func printPropsSection(w io.Writer, title string, list props.PropertyList) {
	switch {
	case list.Status == props.StatusSkipped:
		fmt.Fprintf(w, "%s  (skipped)\n", title)
		return
	case list.Status == props.StatusNotFound:
		fmt.Fprintf(w, "%s  (not found)\n", title)
		return
	case list.Len() == 0:
		fmt.Fprintf(w, "%s  (none)\n", title)
		return
	}

	fmt.Fprintln(w, title)

	nameW := len("NAME")
	typeW := len("TYPE")
	for _, p := range list.Properties {
		nameW = max(nameW, len(p.Name))
		typeW = min(max(typeW, len(p.Type)), maxWidth/2)
	}

	fmt.Fprintf(w, "  %-*s  %-3s  %s\n", nameW, "NAME", "REQ", "TYPE")
	fmt.Fprintf(w, "  %s\n", strings.Repeat("─", nameW+typeW+7))

	indent := 2 + nameW + 2 + 3 + 2
	for _, p := range list.Properties {
		req := "yes"
		if p.Optional {
			req = "no"
		}
		fmt.Fprintf(w, "  %-*s  %-3s  %s\n", nameW, p.Name, req, wrapUnion(p.Type, indent))
		if p.Description != "" {
			printWrapped(w, p.Description, indent, maxWidth)
		}
	}
}

// wrapUnion wraps a union type at its " | " separators when it would run
// past maxWidth.
func wrapUnion(text string, indent int) string {
	if indent+len(text) <= maxWidth {
		return text
	}
	parts := props.SplitUnion(text)
	if len(parts) < 2 {
		return text
	}
	var sb strings.Builder
	lineLen := indent
	for i, part := range parts {
		addition := len(part)
		if i > 0 {
			addition += 3 // " | "
		}
		if lineLen+addition > maxWidth && i > 0 {
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", indent))
			lineLen = indent
		}
		if i > 0 {
			sb.WriteString(" | ")
			lineLen += 3
		}
		sb.WriteString(part)
		lineLen += len(part)
	}
	return sb.String()
}

// printWrapped prints text word-wrapped at width with the given left indent.
// Paragraph breaks in text are kept.
func printWrapped(w io.Writer, text string, indent, width int) {
	prefix := strings.Repeat(" ", indent)
	for _, paragraph := range strings.Split(text, "\n") {
		line := prefix
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == prefix:
				line += word
			case len(line)+len(word)+1 > width:
				fmt.Fprintln(w, line)
				line = prefix + word
			default:
				line += " " + word
			}
		}
		if line != prefix {
			fmt.Fprintln(w, line)
		}
	}
}
