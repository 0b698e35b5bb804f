package catalog

import (
	"github.com/gnana997/propdoc/pkg/props"
)

// Widget is one configured widget and what was extracted for it.
type Widget struct {
	Name  string
	Entry WidgetEntry
}

// WidgetEntry holds the Properties and Children lists of a widget.
type WidgetEntry struct {
	Properties props.PropertyList `json:"properties"`
	Children   props.PropertyList `json:"children"`
}

// Status summarizes an entry by its Properties list. Children are optional:
// a widget without a Children interface is still resolved.
func (e WidgetEntry) Status() props.Status {
	return e.Properties.Status
}

// PropertyCount returns the number of properties and children.
func (e WidgetEntry) PropertyCount() int {
	return e.Properties.Len() + e.Children.Len()
}
