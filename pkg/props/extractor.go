// Package props turns the Properties and Children interfaces of a widget
// into sorted, de-duplicated property lists.
package props

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gnana997/propdoc/pkg/naming"
	"github.com/gnana997/propdoc/pkg/typeview"
)

// Extractor resolves interface keys against a typeview.View.
//
// An Extractor holds no per-call state and may be shared between
// goroutines.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor. Logger can be nil.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractWidget resolves the kind interface of widget. A missing Children
// interface is common and logged at debug; a missing Properties interface
// is a warning.
func (e *Extractor) ExtractWidget(view typeview.View, widget string, kind naming.Kind) PropertyList {
	key := naming.InterfaceName(widget, kind)
	missing := slog.LevelWarn
	if kind == naming.KindChildren {
		missing = slog.LevelDebug
	}
	return e.extract(view, key, e.logger.With("widget", widget), missing)
}

// Extract resolves key to an interface (or, failing that, a type alias) and
// returns its properties merged with those of its union variants.
//
// A missing declaration is logged as a warning and reported as NotFound.
func (e *Extractor) Extract(view typeview.View, key naming.InterfaceKey) PropertyList {
	return e.extract(view, key, e.logger, slog.LevelWarn)
}

func (e *Extractor) extract(view typeview.View, key naming.InterfaceKey, logger *slog.Logger, missing slog.Level) PropertyList {
	decl, ok := view.Interface(key.String())
	if !ok {
		decl, ok = view.TypeAlias(key.String())
	}
	if !ok {
		logger.Log(context.Background(), missing, "could not find interface or type alias", "interface", key.String())
		return NotFound(fmt.Sprintf("no interface or type alias named %s", key))
	}

	props := Describe(view, decl.Type)
	for _, variant := range view.UnionVariants(decl.Type) {
		props = mergeVariant(props, Describe(view, variant))
	}
	Sort(props)

	logger.Debug("extracted properties",
		"interface", key.String(),
		"declaration", decl.Kind.String(),
		"count", len(props))
	return Resolved(props)
}

// mergeVariant folds a variant's descriptors into props. Known names get
// the variant's type tokens merged in; new names are appended.
func mergeVariant(props, variant []PropertyDescriptor) []PropertyDescriptor {
	for _, vp := range variant {
		i := indexOf(props, vp.Name)
		if i < 0 {
			props = append(props, vp)
			continue
		}
		props[i].Type = MergeTypeText(props[i].Type, vp.Type)
	}
	return props
}

// Describe converts the property and method signatures of t into
// descriptors, in declaration order. When a name repeats (overloads) the
// first declaration wins.
func Describe(view typeview.View, t typeview.Type) []PropertyDescriptor {
	var out []PropertyDescriptor
	for _, m := range view.Members(t) {
		if !m.IsSignature() || indexOf(out, m.Name) >= 0 {
			continue
		}
		d := PropertyDescriptor{
			Name:     m.Name,
			Type:     m.TypeText,
			Optional: m.Optional,
		}
		if len(m.Docs) > 0 {
			d.Description = m.Docs[0]
		}
		out = append(out, d)
	}
	return out
}

func indexOf(props []PropertyDescriptor, name string) int {
	for i := range props {
		if props[i].Name == name {
			return i
		}
	}
	return -1
}
