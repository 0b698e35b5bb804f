package props

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PropertyDescriptor describes one member of a Properties or Children type.
type PropertyDescriptor struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Optional    bool   `json:"optional"`
	Description string `json:"description,omitempty"`
}

// Status tells how a PropertyList came to be.
type Status int

const (
	// StatusResolved means the interface was found; the list may be empty.
	StatusResolved Status = iota
	// StatusSkipped means resolution was not attempted because the default
	// export is not class-like.
	StatusSkipped
	// StatusNotFound means no interface or type alias has the name, or the
	// source could not be loaded.
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusSkipped:
		return "skipped"
	case StatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ParseStatus parses the String form of a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "resolved":
		return StatusResolved, nil
	case "skipped":
		return StatusSkipped, nil
	case "not_found":
		return StatusNotFound, nil
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// PropertyList is the result of one interface lookup.
//
// In JSON a resolved list is an array (never null), a skipped list is the
// empty object {}, and a not-found list is null. The reason of a not-found
// list is not serialized.
type PropertyList struct {
	Status     Status
	Properties []PropertyDescriptor
	Reason     string
}

// Resolved returns a resolved list holding props.
func Resolved(props []PropertyDescriptor) PropertyList {
	if props == nil {
		props = []PropertyDescriptor{}
	}
	return PropertyList{Status: StatusResolved, Properties: props}
}

// Skipped returns the list used when extraction is not attempted.
func Skipped() PropertyList {
	return PropertyList{Status: StatusSkipped}
}

// NotFound returns an unresolved list explaining why.
func NotFound(reason string) PropertyList {
	return PropertyList{Status: StatusNotFound, Reason: reason}
}

// Len returns the number of descriptors.
func (l PropertyList) Len() int {
	return len(l.Properties)
}

// Lookup returns the descriptor called name.
func (l PropertyList) Lookup(name string) (PropertyDescriptor, bool) {
	for _, p := range l.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDescriptor{}, false
}

// MarshalJSON implements json.Marshaler.
func (l PropertyList) MarshalJSON() ([]byte, error) {
	switch l.Status {
	case StatusSkipped:
		return []byte("{}"), nil
	case StatusNotFound:
		return []byte("null"), nil
	}
	props := l.Properties
	if props == nil {
		props = []PropertyDescriptor{}
	}
	return json.Marshal(props)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *PropertyList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = NotFound("")
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode property list: %w", err)
		}
		if len(obj) != 0 {
			return fmt.Errorf("decode property list: expected array or {}, got object with %d keys", len(obj))
		}
		*l = Skipped()
		return nil
	}

	var props []PropertyDescriptor
	if err := json.Unmarshal(data, &props); err != nil {
		return fmt.Errorf("decode property list: %w", err)
	}
	*l = Resolved(props)
	return nil
}
