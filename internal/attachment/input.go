// Package attachment turns the loosely shaped attachment JSON sent by the web
// forms into decoded email attachments.
package attachment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags which shape an Input was parsed from.
type Kind int

const (
	KindNone Kind = iota
	KindSingle
	KindList
	KindGroups
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindList:
		return "list"
	case KindGroups:
		return "groups"
	default:
		return "none"
	}
}

// Descriptor is one attachment as received, before decoding.
type Descriptor struct {
	Filename    string
	ContentType string
	// Content is the base64 text taken from the first recognized content key.
	Content string
}

// HasContent reports whether the descriptor carried any recognized content.
func (d Descriptor) HasContent() bool {
	return d.Content != ""
}

// Group is a named set of attachments, e.g. "documentoIdentita".
type Group struct {
	Name  string
	Items []Descriptor
}

// Input is the tagged form of the attachment field of a submission. Only the
// field matching Kind is meaningful.
type Input struct {
	Kind   Kind
	Single Descriptor
	List   []Descriptor
	Groups []Group
}

// Single wraps one descriptor.
func Single(d Descriptor) Input {
	return Input{Kind: KindSingle, Single: d}
}

// List wraps an ordered list of descriptors.
func List(ds ...Descriptor) Input {
	return Input{Kind: KindList, List: ds}
}

// Groups wraps named groups, kept in the given order.
func Groups(gs ...Group) Input {
	return Input{Kind: KindGroups, Groups: gs}
}

// IsZero reports whether the input holds nothing.
func (in Input) IsZero() bool {
	return in.Kind == KindNone
}

var errUnsupportedValue = errors.New("attachment must be an object, an array or null")

// descriptorKeys are the keys whose presence marks an object as a single
// descriptor rather than a map of named groups.
var descriptorKeys = []string{
	"filename", "fileName", "name",
	"base64", "content", "contentBase64", "allegato",
	"contentType", "mimeType",
}

// rawDescriptor mirrors every key the forms have used over time.
type rawDescriptor struct {
	Filename      *string `json:"filename"`
	FileName      *string `json:"fileName"`
	Name          *string `json:"name"`
	Base64        *string `json:"base64"`
	Content       *string `json:"content"`
	ContentBase64 *string `json:"contentBase64"`
	Allegato      *string `json:"allegato"`
	ContentType   *string `json:"contentType"`
	MimeType      *string `json:"mimeType"`
}

func (r rawDescriptor) descriptor() Descriptor {
	return Descriptor{
		Filename:    firstSet(r.Filename, r.FileName, r.Name),
		ContentType: firstSet(r.ContentType, r.MimeType),
		Content:     firstSet(r.Base64, r.Content, r.ContentBase64, r.Allegato),
	}
}

func firstSet(vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

// UnmarshalJSON parses any of the accepted shapes into the tagged variant.
func (in *Input) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*in = Input{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		*in = List(parseItems(data)...)
		return nil
	case '{':
		single, err := isDescriptorObject(data)
		if err != nil {
			return err
		}
		if single {
			*in = Single(parseItems(data)[0])
			return nil
		}
		groups, err := parseGroups(data)
		if err != nil {
			return err
		}
		*in = Groups(groups...)
		return nil
	default:
		return errUnsupportedValue
	}
}

func isDescriptorObject(data []byte) (bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false, fmt.Errorf("parse attachment object: %w", err)
	}
	for _, key := range descriptorKeys {
		if _, ok := fields[key]; ok {
			return true, nil
		}
	}
	return false, nil
}

// parseItems decodes an object or an array of objects. Items that are not
// objects, or whose fields have the wrong JSON types, come back with no content
// and are dropped by Normalize. A single object always yields exactly one item.
func parseItems(data []byte) []Descriptor {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '{':
		var raw rawDescriptor
		if err := json.Unmarshal(data, &raw); err != nil {
			return []Descriptor{{}}
		}
		return []Descriptor{raw.descriptor()}
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return nil
		}
		items := make([]Descriptor, 0, len(elems))
		for _, elem := range elems {
			elem = bytes.TrimSpace(elem)
			if len(elem) == 0 || elem[0] != '{' {
				continue
			}
			items = append(items, parseItems(elem)...)
		}
		return items
	default:
		return nil
	}
}

// parseGroups walks the object token by token so groups keep the order the
// form sent them in.
func parseGroups(data []byte) ([]Group, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse attachment groups: %w", err)
	}

	var groups []Group
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse attachment groups: %w", err)
		}
		name, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("parse attachment group %q: %w", name, err)
		}

		groups = append(groups, Group{Name: name, Items: parseItems(value)})
	}

	return groups, nil
}
