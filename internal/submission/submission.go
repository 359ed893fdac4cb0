// Package submission holds the request bodies the web forms post.
package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/antqd/emailsender/internal/attachment"
)

// Form names understood by Parse.
const (
	FormStandard = "standard"
	FormContract = "contract"
)

// ErrUnknownForm is returned by Parse for a form name it does not know.
var ErrUnknownForm = errors.New("unknown form")

// Form is the part of a parsed submission the handler works with, whatever
// the concrete form.
type Form interface {
	// Value returns a field by its required-field name, trimmed.
	Value(field string) string
	// SubmitterName is the human identity used in subjects.
	SubmitterName() string
	// SubmitterEmail is the reply-to and client copy address.
	SubmitterEmail() string
	// AttachmentInput is the raw attachment field.
	AttachmentInput() attachment.Input
}

// Missing lists the required fields that are empty in f, in the given order.
func Missing(f Form, required []string) []string {
	var missing []string
	for _, field := range required {
		if f.Value(field) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// Parse decodes body as the named form.
func Parse(form string, body []byte) (Form, error) {
	switch form {
	case FormContract:
		var c Contract
		if err := json.Unmarshal(body, &c); err != nil {
			return nil, err
		}
		return &c, nil
	case FormStandard, "":
		var s Standard
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, form)
	}
}

// Text is a form value. Web forms send numeric inputs such as a postcode as
// JSON numbers, so numbers and booleans are accepted and kept as text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && (raw[0] == '{' || raw[0] == '[') {
		return fmt.Errorf("expected a text value, got %q", raw[:1])
	}
	*t = Text(scalar(raw))
	return nil
}

// String returns the value without surrounding spaces.
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}
