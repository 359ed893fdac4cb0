package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/antqd/emailsender/internal/attachment"
)

// Standard is the body shared by the candidate, contact and per-module forms.
// Both the English keys and the Italian ones of the first form version are
// accepted.
type Standard struct {
	Name        string
	Email       string
	Phone       string
	Message     string
	Attachments attachment.Input
	// Extra holds every other scalar field, for modules that render them.
	Extra map[string]string
}

var (
	nameKeys       = []string{"name", "nome"}
	emailKeys      = []string{"email"}
	phoneKeys      = []string{"phone", "telefono"}
	messageKeys    = []string{"message", "messaggio"}
	attachmentKeys = []string{"attachments", "allegati", "attachment"}
	// legacy single attachment sent next to the contact fields
	legacyContentKey  = "allegato"
	legacyFilenameKey = "filename"
)

// UnmarshalJSON maps the accepted aliases onto the struct fields.
func (s *Standard) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	known := map[string]bool{}
	take := func(keys []string) string {
		var v string
		for _, k := range keys {
			known[k] = true
			if v == "" {
				v = scalar(fields[k])
			}
		}
		return strings.TrimSpace(v)
	}

	*s = Standard{
		Name:    take(nameKeys),
		Email:   take(emailKeys),
		Phone:   take(phoneKeys),
		Message: take(messageKeys),
	}

	for _, k := range attachmentKeys {
		known[k] = true
		raw, ok := fields[k]
		if !ok || !s.Attachments.IsZero() {
			continue
		}
		if err := json.Unmarshal(raw, &s.Attachments); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}

	known[legacyContentKey] = true
	known[legacyFilenameKey] = true
	if s.Attachments.IsZero() {
		if content := scalar(fields[legacyContentKey]); content != "" {
			s.Attachments = attachment.Single(attachment.Descriptor{
				Filename: scalar(fields[legacyFilenameKey]),
				Content:  content,
			})
		}
	}

	for k, raw := range fields {
		if known[k] {
			continue
		}
		if v := strings.TrimSpace(scalar(raw)); v != "" {
			if s.Extra == nil {
				s.Extra = make(map[string]string)
			}
			s.Extra[k] = v
		}
	}

	return nil
}

// scalar renders a JSON string, number or bool as text. Objects, arrays and
// null give "".
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case 't', 'f':
		b, err := strconv.ParseBool(string(raw))
		if err != nil {
			return ""
		}
		if b {
			return "sì"
		}
		return "no"
	case '{', '[', 'n':
		return ""
	default:
		return string(raw)
	}
}

func (s *Standard) Value(field string) string {
	switch field {
	case "name", "nome":
		return s.Name
	case "email":
		return s.Email
	case "phone", "telefono":
		return s.Phone
	case "message", "messaggio":
		return s.Message
	case "attachment", "attachments", "allegato":
		if len(attachment.Normalize(s.Attachments, attachment.Options{})) > 0 {
			return "present"
		}
		return ""
	default:
		return s.Extra[field]
	}
}

func (s *Standard) SubmitterName() string { return s.Name }

func (s *Standard) SubmitterEmail() string { return s.Email }

func (s *Standard) AttachmentInput() attachment.Input { return s.Attachments }
