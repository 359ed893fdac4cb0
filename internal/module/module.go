// Package module describes the web forms the relay serves. Each form is a row
// of data consumed by one generic handler.
package module

import (
	"fmt"
	"sort"

	"dario.cat/mergo"

	"github.com/antqd/emailsender/internal/attachment"
	"github.com/antqd/emailsender/internal/submission"
)

// Audience values.
const (
	AudienceInternal = "internal"
	AudienceBoth     = "internal+client"
)

// Client attachment policy values.
const (
	ClientAttachmentsOmit    = "omit"
	ClientAttachmentsInclude = "include"
)

// Field is a module-specific form field rendered in the message.
type Field struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// Descriptor is one form endpoint.
type Descriptor struct {
	Key  string `yaml:"-"`
	Path string `yaml:"path"`
	// Form selects the body parser and message layout.
	Form string `yaml:"form"`
	// ConfigKey is the environment variable overriding the recipients. Empty
	// means the module always uses DefaultRecipients.
	ConfigKey         string   `yaml:"config_key"`
	DefaultRecipients []string `yaml:"recipients"`
	SubjectPrefix     string   `yaml:"subject_prefix"`
	RequiredFields    []string `yaml:"required_fields"`
	// Brand overrides the sender display name.
	Brand             string `yaml:"brand"`
	Audience          string `yaml:"audience"`
	ClientAttachments string `yaml:"client_attachments"`
	ForceContentType  string `yaml:"force_content_type"`
	// Fallback names attachments sent without a filename.
	Fallback    string            `yaml:"fallback_filename"`
	ExtraFields []Field           `yaml:"extra_fields"`
	Groups      map[string]string `yaml:"groups"`
}

// SendsClientCopy reports whether the submitter gets a copy.
func (d Descriptor) SendsClientCopy() bool {
	return d.Audience == AudienceBoth
}

// ClientGetsAttachments reports whether the client copy carries attachments.
func (d Descriptor) ClientGetsAttachments() bool {
	return d.ClientAttachments == ClientAttachmentsInclude
}

// AttachmentOptions configures the normalizer for this module.
func (d Descriptor) AttachmentOptions() attachment.Options {
	return attachment.Options{
		Fallback:         d.Fallback,
		Groups:           d.Groups,
		ForceContentType: d.ForceContentType,
	}
}

// Subject builds "<prefix> <identity>".
func (d Descriptor) Subject(identity string) string {
	if d.SubjectPrefix == "" {
		return identity
	}
	return d.SubjectPrefix + " " + identity
}

// Validate checks the fields the handler relies on.
func (d Descriptor) Validate() error {
	if d.Path == "" {
		return fmt.Errorf("module %q: path is required", d.Key)
	}
	switch d.Form {
	case submission.FormStandard, submission.FormContract:
	default:
		return fmt.Errorf("module %q: %w: %q", d.Key, submission.ErrUnknownForm, d.Form)
	}
	switch d.Audience {
	case AudienceInternal, AudienceBoth:
	default:
		return fmt.Errorf("module %q: unknown audience %q", d.Key, d.Audience)
	}
	switch d.ClientAttachments {
	case ClientAttachmentsOmit, ClientAttachmentsInclude:
	default:
		return fmt.Errorf("module %q: unknown client_attachments %q", d.Key, d.ClientAttachments)
	}
	return nil
}

// Table is the set of modules keyed by Descriptor.Key.
type Table map[string]Descriptor

// Sorted returns the descriptors ordered by path.
func (t Table) Sorted() []Descriptor {
	out := make([]Descriptor, 0, len(t))
	for _, d := range t {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Merge applies overrides onto the table. Non-empty override values replace
// the built-in ones; keys that do not exist yet add new modules, which start
// from the standard form defaults.
func (t Table) Merge(overrides map[string]Descriptor) (Table, error) {
	out := make(Table, len(t)+len(overrides))
	for k, d := range t {
		out[k] = d
	}

	for key, override := range overrides {
		base, ok := out[key]
		if !ok {
			base = Descriptor{
				Form:              submission.FormStandard,
				RequiredFields:    []string{"name", "email"},
				Audience:          AudienceInternal,
				ClientAttachments: ClientAttachmentsOmit,
			}
		}
		if err := mergo.Merge(&base, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge module %q: %w", key, err)
		}
		base.Key = key
		out[key] = base
	}

	paths := make(map[string]string, len(out))
	for key, d := range out {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if other, dup := paths[d.Path]; dup {
			return nil, fmt.Errorf("modules %q and %q share path %q", other, key, d.Path)
		}
		paths[d.Path] = key
	}

	return out, nil
}
