package attachment

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/antqd/emailsender/internal/email"
)

// DefaultFallback names attachments that arrive without a filename.
const DefaultFallback = "allegato.pdf"

// Options tunes Normalize for one endpoint.
type Options struct {
	// Fallback is the filename for nameless Single and List items.
	Fallback string
	// Groups maps a group name to the fallback filename for its items. Groups
	// not listed use the group name with the extension of Fallback.
	Groups map[string]string
	// ForceContentType, when set, replaces every content type.
	ForceContentType string
}

func (o Options) fallback() string {
	if o.Fallback != "" {
		return o.Fallback
	}
	return DefaultFallback
}

func (o Options) groupFallback(name string) string {
	if v := o.Groups[name]; v != "" {
		return v
	}
	if name == "" {
		return o.fallback()
	}
	return name + path.Ext(o.fallback())
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ContentTypeFor infers a content type from the filename extension, or returns
// "" when the extension is not one the forms upload.
func ContentTypeFor(filename string) string {
	return contentTypes[strings.ToLower(path.Ext(filename))]
}

// Normalize produces the ordered attachment list for in. Descriptors without
// content are dropped. Content that is not valid base64 yields an attachment
// with Err set instead of an error, so the failure surfaces when sending.
func Normalize(in Input, opts Options) []email.Attachment {
	switch in.Kind {
	case KindSingle:
		return normalizeGroup([]Descriptor{in.Single}, opts.fallback(), opts)
	case KindList:
		return normalizeGroup(in.List, opts.fallback(), opts)
	case KindGroups:
		var out []email.Attachment
		for _, g := range in.Groups {
			out = append(out, normalizeGroup(g.Items, opts.groupFallback(g.Name), opts)...)
		}
		return out
	default:
		return nil
	}
}

func normalizeGroup(items []Descriptor, fallback string, opts Options) []email.Attachment {
	nameless := 0
	used := make(map[string]bool, len(items))
	for _, d := range items {
		if !d.HasContent() {
			continue
		}
		if d.Filename == "" {
			nameless++
		} else {
			used[d.Filename] = true
		}
	}

	out := make([]email.Attachment, 0, len(items))
	n := 0
	for _, d := range items {
		if !d.HasContent() {
			continue
		}

		filename := d.Filename
		if filename == "" {
			if nameless == 1 && !used[fallback] {
				filename = fallback
			} else {
				for {
					n++
					filename = numbered(fallback, n)
					if !used[filename] {
						break
					}
				}
			}
			used[filename] = true
		}

		content, dataType, err := decode(d.Content)

		out = append(out, email.Attachment{
			Filename:    filename,
			ContentType: pickContentType(opts.ForceContentType, d.ContentType, dataType, ContentTypeFor(filename)),
			Content:     content,
			Err:         err,
		})
	}

	return out
}

// numbered inserts a 1-based index before the extension: file.pdf -> file_2.pdf.
func numbered(name string, i int) string {
	ext := path.Ext(name)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), i, ext)
}

func pickContentType(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// decode accepts plain base64 or a data URL as produced by FileReader. It
// returns the media type of the data URL when there is one.
func decode(s string) ([]byte, string, error) {
	var mediaType string
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			meta := s[len("data:"):i]
			mediaType, _, _ = strings.Cut(meta, ";")
			s = s[i+1:]
		}
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	var firstErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, mediaType, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	return nil, mediaType, fmt.Errorf("decode base64: %w", firstErr)
}
