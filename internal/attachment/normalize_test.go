package attachment_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antqd/emailsender/internal/attachment"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func parse(t *testing.T, raw string) attachment.Input {
	t.Helper()

	var in attachment.Input
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	return in
}

func TestNormalize_SinglePDF(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	in := parse(t, `{"filename":"doc.pdf","base64":"`+b64("%PDF-1.4")+`"}`)
	r.Equal(attachment.KindSingle, in.Kind)

	got := attachment.Normalize(in, attachment.Options{})
	r.Len(got, 1)
	r.Equal("doc.pdf", got[0].Filename)
	r.Equal([]byte("%PDF-1.4"), got[0].Content)
	r.Equal("application/pdf", got[0].ContentType)
	r.NoError(got[0].Err)
}

func TestNormalize_ContentKeyPrecedence(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	in := parse(t, `{"filename":"a.png","content":"`+b64("second")+`","base64":"`+b64("first")+`","contentBase64":"`+b64("third")+`"}`)
	got := attachment.Normalize(in, attachment.Options{})

	r.Len(got, 1)
	r.Equal([]byte("first"), got[0].Content)
	r.Equal("image/png", got[0].ContentType)
}

func TestNormalize_LegacyAliasAndAlternateKeys(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	in := parse(t, `[
		{"fileName":"foto.JPG","contentBase64":"`+b64("jpg")+`"},
		{"name":"cv.pdf","allegato":"`+b64("cv")+`"}
	]`)
	got := attachment.Normalize(in, attachment.Options{})

	r.Len(got, 2)
	r.Equal("foto.JPG", got[0].Filename)
	r.Equal("image/jpeg", got[0].ContentType)
	r.Equal("cv.pdf", got[1].Filename)
	r.Equal([]byte("cv"), got[1].Content)
}

func TestNormalize_DropsEntriesWithoutContent(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	in := parse(t, `[
		{"filename":"empty.pdf"},
		"not-an-object",
		{"filename":"ok.pdf","base64":"`+b64("ok")+`"},
		{"filename":"blank.pdf","content":""}
	]`)
	got := attachment.Normalize(in, attachment.Options{})

	r.Len(got, 1)
	r.Equal("ok.pdf", got[0].Filename)
}

func TestNormalize_FallbackNamesAreNumbered(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	in := attachment.List(
		attachment.Descriptor{Content: b64("one")},
		attachment.Descriptor{Filename: "named.pdf", Content: b64("named")},
		attachment.Descriptor{Content: b64("two")},
	)
	got := attachment.Normalize(in, attachment.Options{Fallback: "file.pdf"})

	r.Len(got, 3)
	r.Equal("file_1.pdf", got[0].Filename)
	r.Equal([]byte("one"), got[0].Content)
	r.Equal("named.pdf", got[1].Filename)
	r.Equal("file_2.pdf", got[2].Filename)
	r.Equal([]byte("two"), got[2].Content)
}

func TestNormalize_FallbackNamesAvoidExplicitNames(t *testing.T) {
	t.Parallel()

	named := func(name string) attachment.Descriptor {
		return attachment.Descriptor{Filename: name, Content: b64(name)}
	}
	nameless := attachment.Descriptor{Content: b64("x")}

	tests := []struct {
		name  string
		items []attachment.Descriptor
		want  []string
	}{
		{
			name:  "numbered name already taken",
			items: []attachment.Descriptor{named("file_1.pdf"), nameless, nameless},
			want:  []string{"file_1.pdf", "file_2.pdf", "file_3.pdf"},
		},
		{
			name:  "lone nameless with bare fallback taken",
			items: []attachment.Descriptor{named("file.pdf"), nameless},
			want:  []string{"file.pdf", "file_1.pdf"},
		},
		{
			name:  "lone nameless with fallback and first number taken",
			items: []attachment.Descriptor{nameless, named("file.pdf"), named("file_1.pdf")},
			want:  []string{"file_2.pdf", "file.pdf", "file_1.pdf"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := attachment.Normalize(attachment.List(tt.items...), attachment.Options{Fallback: "file.pdf"})

			names := make([]string, 0, len(got))
			for _, a := range got {
				names = append(names, a.Filename)
			}
			require.Equal(t, tt.want, names)
		})
	}
}

func TestNormalize_SingleNamelessKeepsFallback(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	got := attachment.Normalize(attachment.Single(attachment.Descriptor{Content: b64("x")}), attachment.Options{})

	r.Len(got, 1)
	r.Equal(attachment.DefaultFallback, got[0].Filename)
	r.Equal("application/pdf", got[0].ContentType)
}

func TestNormalize_GroupsKeepOrderAndFallbacks(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	in := parse(t, `{
		"firma": {"base64":"`+b64("sig")+`"},
		"documentoIdentita": [{"base64":"`+b64("front")+`"},{"base64":"`+b64("back")+`"}],
		"altro": [{"base64":"`+b64("other")+`"}]
	}`)
	r.Equal(attachment.KindGroups, in.Kind)
	r.Len(in.Groups, 3)
	r.Equal("firma", in.Groups[0].Name)

	got := attachment.Normalize(in, attachment.Options{
		Groups: map[string]string{
			"firma":             "firma.png",
			"documentoIdentita": "documento_identita.pdf",
		},
	})

	r.Len(got, 4)
	r.Equal("firma.png", got[0].Filename)
	r.Equal("image/png", got[0].ContentType)
	r.Equal("documento_identita_1.pdf", got[1].Filename)
	r.Equal("documento_identita_2.pdf", got[2].Filename)
	r.Equal("altro.pdf", got[3].Filename)
}

func TestNormalize_ForcedContentType(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	in := attachment.List(
		attachment.Descriptor{Filename: "scan.bin", ContentType: "application/octet-stream", Content: b64("a")},
	)
	got := attachment.Normalize(in, attachment.Options{ForceContentType: "application/pdf"})

	r.Equal("application/pdf", got[0].ContentType)
}

func TestNormalize_ExplicitAndUnknownContentType(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	in := attachment.List(
		attachment.Descriptor{Filename: "data.csv", Content: b64("a,b")},
		attachment.Descriptor{Filename: "data2.csv", ContentType: "text/csv", Content: b64("a,b")},
	)
	got := attachment.Normalize(in, attachment.Options{})

	r.Empty(got[0].ContentType)
	r.Equal("text/csv", got[1].ContentType)
}

func TestNormalize_DataURL(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	in := attachment.Single(attachment.Descriptor{
		Filename: "bolletta",
		Content:  "data:image/png;base64," + b64("png-bytes"),
	})
	got := attachment.Normalize(in, attachment.Options{})

	r.Equal([]byte("png-bytes"), got[0].Content)
	r.Equal("image/png", got[0].ContentType)
}

func TestNormalize_TolerantDecoding(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	raw := base64.RawURLEncoding.EncodeToString([]byte{0xfb, 0xff, 0xfe, 0x01})
	in := attachment.List(
		attachment.Descriptor{Filename: "a.pdf", Content: raw},
		attachment.Descriptor{Filename: "b.pdf", Content: "aGVs\nbG8="},
	)
	got := attachment.Normalize(in, attachment.Options{})

	r.NoError(got[0].Err)
	r.Equal([]byte{0xfb, 0xff, 0xfe, 0x01}, got[0].Content)
	r.NoError(got[1].Err)
	r.Equal([]byte("hello"), got[1].Content)
}

func TestNormalize_MalformedBase64IsDeferred(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	in := attachment.Single(attachment.Descriptor{Filename: "broken.pdf", Content: "%%%not base64%%%"})
	got := attachment.Normalize(in, attachment.Options{})

	r.Len(got, 1)
	r.Error(got[0].Err)
	r.Nil(got[0].Content)
	r.Equal("broken.pdf", got[0].Filename)
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	in := parse(t, `{
		"documentoIdentita": [{"base64":"`+b64("front")+`"},{"base64":"`+b64("back")+`"}],
		"firma": {"filename":"f.png","base64":"!!!"}
	}`)
	opts := attachment.Options{Fallback: "file.pdf"}

	first := attachment.Normalize(in, opts)
	second := attachment.Normalize(in, opts)

	r.Equal(first, second)
}

func TestInput_NullAndEmpty(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	r.True(parse(t, `null`).IsZero())
	r.Empty(attachment.Normalize(parse(t, `null`), attachment.Options{}))
	r.Empty(attachment.Normalize(parse(t, `[]`), attachment.Options{}))
	r.Empty(attachment.Normalize(parse(t, `{}`), attachment.Options{}))
	r.Empty(attachment.Normalize(attachment.Input{}, attachment.Options{}))
}

func TestInput_RejectsScalar(t *testing.T) {
	t.Parallel()

	var in attachment.Input
	require.Error(t, json.Unmarshal([]byte(`"aGVsbG8="`), &in))
}
