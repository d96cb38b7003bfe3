package pathutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDirectory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Foo/Bar/Baz", "foo\\bar\\baz"},
		{"foo\\bar\\baz", "foo\\bar\\baz"},
		{"/foo/bar/", "foo\\bar"},
		{"\\\\foo\\\\", "foo"},
		{"", "."},
		{strings.Repeat("a", 260), "."},
		{strings.Repeat("a", 259), strings.Repeat("a", 259)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeDirectory(tt.in))
		})
	}
}

func TestNormalizeDirectoryIdempotent(t *testing.T) {
	for _, in := range []string{"Foo/Bar", "", "a\\b\\c", "/x/"} {
		once := NormalizeDirectory(in)
		require.Equal(t, once, NormalizeDirectory(once))
	}
}

func TestNormalizePathKeepsNonASCII(t *testing.T) {
	require.Equal(t, "voice\\maría.fuz", NormalizePath("Voice/María.fuz"))
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in     string
		parent string
		stem   string
		ext    string
	}{
		{"sound\\voice\\file.fuz", "sound\\voice", "file", "fuz"},
		{"file.fuz", "", "file", "fuz"},
		{"noext", "", "noext", ""},
		{"dir\\noext", "dir", "noext", ""},
		{"", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			parent, stem, ext := Split(tt.in)
			require.Equal(t, tt.parent, parent)
			require.Equal(t, tt.stem, stem)
			require.Equal(t, tt.ext, ext)
		})
	}
}

func TestFileName(t *testing.T) {
	require.Equal(t, "c.nif", FileName("a\\b\\c.nif"))
	require.Equal(t, "c.nif", FileName("c.nif"))
	require.Equal(t, "", FileName("a\\"))
}
