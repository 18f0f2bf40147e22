package usecase

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	html := `<html><body>
<a href="/a">A</a>
<a href="/a#x">A again</a>
<a href="b?q=1">B</a>
<a href="HTTP://X.TEST/c">C</a>
<a href="https://x.test/secure">other scheme</a>
<a href="http://elsewhere.test/">elsewhere</a>
<a href="mailto:me@x.test">mail</a>
<a href="">empty</a>
<a>no href</a>
</body></html>`

	tests := []struct {
		name   string
		filter LinkFilter
		want   []string
	}{
		{
			name: "no filter",
			want: []string{"http://x.test/a", "http://x.test/dir/b?q=1", "http://x.test/c"},
		},
		{
			name:   "include",
			filter: LinkFilter{Include: []string{"/dir/"}},
			want:   []string{"http://x.test/dir/b?q=1"},
		},
		{
			name:   "exclude",
			filter: LinkFilter{Exclude: []string{"/a", "/c"}},
			want:   []string{"http://x.test/dir/b?q=1"},
		},
		{
			name:   "include wins over exclude",
			filter: LinkFilter{Include: []string{"/a"}, Exclude: []string{"/a"}},
			want:   []string{"http://x.test/a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractLinks("http://x.test/dir/page", "http://x.test/", html, tt.filter)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractLinks() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractLinks_BaseHref(t *testing.T) {
	html := `<html><head><base href="/docs/"></head><body><a href="intro">Intro</a></body></html>`
	got, err := ExtractLinks("http://x.test/", "http://x.test/", html, LinkFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x.test/docs/intro"}, got)
}

func TestExtractLinks_NoneFound(t *testing.T) {
	got, err := ExtractLinks("http://x.test/", "http://x.test/", "<p>plain</p>", LinkFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Hello", ExtractTitle("<html><head><title> Hello </title></head></html>"))
	assert.Equal(t, "", ExtractTitle("<p>untitled</p>"))
}
