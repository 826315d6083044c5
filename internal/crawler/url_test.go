package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases scheme and host", in: "HTTPS://Example.COM/Path", want: "https://example.com/Path"},
		{name: "strips default https port", in: "https://example.com:443/a", want: "https://example.com/a"},
		{name: "strips default http port", in: "http://example.com:80/a", want: "http://example.com/a"},
		{name: "keeps explicit port", in: "https://example.com:8443/a", want: "https://example.com:8443/a"},
		{name: "drops fragment", in: "https://example.com/a#section", want: "https://example.com/a"},
		{name: "keeps query string", in: "https://example.com/a?b=1&a=2", want: "https://example.com/a?b=1&a=2"},
		{name: "keeps trailing slash", in: "https://example.com/a/", want: "https://example.com/a/"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeURLRejectsRelative(t *testing.T) {
	t.Parallel()

	_, err := NormalizeURL("/just/a/path")
	require.Error(t, err)

	_, err = NormalizeURL("not a url at all\x7f://")
	require.Error(t, err)
}
