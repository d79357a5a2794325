package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>Yale</body></html>"))
	}))
	defer server.Close()

	f := New(Config{UserAgent: "test-agent"}, nil)
	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "<html><body>Yale</body></html>", page.Body)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", page.ContentType)
}

func TestFetchDecodesCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "café" in Latin-1
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer server.Close()

	page, err := New(DefaultConfig(), nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "café", page.Body)
}

func TestFetchStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := New(DefaultConfig(), nil).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, "request failed with status code 404", err.Error())
}

func TestFetchBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer server.Close()

	_, err := New(Config{MaxBodyBytes: 16}, nil).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestFetchBodyLimitCountsRawBytes(t *testing.T) {
	utf16le := func(s string) []byte {
		out := make([]byte, 0, len(s)*2)
		for _, c := range []byte(s) {
			out = append(out, c, 0)
		}
		return out
	}

	tests := []struct {
		name        string
		contentType string
		body        []byte
		limit       int64
		want        string
		wantErr     bool
	}{
		{
			// 解码后变短，但原始字节超限
			name:        "utf-16 over limit",
			contentType: "text/html; charset=utf-16le",
			body:        utf16le("<p>Yale University</p>"),
			limit:       20,
			wantErr:     true,
		},
		{
			// 解码后变长，但原始字节未超限
			name:        "latin-1 under limit",
			contentType: "text/html; charset=iso-8859-1",
			body:        []byte(strings.Repeat("\xe9", 10)),
			limit:       16,
			want:        strings.Repeat("é", 10),
		},
		{
			name:        "utf-16 within limit",
			contentType: "text/html; charset=utf-16le",
			body:        utf16le("<p>Yale</p>"),
			limit:       22,
			want:        "<p>Yale</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write(tt.body)
			}))
			defer server.Close()

			page, err := New(Config{MaxBodyBytes: tt.limit}, nil).Fetch(context.Background(), server.URL)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "exceeds")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Body)
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := New(Config{Timeout: 20 * time.Millisecond}, nil).Fetch(context.Background(), server.URL)
	require.Error(t, err)
}

func TestFetchInvalidURL(t *testing.T) {
	f := New(DefaultConfig(), nil)

	for _, raw := range []string{"not-a-valid-url", "ftp://example.com/", "http://", "://bad"} {
		t.Run(raw, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidURL))
		})
	}
}

func TestParseURL(t *testing.T) {
	u, err := ParseURL("  https://example.com/path?q=1 ")
	require.NoError(t, err)
	assert.Equal(t, "example.com", u.Host)
	assert.Equal(t, "/path", u.Path)
}
