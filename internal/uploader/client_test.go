package uploader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satchel/internal/composer"
	"satchel/internal/observability"
)

func testFile(name, content, mediaType string) composer.RawFile {
	return composer.RawFile{
		Name:      name,
		ByteSize:  int64(len(content)),
		MediaType: mediaType,
		Content:   strings.NewReader(content),
	}
}

func TestUploadDecodesResultRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		body, err := io.ReadAll(f)
		require.NoError(t, err)

		assert.Equal(t, "talk.mp3", header.Filename)
		assert.Equal(t, "hello", string(body))
		assert.Equal(t, "en", r.FormValue("stt_language"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"f1","meta":{"collection_name":"c1"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, observability.NewNopLogger())
	res, err := client.Upload(context.Background(), testFile("talk.mp3", "hello", "audio/mpeg"),
		composer.Metadata{"stt_language": "en"})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "f1", res.ID)
	assert.Equal(t, "c1", res.ResolvedCollection())
}

func TestUploadTopLevelCollectionNameFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"f2","collection_name":"legacy"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, observability.NewNopLogger())
	res, err := client.Upload(context.Background(), testFile("a.txt", "x", "text/plain"), nil)

	require.NoError(t, err)
	assert.Equal(t, "legacy", res.ResolvedCollection())
}

func TestUploadEmptyBodyIsFalsyResult(t *testing.T) {
	for _, body := range []string{"", "null", "{}", "  \n"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		client := New(srv.URL, observability.NewNopLogger())
		res, err := client.Upload(context.Background(), testFile("a.txt", "x", "text/plain"), nil)
		srv.Close()

		require.NoError(t, err, "body %q", body)
		assert.Nil(t, res, "body %q must be treated as no usable result", body)
	}
}

func TestUploadServerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, observability.NewNopLogger())
	res, err := client.Upload(context.Background(), testFile("a.txt", "x", "text/plain"), nil)

	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "500")
}

func TestUploadErrorFieldPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"f3","error":"unsupported encoding"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, observability.NewNopLogger())
	res, err := client.Upload(context.Background(), testFile("a.txt", "x", "text/plain"), nil)

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "unsupported encoding", res.Error)
}

func TestUploadRespectsBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 128)))
	}))
	defer srv.Close()

	client := New(srv.URL, observability.NewNopLogger(), WithBodyLimit(64))
	_, err := client.Upload(context.Background(), testFile("a.txt", "x", "text/plain"), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded limit")
}

func TestUploadSendsAuthToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"f4"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, observability.NewNopLogger(), WithAuthToken("tok-123"))
	_, err := client.Upload(context.Background(), testFile("a.txt", "x", "text/plain"), nil)
	require.NoError(t, err)
}
