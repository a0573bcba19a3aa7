package wayback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshots_ParsesRowsAndSkipsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "http://example.com/", r.URL.Query().Get("url"))
		assert.Equal(t, "json", r.URL.Query().Get("output"))
		assert.Equal(t, "statuscode:200", r.URL.Query().Get("filter"))
		assert.Equal(t, "timestamp:8", r.URL.Query().Get("collapse"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			["timestamp","original","statuscode","mimetype"],
			["20230105120000","http://example.com/","200","text/html"],
			["20210615083000","http://example.com/","200","text/html"]
		]`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURLs(srv.URL, srv.URL))
	snaps, err := client.Snapshots(context.Background(), "http://example.com/", 50)

	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "20230105120000", snaps[0].Timestamp)
	assert.Equal(t, "http://example.com/", snaps[0].Original)
}

func TestSnapshots_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURLs(srv.URL, srv.URL))
	snaps, err := client.Snapshots(context.Background(), "http://nothing.example/", 10)

	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestSnapshots_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURLs(srv.URL, srv.URL))
	_, err := client.Snapshots(context.Background(), "http://example.com/", 10)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestFetch_PNGScreenshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/20230105120000/http://example.com/", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURLs(srv.URL, srv.URL))
	shot, err := client.Fetch(context.Background(), Snapshot{
		Timestamp: "20230105120000",
		Original:  "http://example.com/",
	})

	require.NoError(t, err)
	require.NotNil(t, shot)
	assert.Equal(t, ".png", shot.Ext())
	assert.Len(t, shot.Data, 4)
}

func TestFetch_NotFoundIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURLs(srv.URL, srv.URL))
	shot, err := client.Fetch(context.Background(), Snapshot{Timestamp: "2020", Original: "http://x.example/"})

	require.NoError(t, err)
	assert.Nil(t, shot)
}

func TestFetch_NonImageIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>no capture</html>"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURLs(srv.URL, srv.URL))
	shot, err := client.Fetch(context.Background(), Snapshot{Timestamp: "2020", Original: "http://x.example/"})

	require.NoError(t, err)
	assert.Nil(t, shot)
}

func TestScreenshot_JPEGExt(t *testing.T) {
	s := &Screenshot{ContentType: "image/jpeg"}
	assert.Equal(t, ".jpg", s.Ext())
}
