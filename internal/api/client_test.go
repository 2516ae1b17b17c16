package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestDoSetsBearerHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"status":"ok","data":3}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok-123"))
	count, err := c.UnreadCount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, 3, count)
}

func TestDoOmitsHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken(""))
	_, err := c.UnreadCount(context.Background())
	require.Error(t, err)
	assert.Empty(t, gotAuth)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		credential bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, credential: true},
		{name: "forbidden", status: http.StatusForbidden, credential: true},
		{name: "not found", status: http.StatusNotFound, credential: false},
		{name: "server error", status: http.StatusInternalServerError, credential: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, staticToken("tok"))
			err := c.MarkRead(context.Background(), 1)
			require.Error(t, err)

			assert.Equal(t, tt.credential, IsCredentialExpired(err))
			if !tt.credential {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.status, apiErr.Status)
			}
		})
	}
}

func TestUnreadUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notifications/unread", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("size"))
		w.Write([]byte(`{
			"status": "ok",
			"data": [
				{"id": 2, "title": "B", "content": "second", "createdAt": "2026-08-01T10:00:00Z"},
				{"id": 1, "title": "A", "content": "first", "link": "/posts/5", "createdAt": "2026-08-01T09:00:00Z"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok"))
	got, err := c.Unread(context.Background(), 0, 20)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, "B", got[0].Title)
	assert.Equal(t, "/posts/5", got[1].Link)
	assert.Equal(t, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), got[1].CreatedAt)
}

func TestAllIncludesReadNotifications(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notifications", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("size"))
		w.Write([]byte(`{
			"status": "ok",
			"data": [
				{"id": 3, "title": "C", "content": "third", "createdAt": "2026-08-02T08:00:00Z", "read": true},
				{"id": 2, "title": "B", "content": "second", "createdAt": "2026-08-01T10:00:00Z"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok"))
	got, err := c.All(context.Background(), 1, 10)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.True(t, got[0].Read)
	assert.False(t, got[1].Read)
}

func TestUnreadCountBarePayload(t *testing.T) {
	// Some endpoints return the value without the envelope.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`7`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok"))
	count, err := c.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestMutationPathsAndMethods(t *testing.T) {
	type call struct {
		method string
		path   string
	}
	var got []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, call{method: r.Method, path: r.URL.Path})
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok"))
	ctx := context.Background()

	require.NoError(t, c.MarkRead(ctx, 12))
	require.NoError(t, c.MarkAllRead(ctx))
	require.NoError(t, c.Delete(ctx, 12))
	require.NoError(t, c.DeleteAll(ctx))

	want := []call{
		{method: http.MethodPut, path: "/notifications/12/read"},
		{method: http.MethodPut, path: "/notifications/read-all"},
		{method: http.MethodDelete, path: "/notifications/12"},
		{method: http.MethodDelete, path: "/notifications"},
	}
	assert.Equal(t, want, got)
}

func TestComment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comments/55", r.URL.Path)
		w.Write([]byte(`{"status":"ok","data":{"id":55,"postId":9,"content":"reply"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok"))
	comment, err := c.Comment(context.Background(), 55)
	require.NoError(t, err)
	assert.Equal(t, int64(9), comment.PostID)
}
