package jina

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/Acme%20Co%20leadership%20team", r.URL.EscapedPath())

		_, _ = w.Write([]byte(`{
			"code": 200,
			"data": [
				{"title": "Acme Co Leadership", "url": "https://acme.com/team", "content": "Jane Smith, CEO. Bob Lee, CTO."},
				{"title": "About Acme", "url": "https://acme.com/about", "description": "Acme makes widgets."}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithSearchBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), "Acme Co leadership team")
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "https://acme.com/team", resp.Data[0].URL)
}

func TestSearch_SiteFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "linkedin.com", r.URL.Query().Get("site"))
		_, _ = w.Write([]byte(`{"code": 200, "data": []}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithSearchBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), "Acme Co", WithSiteFilter("linkedin.com"))
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
}

func TestRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))
		_, _ = w.Write([]byte(`{
			"code": 200,
			"data": {"title": "Team", "url": "https://acme.com/team", "content": "# Our Team", "usage": {"tokens": 42}}
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Read(context.Background(), "https://acme.com/team")
	require.NoError(t, err)
	assert.Equal(t, "# Our Team", resp.Data.Content)
	assert.Equal(t, 42, resp.Data.Usage.Tokens)
}

func TestRead_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`timeout`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Read(context.Background(), "https://acme.com")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}
