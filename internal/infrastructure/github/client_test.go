package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/covermon/internal/domain"
)

var repo = domain.Repository{Owner: "octo", Name: "widgets"}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClientWithHTTP("test-token", srv.Client(), "")
	require.NoError(t, err)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	c.gh.BaseURL = base
	return c
}

func TestListCommentsFollowsPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "created", r.URL.Query().Get("sort"))
		assert.Equal(t, "asc", r.URL.Query().Get("direction"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"id":3,"body":"third"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/repos/octo/widgets/issues/7/comments?page=2>; rel="next"`, r.Host))
		fmt.Fprint(w, `[{"id":1,"body":"first"},{"id":2,"body":"second"}]`)
	})
	c := newTestClient(t, mux)

	comments, err := c.ListComments(context.Background(), repo, 7)
	require.NoError(t, err)
	assert.Equal(t, []domain.BotComment{
		{ID: 1, Body: "first", CreatedOrder: 0},
		{ID: 2, Body: "second", CreatedOrder: 1},
		{ID: 3, Body: "third", CreatedOrder: 2},
	}, comments)
}

func TestListCommentsErrorIsCollaborator(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	}))

	_, err := c.ListComments(context.Background(), repo, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCollaborator))
	assert.Contains(t, err.Error(), "list comments on octo/widgets#7")
}

func TestCreateComment(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/octo/widgets/issues/7/comments", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "<!-- coverage: Coverage Report -->\nhello", body["body"])
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":42}`)
	}))

	id, err := c.CreateComment(context.Background(), repo, 7, "<!-- coverage: Coverage Report -->\nhello")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestUpdateAndDeleteComment(t *testing.T) {
	var calls []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPatch:
			raw, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"body":"new"}`, string(raw))
			fmt.Fprint(w, `{"id":5}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	require.NoError(t, c.UpdateComment(context.Background(), repo, 5, "new"))
	require.NoError(t, c.DeleteComment(context.Background(), repo, 6))
	assert.Equal(t, []string{
		"PATCH /repos/octo/widgets/issues/comments/5",
		"DELETE /repos/octo/widgets/issues/comments/6",
	}, calls)
}

func TestDeleteCommentNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))

	err := c.DeleteComment(context.Background(), repo, 6)
	assert.True(t, errors.Is(err, domain.ErrCollaborator))
}

func TestCreateStatus(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/octo/widgets/statuses/abc123", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1}`)
	}))

	err := c.CreateStatus(context.Background(), repo, "abc123", domain.StatusPayload{
		State:       domain.StateFailure,
		Description: "Failure: \nBranches Coverage decrease - 10%",
		TargetURL:   "https://github.com/octo/widgets/pull/7",
		Context:     "Coverage Report",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"state":       "failure",
		"description": "Failure: \nBranches Coverage decrease - 10%",
		"target_url":  "https://github.com/octo/widgets/pull/7",
		"context":     "Coverage Report",
	}, got)
}

func TestNewClientEnterpriseURL(t *testing.T) {
	c, err := NewClient("t", "https://ghe.example.com/api/v3")
	require.NoError(t, err)
	assert.Equal(t, "https://ghe.example.com/api/v3/", c.gh.BaseURL.String())
}
