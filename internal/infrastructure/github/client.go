// Package github adapts the GitHub REST API to the application's platform port.
package github

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	gh "github.com/google/go-github/v66/github"

	"github.com/felixgeelhaar/covermon/internal/application"
	"github.com/felixgeelhaar/covermon/internal/domain"
)

const commentsPerPage = 100

// Client implements application.PlatformClient on go-github.
type Client struct {
	gh *gh.Client
}

// NewClient creates a client authenticated with token. A non-empty apiURL
// points the client at a GitHub Enterprise Server instance.
func NewClient(token, apiURL string) (*Client, error) {
	return NewClientWithHTTP(token, nil, apiURL)
}

// NewClientWithHTTP creates a client on a custom HTTP client.
func NewClientWithHTTP(token string, httpClient *http.Client, apiURL string) (*Client, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, errors.Wrapf(err, "github api url %q", apiURL)
		}
	}
	return &Client{gh: client}, nil
}

// Factory adapts NewClient to application.PlatformFactory.
func Factory(token, apiURL string) (application.PlatformClient, error) {
	return NewClient(token, apiURL)
}

// ListComments walks every page of PR conversation comments, oldest first.
func (c *Client) ListComments(ctx context.Context, repo domain.Repository, prNumber int) ([]domain.BotComment, error) {
	opts := &gh.IssueListCommentsOptions{
		Sort:        gh.String("created"),
		Direction:   gh.String("asc"),
		ListOptions: gh.ListOptions{PerPage: commentsPerPage},
	}

	var out []domain.BotComment
	for {
		page, resp, err := c.gh.Issues.ListComments(ctx, repo.Owner, repo.Name, prNumber, opts)
		if err != nil {
			return nil, collaborator(err, "list comments on %s#%d", repo.FullName(), prNumber)
		}
		for _, cm := range page {
			out = append(out, domain.BotComment{
				ID:           cm.GetID(),
				Body:         cm.GetBody(),
				CreatedOrder: len(out),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) CreateComment(ctx context.Context, repo domain.Repository, prNumber int, body string) (int64, error) {
	cm, _, err := c.gh.Issues.CreateComment(ctx, repo.Owner, repo.Name, prNumber, &gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return 0, collaborator(err, "create comment on %s#%d", repo.FullName(), prNumber)
	}
	return cm.GetID(), nil
}

func (c *Client) UpdateComment(ctx context.Context, repo domain.Repository, commentID int64, body string) error {
	if _, _, err := c.gh.Issues.EditComment(ctx, repo.Owner, repo.Name, commentID, &gh.IssueComment{Body: gh.String(body)}); err != nil {
		return collaborator(err, "edit comment %d on %s", commentID, repo.FullName())
	}
	return nil
}

func (c *Client) DeleteComment(ctx context.Context, repo domain.Repository, commentID int64) error {
	if _, err := c.gh.Issues.DeleteComment(ctx, repo.Owner, repo.Name, commentID); err != nil {
		return collaborator(err, "delete comment %d on %s", commentID, repo.FullName())
	}
	return nil
}

func (c *Client) CreateStatus(ctx context.Context, repo domain.Repository, sha string, status domain.StatusPayload) error {
	st := &gh.RepoStatus{
		State:       gh.String(string(status.State)),
		Description: gh.String(status.Description),
		Context:     gh.String(status.Context),
	}
	if status.TargetURL != "" {
		st.TargetURL = gh.String(status.TargetURL)
	}
	if _, _, err := c.gh.Repositories.CreateStatus(ctx, repo.Owner, repo.Name, sha, st); err != nil {
		return collaborator(err, "create status on %s@%s", repo.FullName(), sha)
	}
	return nil
}

func collaborator(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), domain.ErrCollaborator)
}
