package github

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/felixgeelhaar/covermon/internal/domain"
	"github.com/felixgeelhaar/covermon/internal/pathutil"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// eventPayload is the subset of a webhook payload a run needs.
type eventPayload struct {
	PullRequest *pullRequestPayload `json:"pull_request" validate:"required"`
	Repository  struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

type pullRequestPayload struct {
	Number  int    `json:"number" validate:"required,gt=0"`
	HTMLURL string `json:"html_url" validate:"required,url"`
	Head    struct {
		SHA string `json:"sha" validate:"required"`
	} `json:"head" validate:"required"`
}

// EventLoader reads the webhook payload the Actions runner writes to
// GITHUB_EVENT_PATH.
type EventLoader struct{}

// Load extracts the pull request. Payloads without a pull request number,
// URL and head commit fail with domain.ErrUnsupportedEvent.
func (EventLoader) Load(path string) (domain.PullRequest, error) {
	clean, err := pathutil.ValidatePath(path)
	if err != nil {
		return domain.PullRequest{}, errors.Wrap(err, "event path")
	}
	raw, err := os.ReadFile(clean) // #nosec G304 - path is validated above
	if err != nil {
		return domain.PullRequest{}, errors.Wrap(err, "read event payload")
	}
	return ParseEvent(raw)
}

// ParseEvent decodes a webhook payload.
func ParseEvent(raw []byte) (domain.PullRequest, error) {
	var ev eventPayload
	if err := json.Unmarshal(raw, &ev); err != nil {
		return domain.PullRequest{}, errors.Wrap(err, "decode event payload")
	}
	if err := validate.Struct(ev); err != nil {
		return domain.PullRequest{}, errors.Mark(errors.Wrap(err, "event payload"), domain.ErrUnsupportedEvent)
	}

	pr := domain.PullRequest{
		Number:  ev.PullRequest.Number,
		URL:     ev.PullRequest.HTMLURL,
		HeadSHA: ev.PullRequest.Head.SHA,
	}
	if owner, name, ok := strings.Cut(ev.Repository.FullName, "/"); ok {
		pr.Repo = domain.Repository{Owner: owner, Name: name}
	}
	return pr, nil
}
