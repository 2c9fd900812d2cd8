package application

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/felixgeelhaar/covermon/internal/domain"
)

// ReconcileOutcome records the comment mutations that were applied.
type ReconcileOutcome struct {
	Deleted   []int64 `json:"deleted,omitempty"`
	UpdatedID int64   `json:"updatedId,omitempty"`
	CreatedID int64   `json:"createdId,omitempty"`
}

// CommentID is the id of the comment carrying the new body.
func (o ReconcileOutcome) CommentID() int64 {
	if o.UpdatedID != 0 {
		return o.UpdatedID
	}
	return o.CreatedID
}

// CommentReconciler applies a reconcile plan against the platform.
// Deletes run one at a time and all complete before the update or insert.
type CommentReconciler struct {
	Platform PlatformClient
	Logger   *log.Logger
}

// Apply executes plan. The first failing call aborts; nothing is retried.
func (r CommentReconciler) Apply(ctx context.Context, pr domain.PullRequest, plan domain.ReconcilePlan) (ReconcileOutcome, error) {
	logger := orDiscard(r.Logger)
	var out ReconcileOutcome

	for _, id := range plan.Deletes {
		if err := r.Platform.DeleteComment(ctx, pr.Repo, id); err != nil {
			return out, errors.Wrapf(err, "delete comment %d", id)
		}
		logger.Debug("deleted comment", "id", id)
		out.Deleted = append(out.Deleted, id)
	}

	switch {
	case plan.Updates():
		if err := r.Platform.UpdateComment(ctx, pr.Repo, plan.UpdateID, plan.Body); err != nil {
			return out, errors.Wrapf(err, "update comment %d", plan.UpdateID)
		}
		out.UpdatedID = plan.UpdateID
		logger.Debug("updated comment", "id", plan.UpdateID)
	case plan.Insert:
		id, err := r.Platform.CreateComment(ctx, pr.Repo, pr.Number, plan.Body)
		if err != nil {
			return out, errors.Wrap(err, "create comment")
		}
		out.CreatedID = id
		logger.Debug("created comment", "id", id)
	}

	return out, nil
}

// StatusPublisher sends the status payload for the PR head commit.
type StatusPublisher struct {
	Platform PlatformClient
}

// Publish posts payload, trimmed to the platform's description limit.
func (p StatusPublisher) Publish(ctx context.Context, pr domain.PullRequest, payload domain.StatusPayload) error {
	if err := p.Platform.CreateStatus(ctx, pr.Repo, pr.HeadSHA, payload.Truncated()); err != nil {
		return errors.Wrapf(err, "create status %q", payload.Context)
	}
	return nil
}
