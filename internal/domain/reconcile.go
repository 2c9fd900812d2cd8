package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// BotComment is a PR comment as listed by the hosting platform.
// CreatedOrder is the position in the platform's oldest-first listing.
type BotComment struct {
	ID           int64  `json:"id"`
	Body         string `json:"body"`
	CreatedOrder int    `json:"createdOrder"`
}

// CommentMarker is the first line of every comment written for the given
// context. Ownership of existing comments is decided by prefix match on it.
func CommentMarker(commentContext string) string {
	return fmt.Sprintf("<!-- coverage: %s -->", commentContext)
}

// OwnsComment reports whether body was written for the marker's context.
func OwnsComment(marker, body string) bool {
	return strings.HasPrefix(body, marker)
}

// Strategy decides how earlier bot comments are treated when a new one is produced.
type Strategy string

const (
	StrategyReplace Strategy = "replace"
	StrategyUpdate  Strategy = "update"
	StrategyInsert  Strategy = "insert"
)

// ParseStrategy returns the strategy named by s. Unknown values fall back to
// StrategyReplace and report ok=false.
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyReplace:
		return StrategyReplace, true
	case StrategyUpdate:
		return StrategyUpdate, true
	case StrategyInsert:
		return StrategyInsert, true
	default:
		return StrategyReplace, false
	}
}

// ReconcileState tracks a reconciliation through its lifecycle.
type ReconcileState string

const (
	StateListed  ReconcileState = "listed"
	StatePlanned ReconcileState = "planned"
	StateApplied ReconcileState = "applied"
)

// ErrInvalidTransition is returned when a reconciliation step runs out of order.
var ErrInvalidTransition = errors.New("invalid reconciliation transition")

// ReconcilePlan lists the mutations for one run. Deletes are applied first,
// then either the update of UpdateID or an insert.
type ReconcilePlan struct {
	Strategy Strategy `json:"strategy"`
	Deletes  []int64  `json:"deletes"`
	UpdateID int64    `json:"updateId,omitempty"`
	Insert   bool     `json:"insert"`
	Body     string   `json:"-"`
}

// Updates reports whether the plan edits an existing comment in place.
func (p ReconcilePlan) Updates() bool {
	return p.UpdateID != 0
}

// Reconciliation is the Listed -> Planned -> Applied state machine over the
// bot's existing comments on one pull request.
type Reconciliation struct {
	state  ReconcileState
	marker string
	owned  []BotComment
	plan   ReconcilePlan
}

// NewReconciliation keeps the comments owned by marker, oldest first.
func NewReconciliation(marker string, comments []BotComment) *Reconciliation {
	owned := make([]BotComment, 0, len(comments))
	for _, c := range comments {
		if OwnsComment(marker, c.Body) {
			owned = append(owned, c)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].CreatedOrder < owned[j].CreatedOrder
	})
	return &Reconciliation{
		state:  StateListed,
		marker: marker,
		owned:  owned,
	}
}

// State returns the current lifecycle state.
func (r *Reconciliation) State() ReconcileState {
	return r.state
}

// Owned returns the marked comments found on the PR, oldest first.
func (r *Reconciliation) Owned() []BotComment {
	return append([]BotComment(nil), r.owned...)
}

// Plan decides the mutations for strategy and moves the reconciliation to Planned.
func (r *Reconciliation) Plan(strategy Strategy, body string) (ReconcilePlan, error) {
	if r.state != StateListed {
		return ReconcilePlan{}, errors.Wrapf(ErrInvalidTransition, "plan from %s", r.state)
	}

	plan := ReconcilePlan{Strategy: strategy, Body: body, Deletes: []int64{}}
	switch strategy {
	case StrategyUpdate:
		if len(r.owned) == 0 {
			plan.Insert = true
			break
		}
		last := len(r.owned) - 1
		for _, c := range r.owned[:last] {
			plan.Deletes = append(plan.Deletes, c.ID)
		}
		plan.UpdateID = r.owned[last].ID
	case StrategyInsert:
		plan.Insert = true
	default:
		plan.Strategy = StrategyReplace
		for _, c := range r.owned {
			plan.Deletes = append(plan.Deletes, c.ID)
		}
		plan.Insert = true
	}

	r.plan = plan
	r.state = StatePlanned
	return plan, nil
}

// MarkApplied records that every mutation of the plan has completed.
func (r *Reconciliation) MarkApplied() error {
	if r.state != StatePlanned {
		return errors.Wrapf(ErrInvalidTransition, "apply from %s", r.state)
	}
	r.state = StateApplied
	return nil
}
