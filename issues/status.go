package issues

import (
	"errors"
	"fmt"

	"civicreport/models"
)

var ErrTransitionNotAllowed = errors.New("status transition not allowed")

// TransitionPolicy decides which admin status changes are accepted.
type TransitionPolicy string

const (
	// Permissive lets an admin move an issue between any two statuses,
	// including back from resolved.
	Permissive TransitionPolicy = "permissive"
	// ForwardOnly allows pending -> in_progress -> resolved, skipping allowed.
	ForwardOnly TransitionPolicy = "forward"
)

var statusRank = map[models.IssueStatus]int{
	models.Pending:    0,
	models.InProgress: 1,
	models.Resolved:   2,
}

// ParseTransitionPolicy defaults to Permissive for an empty value.
func ParseTransitionPolicy(raw string) (TransitionPolicy, error) {
	switch TransitionPolicy(raw) {
	case "", Permissive:
		return Permissive, nil
	case ForwardOnly:
		return ForwardOnly, nil
	}
	return "", fmt.Errorf("unknown status transition policy %q", raw)
}

// Check validates moving an issue from one status to another. A request for the
// current status is not a transition and is reported by the store, not here.
func (p TransitionPolicy) Check(from, to models.IssueStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if p == ForwardOnly && statusRank[to] < statusRank[from] {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
	}
	return nil
}

// AllowedFrom lists the statuses an issue may hold for a move to to be
// accepted, excluding to itself. A nil result means any other status.
func (p TransitionPolicy) AllowedFrom(to models.IssueStatus) []models.IssueStatus {
	if p != ForwardOnly {
		return nil
	}
	from := make([]models.IssueStatus, 0, len(statusRank))
	for _, status := range []models.IssueStatus{models.Pending, models.InProgress, models.Resolved} {
		if status != to && statusRank[status] <= statusRank[to] {
			from = append(from, status)
		}
	}
	return from
}
