package sync

import "fmt"

// Action is what the merge did with one ledger record
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
	ActionFailed  Action = "failed"
)

// Result is the outcome of merging a single record. Results exist only to
// be reduced into a Summary; callers never see them individually.
type Result struct {
	Code   string
	Action Action
	Err    error
}

// Summary is the reduced outcome of one snapshot merge
type Summary struct {
	Snapshot string
	Created  int
	Updated  int
	Skipped  int
	Failed   int
	Errors   []string
}

// NewSummary creates an empty summary for a snapshot family
func NewSummary(snapshot string) *Summary {
	return &Summary{Snapshot: snapshot}
}

// Record folds one result into the summary
func (s *Summary) Record(res Result) {
	switch res.Action {
	case ActionCreated:
		s.Created++
	case ActionUpdated:
		s.Updated++
	case ActionSkipped:
		s.Skipped++
	case ActionFailed:
		s.Failed++
		if res.Err != nil {
			s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", res.Code, res.Err))
		}
	}
}

// Total returns the number of records the merge saw
func (s *Summary) Total() int {
	return s.Created + s.Updated + s.Skipped + s.Failed
}

// String renders the summary for logs
func (s *Summary) String() string {
	return fmt.Sprintf("%s: %d created, %d updated, %d skipped, %d failed",
		s.Snapshot, s.Created, s.Updated, s.Skipped, s.Failed)
}
