package domain

import "time"

// ActionKind identifies a queued offline mutation.
type ActionKind string

const (
	ActionCreateProject      ActionKind = "CREATE_PROJECT"
	ActionUpdateProject      ActionKind = "UPDATE_PROJECT"
	ActionFundProject        ActionKind = "FUND_PROJECT"
	ActionSubmitReport       ActionKind = "SUBMIT_REPORT"
	ActionRecordDistribution ActionKind = "RECORD_DISTRIBUTION"
)

// Valid reports whether k is a known action kind.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionCreateProject, ActionUpdateProject, ActionFundProject,
		ActionSubmitReport, ActionRecordDistribution:
		return true
	}
	return false
}

// PendingAction is a mutation captured while offline and awaiting replay.
type PendingAction struct {
	ID        string     `json:"id"`
	Kind      ActionKind `json:"kind"`
	Payload   Record     `json:"payload"`
	TempID    string     `json:"temp_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Synced    bool       `json:"synced"`
	SyncedAt  *time.Time `json:"synced_at,omitempty"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
}
