package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChangeEntity names the collection a change event refers to.
type ChangeEntity string

const (
	EntityTransaction    ChangeEntity = "transactions"
	EntityProjectRequest ChangeEntity = "project_requests"
)

// ChangeOp is the kind of write that produced a change event.
type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpUpdate ChangeOp = "UPDATE"
	OpDelete ChangeOp = "DELETE"
)

// ChangeEvent signals that a store changed. It carries no payload: consumers re-read.
type ChangeEvent struct {
	Entity ChangeEntity `json:"entity"`
	Op     ChangeOp     `json:"op"`
	ID     string       `json:"id"`
	At     time.Time    `json:"at"`
}

// Snapshot is a consistent read of both stores, published to dashboard consumers.
type Snapshot struct {
	Sequence       uint64           `json:"sequence"`
	Balance        BalanceSummary   `json:"balance"`
	PendingCount   int              `json:"pendingCount"`
	ActiveProjects []ProjectRequest `json:"activeProjects"`
	// PublicProjects holds ACTIVE and COMPLETED requests only.
	PublicProjects []ProjectRequest `json:"-"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}

// TransparencyView is what the public page may see.
type TransparencyView struct {
	Balance     decimal.Decimal  `json:"balance"`
	Projects    []ProjectRequest `json:"projects"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// Transparency derives the public view from a snapshot.
func (s Snapshot) Transparency() TransparencyView {
	projects := make([]ProjectRequest, 0, len(s.PublicProjects))
	for _, p := range s.PublicProjects {
		if p.Status.IsPublic() {
			projects = append(projects, p)
		}
	}
	return TransparencyView{
		Balance:     s.Balance.Balance,
		Projects:    projects,
		GeneratedAt: s.GeneratedAt,
	}
}

// TransitionNotice is the informational message emitted after a successful status change.
type TransitionNotice struct {
	RequestID string          `json:"requestID"`
	Title     string          `json:"title"`
	From      RequestStatus   `json:"from"`
	To        RequestStatus   `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	ActorID   string          `json:"actorID"`
	ActorName string          `json:"actorName"`
	At        time.Time       `json:"at"`
}
