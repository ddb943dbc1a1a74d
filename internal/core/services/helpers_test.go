package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	admin    = domain.Actor{UserID: "admin-1", Name: "Ada", Role: domain.RoleAdmin}
	member   = domain.Actor{UserID: "member-1", Name: "Max", Role: domain.RoleMember}
	member2  = domain.Actor{UserID: "member-2", Name: "Mia", Role: domain.RoleMember}
	readOnly = domain.Actor{UserID: "viewer-1", Name: "Vic", Role: domain.RoleReadOnly}
)

var fixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func ptr[T any](v T) *T { return &v }

// waitFor polls cond until it holds or the timeout passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if cond() {
			return true
		}
		select {
		case <-ctx.Done():
			return cond()
		case <-ticker.C:
		}
	}
}
