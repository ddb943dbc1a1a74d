package pgsql

import (
	"github.com/SscSPs/org_funding_app/internal/adapters/changefeed"
	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the Postgres repositories. With a PgChangeFeed the
// projection hears about writes from every instance through LISTEN. Without one,
// ChangeFeed only announces writes made through this provider, and another adapter
// is expected to carry changes between instances.
func NewRepositoryProvider(pool *pgxpool.Pool, feed *PgChangeFeed) portsrepo.RepositoryProvider {
	local := changefeed.NewBroadcaster()
	requests := newPgxProjectRequestRepository(pool, local)
	provider := portsrepo.RepositoryProvider{
		LedgerRepo:     newPgxLedgerRepository(pool, local),
		RequestRepo:    requests,
		ApprovalWriter: requests,
		ChangeFeed:     local,
	}
	if feed != nil {
		provider.ChangeFeed = feed
	}
	return provider
}
