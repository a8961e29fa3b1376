package standingsdb

import (
	"context"
	"fmt"
	"sort"

	"github.com/uptrace/bun"
)

// Lock keys share one hashtext() space; prefixes keep the scopes apart.
func seasonLockKey(seasonID string) string { return "season:" + seasonID }

func divisionLockKey(seasonID, divisionID string) string {
	return "division:" + seasonID + "/" + divisionID
}

func entityLockKey(seasonID, entityID string) string {
	return "entity:" + seasonID + "/" + entityID
}

func (r *Impl) AcquireSeasonSharedLock(ctx context.Context, db bun.IDB, seasonID string) error {
	_, err := r.conn(db).NewRaw("SELECT pg_advisory_xact_lock_shared(hashtext(?))", seasonLockKey(seasonID)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("locks.AcquireSeasonSharedLock: %w", err)
	}
	return nil
}

func (r *Impl) AcquireSeasonExclusiveLock(ctx context.Context, db bun.IDB, seasonID string) error {
	_, err := r.conn(db).NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", seasonLockKey(seasonID)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("locks.AcquireSeasonExclusiveLock: %w", err)
	}
	return nil
}

func (r *Impl) AcquireDivisionLock(ctx context.Context, db bun.IDB, seasonID, divisionID string) error {
	_, err := r.conn(db).NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", divisionLockKey(seasonID, divisionID)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("locks.AcquireDivisionLock: %w", err)
	}
	return nil
}

func (r *Impl) AcquireEntityLocks(ctx context.Context, db bun.IDB, seasonID string, entityIDs []string) error {
	ids := append([]string(nil), entityIDs...)
	sort.Strings(ids)
	conn := r.conn(db)
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		if _, err := conn.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", entityLockKey(seasonID, id)).Exec(ctx); err != nil {
			return fmt.Errorf("locks.AcquireEntityLocks(%s): %w", id, err)
		}
	}
	return nil
}
