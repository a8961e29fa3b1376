package standingsdb

import (
	"github.com/uptrace/bun"
)

// Impl implements Repository on Postgres.
type Impl struct {
	db *bun.DB
}

// NewRepository creates a Repository backed by db.
func NewRepository(db *bun.DB) Repository {
	return &Impl{db: db}
}

func (r *Impl) conn(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}
