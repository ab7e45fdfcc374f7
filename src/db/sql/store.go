package db

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres-backed persistence layer. It is constructed
// explicitly and passed into the sync service and notification fanout.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}
