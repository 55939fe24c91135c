package sqlite

import (
	"database/sql"

	"github.com/aussiebroadwan/eventpass/internal/accounts/store"
)

type txStore struct {
	tx *sql.Tx
	q  *queries
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{
		tx: tx,
		q:  newQueries(tx),
	}
}

func (t *txStore) Accounts() store.Accounts { return &accountsRepo{q: t.q} }
