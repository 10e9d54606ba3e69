package sql

import "database/sql"

// TxOf is a test helper to extract the transaction a TransactionalRepository is bound to.
func TxOf(repo *TransactionalRepository) *sql.Tx {
	return repo.txn
}
