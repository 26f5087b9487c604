package transaction

import "fmt"

// TransactionID names a transaction. Row versions record the id of the
// transaction that created or deleted them, and metadata objects carry the id
// of the transaction that read them.
type TransactionID int64

// InvalidTransactionID is never handed out. Committed row versions use it as
// their creator.
const InvalidTransactionID TransactionID = 0

func (tid TransactionID) IsValid() bool {
	return tid != InvalidTransactionID
}

func (tid TransactionID) String() string {
	return fmt.Sprintf("TID-%d", int64(tid))
}
