package logging

import "log/slog"

// WithTx tags records with a transaction id.
//
//	log := logging.WithTx(int64(txn.ID))
//	log.Debug("scan", "rows", n)
func WithTx(txID int64) *slog.Logger {
	return GetLogger().With("tx_id", txID)
}

// WithCatalog tags records with the catalog table they concern.
func WithCatalog(catalogName string) *slog.Logger {
	return GetLogger().With("component", "catalog", "catalog", catalogName)
}

// WithObject tags records with the kind and oid of a metadata object.
func WithObject(kind string, oid uint32) *slog.Logger {
	return GetLogger().With("object", kind, "oid", oid)
}

func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}
