// Package logging provides the process-wide structured logger for the catalog.
//
// The package wraps [log/slog] and exposes a single global logger instance
// that is initialized once and then retrieved via GetLogger. Every subsystem
// (storage engine, catalog tables, DDL orchestration, the CLI) obtains its
// logger here so that level, format and destination are controlled from the
// [log] section of the configuration file.
//
// # Initialisation
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Format: "json"}); err != nil {
//	    log.Fatal(err)
//	}
//
// If GetLogger is called before Init, a default stderr logger is created
// lazily so that packages that log during init are safe.
//
// # Context helpers
//
//	log := logging.WithTx(txID)                 // adds tx_id
//	log := logging.WithCatalog("pg_trigger")    // adds catalog
//	log := logging.WithObject("trigger", oid)   // adds object kind and oid
package logging
