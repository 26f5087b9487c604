package catalog

import (
	"sync"

	"syscat/pkg/config"
)

var (
	instanceMu sync.Mutex
	initOnce   sync.Once
	instance   *Catalog
	initErr    error
)

// Init opens the process-wide catalog. Only the first call does any work;
// later calls return the first call's error. Call Shutdown to allow another
// Init.
func Init(cfg config.Config, opts ...Option) error {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	initOnce.Do(func() {
		instance, initErr = Open(cfg, opts...)
	})
	return initErr
}

// Get returns the process-wide catalog, or nil before Init succeeded.
func Get() *Catalog {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance
}

// Shutdown closes the process-wide catalog, saving a snapshot if one is
// configured, and resets the package so Init can run again.
func Shutdown() error {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	var err error
	if instance != nil {
		err = instance.Close()
	}
	instance = nil
	initErr = nil
	initOnce = sync.Once{}
	return err
}
