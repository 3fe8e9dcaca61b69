package elasticsearch

import (
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
)

var (
	_globalMu sync.RWMutex
	_global   *elasticsearch.TypedClient
)

// C is used to access the global elasticsearch client singleton
func C() *elasticsearch.TypedClient {
	_globalMu.RLock()
	defer _globalMu.RUnlock()
	return _global
}

// ReplaceGlobals builds a new elasticsearch client from the input configuration
// and affects it to the global elasticsearch client singleton
func ReplaceGlobals(config elasticsearch.Config) error {
	client, err := elasticsearch.NewTypedClient(config)
	if err != nil {
		return err
	}

	_globalMu.Lock()
	defer _globalMu.Unlock()
	_global = client
	return nil
}
