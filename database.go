// Database lifecycle.
package forest

import (
	"github.com/rs/zerolog"

	"github.com/jpl-au/forest/engine"
)

// DefaultKeyStoreName names the key-value store returned by DefaultKeyStore.
const DefaultKeyStoreName = "default"

// Database is an open database file.
type Database struct {
	path string
	file *engine.File
	log  zerolog.Logger
}

// Open opens or creates the database at path.
func Open(path string, config Config) (*Database, error) {
	log := config.logger()

	file, err := engine.Open(path, config.engine())
	if err != nil {
		return nil, native(err)
	}

	log.Debug().Str("path", path).Bool("read_only", config.ReadOnly).Msg("opened database")
	return &Database{path: path, file: file, log: log}, nil
}

// Close closes the database. Handles obtained from it stop working.
func (db *Database) Close() error {
	if err := db.file.Close(); err != nil {
		return native(err)
	}
	db.log.Debug().Str("path", db.path).Msg("closed database")
	return nil
}

// Commit flushes all writes to stable storage.
func (db *Database) Commit() error {
	return native(db.file.Commit())
}

// Compact rewrites the file keeping only the current version of each
// document.
func (db *Database) Compact() error {
	if err := db.file.Compact(); err != nil {
		db.log.Error().Err(err).Str("path", db.path).Msg("compaction failed")
		return native(err)
	}
	db.log.Info().Str("path", db.path).Msg("compacted database")
	return nil
}

// Path returns the path the database was opened with.
func (db *Database) Path() string {
	return db.path
}

// KeyStore returns the named key-value store.
func (db *Database) KeyStore(name string) (*KeyStore, error) {
	store, err := db.file.Store(name)
	if err != nil {
		return nil, native(err)
	}
	return &KeyStore{store: store}, nil
}

// DefaultKeyStore returns the store named DefaultKeyStoreName.
func (db *Database) DefaultKeyStore() (*KeyStore, error) {
	return db.KeyStore(DefaultKeyStoreName)
}

// KeyStoreNames returns the sorted names of stores holding records.
func (db *Database) KeyStoreNames() []string {
	return db.file.Stores()
}
