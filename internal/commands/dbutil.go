package commands

import (
	"github.com/spf13/cobra"

	"github.com/jpl-au/forest"
	"github.com/jpl-au/forest/internal/app"
)

// openDB resolves settings, applies flag overrides and opens the database.
// The logger writes to the command's stderr.
func (o *options) openDB(cmd *cobra.Command, readOnly bool) (*forest.Database, error) {
	s, err := app.LoadSettings(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		s.DB = o.dbPath
	}
	if o.logLevel != "" {
		s.LogLevel = o.logLevel
	}

	log, err := app.NewLogger(cmd.ErrOrStderr(), s.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg, err := s.Config(readOnly, &log)
	if err != nil {
		return nil, err
	}
	return forest.Open(s.DBPath(), cfg)
}

func withDB(cmd *cobra.Command, o *options, readOnly bool, fn func(db *forest.Database) error) error {
	db, err := o.openDB(cmd, readOnly)
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		_ = db.Close()
		return err
	}
	return db.Close()
}

func withStore(cmd *cobra.Command, o *options, readOnly bool, fn func(ks *forest.KeyStore) error) error {
	return withDB(cmd, o, readOnly, func(db *forest.Database) error {
		ks, err := db.KeyStore(o.storeName)
		if err != nil {
			return err
		}
		return fn(ks)
	})
}
