package storage

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	bolt "go.etcd.io/bbolt"
	log "github.com/sirupsen/logrus"
)

const (
	DATABASE_FILE = "whitelister.db"

	COMMITS_BUCKET = "commits"
)

type Storage struct {
	db *bolt.DB
}

// InitStorage opens (or creates) the commit ledger under dataDir
func InitStorage(dataDir string) (*Storage, error) {

	dbFile := filepath.Join(dataDir, DATABASE_FILE)

	db, err := bolt.Open(dbFile, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to init db")
	}

	// Ensure buckets exist
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(COMMITS_BUCKET)); err != nil {
			return errors.Wrap(err, "Cannot create commits bucket")
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	log.WithField("File", dbFile).Debug("Opened commit ledger")

	return &Storage{
		db: db,
	}, nil
}

func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		log.WithError(err).Error("Unable to close database")
		return
	}
	log.Info("Database closed")
}
