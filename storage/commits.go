package storage

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	bolt "go.etcd.io/bbolt"
)

const (
	TRANSFERRED = "transferred"
	REGISTERED  = "registered"
)

// CommitRecord is what has been committed on chain for one category roster.
// Records are keyed by the roster fingerprint, so a changed roster starts fresh.
type CommitRecord struct {
	Fingerprint   string    `json:"f"`
	Category      string    `json:"c"`
	Amount        string    `json:"a"`  // Funded amount, base-10 smallest unit
	TransferTx    string    `json:"tt"` // Confirmed transfer tx hash
	TransferredAt time.Time `json:"ta"`
	RegisterTx    string    `json:"rt"` // Confirmed registration tx hash
	RegisteredAt  time.Time `json:"ra"`
	Status        string    `json:"st"` // One of: transferred, registered
}

// GetCommit returns the record for fingerprint, or nil when nothing was committed
func (s *Storage) GetCommit(fingerprint string) (*CommitRecord, error) {

	var record *CommitRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(COMMITS_BUCKET))
		if b == nil {
			return errors.New("Unable to locate commits bucket")
		}

		recordBytes := b.Get([]byte(fingerprint))
		if len(recordBytes) == 0 {
			return nil
		}

		record = new(CommitRecord)
		if err := json.Unmarshal(recordBytes, record); err != nil {
			return errors.Wrap(err, "Unable to decode commit record")
		}

		return nil
	})

	return record, err
}

// RecordTransfer marks the category roster as funded
func (s *Storage) RecordTransfer(fingerprint, category, amount, txHash string, at time.Time) error {

	record := &CommitRecord{
		Fingerprint:   fingerprint,
		Category:      category,
		Amount:        amount,
		TransferTx:    txHash,
		TransferredAt: at,
		Status:        TRANSFERRED,
	}

	return s.saveCommit(record)
}

// RecordRegistration marks the category roster as registered. The transfer
// fields of an existing record are kept.
func (s *Storage) RecordRegistration(fingerprint, category, txHash string, at time.Time) error {

	record, err := s.GetCommit(fingerprint)
	if err != nil {
		return err
	}

	if record == nil {
		record = &CommitRecord{
			Fingerprint: fingerprint,
			Category:    category,
		}
	}

	record.RegisterTx = txHash
	record.RegisteredAt = at
	record.Status = REGISTERED

	return s.saveCommit(record)
}

// GetCommitsAll returns every record, keyed by fingerprint
func (s *Storage) GetCommitsAll() (map[string]CommitRecord, error) {

	commits := make(map[string]CommitRecord)

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(COMMITS_BUCKET))
		if b == nil {
			return errors.New("Unable to locate commits bucket")
		}

		return b.ForEach(func(k, v []byte) error {
			var tmpRecord CommitRecord
			if err := json.Unmarshal(v, &tmpRecord); err != nil {
				return errors.Wrap(err, "Unable to decode commit record")
			}
			commits[string(k)] = tmpRecord

			return nil
		})
	})

	return commits, err
}

func (s *Storage) saveCommit(record *CommitRecord) error {

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "Unable to encode commit record")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(COMMITS_BUCKET))
		if b == nil {
			return errors.New("Unable to locate commits bucket")
		}

		return b.Put([]byte(record.Fingerprint), recordBytes)
	})
}
