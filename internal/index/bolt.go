package index

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "quarter_indexes"

// BoltRepository implements Repository on a bbolt file. Each (year, quarter)
// key holds one QuarterIndex as a JSON document; every append commits its own
// transaction, so a crash mid-batch leaves every already-processed invoice
// indexed.
type BoltRepository struct {
	db *bbolt.DB
	mu sync.Mutex
}

// NewBoltRepository opens (creating if needed) the index database.
func NewBoltRepository(path string) (*BoltRepository, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index bucket: %w", err)
	}

	return &BoltRepository{db: db}, nil
}

// Load returns the stored index for (year, quarter), or an empty one when the
// pair has never been written.
func (r *BoltRepository) Load(year int, quarter string) (*QuarterIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(year, quarter)
}

func (r *BoltRepository) load(year int, quarter string) (*QuarterIndex, error) {
	idx := &QuarterIndex{Quarter: quarter, Year: year, Invoices: []Entry{}}

	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(Key(year, quarter)))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, idx)
	})
	if err != nil {
		return nil, fmt.Errorf("loading index %s: %w", Key(year, quarter), err)
	}
	return idx, nil
}

// FindDuplicate matches on the full (tax id, invoice number, normalized
// date) triple; all three must be equal.
func (r *BoltRepository) FindDuplicate(year int, quarter, taxID, invoiceDate, invoiceNumber string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.load(year, quarter)
	if err != nil {
		return nil, err
	}

	for i := range idx.Invoices {
		e := &idx.Invoices[i]
		if e.TaxID == taxID && e.InvoiceDate == invoiceDate && e.InvoiceNumber == invoiceNumber {
			return e, nil
		}
	}
	return nil, nil
}

// Append adds the entry and writes the whole quarter document back inside a
// single committed transaction.
func (r *BoltRepository) Append(year int, quarter string, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		key := []byte(Key(year, quarter))

		idx := &QuarterIndex{Quarter: quarter, Year: year, Invoices: []Entry{}}
		if data := bucket.Get(key); data != nil {
			if err := json.Unmarshal(data, idx); err != nil {
				return fmt.Errorf("decoding index %s: %w", key, err)
			}
		}

		idx.Invoices = append(idx.Invoices, entry)
		data, err := json.Marshal(idx)
		if err != nil {
			return fmt.Errorf("encoding index %s: %w", key, err)
		}
		return bucket.Put(key, data)
	})
}

// Close closes the underlying database.
func (r *BoltRepository) Close() error {
	return r.db.Close()
}
