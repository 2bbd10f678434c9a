package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bolt keeps the ledger in a single bbolt file on the local disk, one bucket
// per organization. It is only consistent for this host.
type Bolt struct {
	db *bolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

func bucketName(orgID uint) []byte {
	return []byte("org_" + strconv.FormatUint(uint64(orgID), 10))
}

func (b *Bolt) Contains(_ context.Context, orgID uint, phone string) (bool, error) {
	k := key(phone)
	if k == "" {
		return false, nil
	}
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName(orgID))
		if bucket == nil {
			return nil
		}
		found = bucket.Get([]byte(k)) != nil
		return nil
	})
	return found, err
}

func (b *Bolt) Append(_ context.Context, orgID uint, entry Entry) error {
	entry.Phone = key(entry.Phone)
	if entry.Phone == "" {
		return fmt.Errorf("ledger entry without phone number")
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketName(orgID))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(entry.Phone), data)
	})
}

// Entries returns the organization's ledger, oldest first.
func (b *Bolt) Entries(_ context.Context, orgID uint) ([]Entry, error) {
	entries := []Entry{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName(orgID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SentAt.Before(entries[j].SentAt)
	})
}
