package statestore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.etcd.io/bbolt"

	"github.com/multisendorg/libmultisend-go/affiliate"
	"github.com/multisendorg/libmultisend-go/engine"
	"github.com/multisendorg/libmultisend-go/pricing"
)

var (
	bucketMembers          = []byte("members")
	bucketAffiliates       = []byte("affiliates")
	bucketBindings         = []byte("bindings")
	bucketMemberDiscounts  = []byte("member_discounts")
	bucketListingDiscounts = []byte("listing_discounts")
	bucketPrices           = []byte("prices")
	bucketListings         = []byte("listings")
	bucketConsumedTrials   = []byte("consumed_trials")
)

// allBuckets lists every bucket the store maintains.
var allBuckets = [][]byte{
	bucketMembers, bucketAffiliates, bucketBindings,
	bucketMemberDiscounts, bucketListingDiscounts,
	bucketPrices, bucketListings, bucketConsumedTrials,
}

// BoltStore persists engine snapshots in a bbolt database.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens or creates the bbolt database at dbPath. The parent
// directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("statestore: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("statestore: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("statestore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("statestore: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// SaveSnapshot replaces the persisted state with snap.
func (s *BoltStore) SaveSnapshot(snap *engine.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := resetBuckets(tx); err != nil {
			return err
		}

		members := tx.Bucket(bucketMembers)
		for addr, expiry := range snap.Members {
			v, err := encodeGob(expiry)
			if err != nil {
				return fmt.Errorf("statestore: encode member: %w", err)
			}
			if err := members.Put(addr.Bytes(), v); err != nil {
				return err
			}
		}

		// Keyed by owner+code: a deactivated record and the active record
		// that reclaimed its code must both survive.
		affiliates := tx.Bucket(bucketAffiliates)
		for _, rec := range snap.Affiliates.Records {
			v, err := encodeGob(rec)
			if err != nil {
				return fmt.Errorf("statestore: encode affiliate: %w", err)
			}
			key := append(rec.Owner.Bytes(), []byte(rec.Code)...)
			if err := affiliates.Put(key, v); err != nil {
				return err
			}
		}

		bindings := tx.Bucket(bucketBindings)
		for user, owner := range snap.Affiliates.Bindings {
			if err := bindings.Put(user.Bytes(), owner.Bytes()); err != nil {
				return err
			}
		}

		if err := putPercents(tx.Bucket(bucketMemberDiscounts), snap.Discounts.Membership); err != nil {
			return err
		}
		if err := putPercents(tx.Bucket(bucketListingDiscounts), snap.Discounts.Listing); err != nil {
			return err
		}
		if err := putPrices(tx.Bucket(bucketPrices), snap.Prices); err != nil {
			return err
		}

		listings := tx.Bucket(bucketListings)
		for _, token := range snap.Listed {
			if err := listings.Put(token.Bytes(), []byte{1}); err != nil {
				return err
			}
		}
		trials := tx.Bucket(bucketConsumedTrials)
		for _, token := range snap.TrialsUsed {
			if err := trials.Put(token.Bytes(), []byte{1}); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadSnapshot reads the persisted state.
func (s *BoltStore) LoadSnapshot() (*engine.Snapshot, error) {
	snap := &engine.Snapshot{
		Members: make(map[common.Address]int64),
		Affiliates: affiliate.Snapshot{
			Bindings: make(map[common.Address]common.Address),
		},
		Discounts: pricing.Snapshot{
			Membership: make(map[common.Address]uint8),
			Listing:    make(map[common.Address]uint8),
		},
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		err := tx.Bucket(bucketMembers).ForEach(func(k, v []byte) error {
			var expiry int64
			if err := decodeGob(v, &expiry); err != nil {
				return fmt.Errorf("statestore: decode member: %w", err)
			}
			snap.Members[common.BytesToAddress(k)] = expiry
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(bucketAffiliates).ForEach(func(_, v []byte) error {
			var rec affiliate.Record
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("statestore: decode affiliate: %w", err)
			}
			snap.Affiliates.Records = append(snap.Affiliates.Records, rec)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(bucketBindings).ForEach(func(k, v []byte) error {
			snap.Affiliates.Bindings[common.BytesToAddress(k)] = common.BytesToAddress(v)
			return nil
		})
		if err != nil {
			return err
		}

		if err := loadPercents(tx.Bucket(bucketMemberDiscounts), snap.Discounts.Membership); err != nil {
			return err
		}
		if err := loadPercents(tx.Bucket(bucketListingDiscounts), snap.Discounts.Listing); err != nil {
			return err
		}
		if err := loadPrices(tx.Bucket(bucketPrices), &snap.Prices); err != nil {
			return err
		}

		err = tx.Bucket(bucketListings).ForEach(func(k, _ []byte) error {
			snap.Listed = append(snap.Listed, common.BytesToAddress(k))
			return nil
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketConsumedTrials).ForEach(func(k, _ []byte) error {
			snap.TrialsUsed = append(snap.TrialsUsed, common.BytesToAddress(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// resetBuckets drops and recreates every bucket.
func resetBuckets(tx *bbolt.Tx) error {
	for _, name := range allBuckets {
		if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("statestore: drop bucket %q: %w", name, err)
		}
		if _, err := tx.CreateBucket(name); err != nil {
			return fmt.Errorf("statestore: recreate bucket %q: %w", name, err)
		}
	}
	return nil
}

// putPercents writes an address→percent map into a bucket.
func putPercents(b *bbolt.Bucket, percents map[common.Address]uint8) error {
	for addr, pct := range percents {
		if err := b.Put(addr.Bytes(), []byte{pct}); err != nil {
			return err
		}
	}
	return nil
}

// loadPercents reads an address→percent map out of a bucket.
func loadPercents(b *bbolt.Bucket, into map[common.Address]uint8) error {
	return b.ForEach(func(k, v []byte) error {
		if len(v) != 1 {
			return fmt.Errorf("statestore: malformed percent entry (%d bytes)", len(v))
		}
		into[common.BytesToAddress(k)] = v[0]
		return nil
	})
}

// priceEntry pairs a price table field with its persisted key.
type priceEntry struct {
	key   string
	value **uint256.Int
}

// priceEntries lists the price table fields in the configuration file's
// vocabulary.
func priceEntries(prices *engine.PriceTable) []priceEntry {
	return []priceEntry{
		{"drop_unit_price", &prices.DropUnitPrice},
		{"one_day_price", &prices.OneDayPrice},
		{"one_week_price", &prices.OneWeekPrice},
		{"one_month_price", &prices.OneMonthPrice},
		{"lifetime_price", &prices.LifetimePrice},
		{"listing_fee", &prices.ListingFee},
	}
}

// putPrices writes the snapshot's price table as decimal strings.
func putPrices(b *bbolt.Bucket, prices engine.PriceTable) error {
	for _, entry := range priceEntries(&prices) {
		if *entry.value == nil {
			continue
		}
		if err := b.Put([]byte(entry.key), []byte((*entry.value).Dec())); err != nil {
			return err
		}
	}
	return nil
}

// loadPrices reads the persisted price table. Unknown keys are rejected.
func loadPrices(b *bbolt.Bucket, into *engine.PriceTable) error {
	entries := priceEntries(into)
	return b.ForEach(func(k, v []byte) error {
		price, err := uint256.FromDecimal(string(v))
		if err != nil {
			return fmt.Errorf("statestore: decode price %q: %w", k, err)
		}
		for _, entry := range entries {
			if entry.key == string(k) {
				*entry.value = price
				return nil
			}
		}
		return fmt.Errorf("statestore: unknown price key %q", k)
	})
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
