package collector

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/petal-labs/warehouse/core"
)

// ErrNotFound is returned when a record id is unknown.
var ErrNotFound = errors.New("record not found")

// Key layout:
//
//	r/<unix nanos, big endian>/<record id>  -> record JSON
//	i/<record id>                           -> r/ key
const (
	recordPrefix = "r/"
	indexPrefix  = "i/"
)

// StoreConfig configures the record store.
type StoreConfig struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in memory. Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// GCInterval is how often value log garbage collection runs. 0 disables it.
	GCInterval time.Duration

	// Logger receives BadgerDB's own log output. Nil silences it.
	Logger *slog.Logger
}

// Query filters List results.
type Query struct {
	SDKMethod string
	Outcome   core.Outcome
	Since     time.Time
	Limit     int
}

// DefaultLimit caps List when Query.Limit is not set.
const DefaultLimit = 100

// Stats aggregates stored records.
type Stats struct {
	Total     int                     `json:"total"`
	ByMethod  map[string]int          `json:"by_method"`
	ByOutcome map[core.Outcome]int    `json:"by_outcome"`
	Latency   map[string]LatencyStats `json:"latency"`
}

// LatencyStats summarizes latency per sdk_method.
type LatencyStats struct {
	Count  int     `json:"count"`
	MeanS  float64 `json:"mean_s"`
	MaxS   float64 `json:"max_s"`
	totalS float64
}

// Store persists records in BadgerDB, newest first on read.
type Store struct {
	db     *badger.DB
	stopGC chan struct{}
	doneGC chan struct{}
	logger *slog.Logger
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenStore opens the store described by cfg.
func OpenStore(cfg StoreConfig) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("%w: store path is required for a persistent database", core.ErrInvalidConfig)
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &Store{db: db, logger: cfg.Logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.doneGC = make(chan struct{})
		go s.runGC(cfg.GCInterval)
	}
	return s, nil
}

// OpenInMemoryStore opens a store without disk persistence.
func OpenInMemoryStore() (*Store, error) {
	return OpenStore(StoreConfig{InMemory: true})
}

// Close stops garbage collection and closes the database.
func (s *Store) Close() error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.doneGC
	}
	return s.db.Close()
}

func (s *Store) runGC(interval time.Duration) {
	defer close(s.doneGC)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			// ErrNoRewrite means there was nothing to collect.
			if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) && s.logger != nil {
				s.logger.Warn("badger value log GC error", slog.String("error", err.Error()))
			}
		}
	}
}

func recordKey(r core.Record) []byte {
	key := make([]byte, 0, len(recordPrefix)+8+1+len(r.ID))
	key = append(key, recordPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(r.Time.UnixNano()))
	key = append(key, '/')
	return append(key, r.ID...)
}

// Put stores records. Records without an id or timestamp get one.
// Storing an id twice replaces the earlier record.
func (s *Store) Put(ctx context.Context, records ...core.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, r := range records {
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			if r.Time.IsZero() {
				r.Time = time.Now().UTC()
			}
			val, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode record %s: %w", r.ID, err)
			}

			idx := []byte(indexPrefix + r.ID)
			if item, err := txn.Get(idx); err == nil {
				old, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if err := txn.Delete(old); err != nil {
					return err
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			key := recordKey(r)
			if err := txn.Set(key, val); err != nil {
				return err
			}
			if err := txn.Set(idx, key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (core.Record, error) {
	var rec core.Record
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// List returns records matching q, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]core.Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := make([]core.Record, 0)
	err := s.scan(ctx, func(r core.Record) bool {
		if !q.Since.IsZero() && r.Time.Before(q.Since) {
			return false
		}
		if q.SDKMethod != "" && r.SDKMethod != q.SDKMethod {
			return true
		}
		if q.Outcome != "" && r.Outcome != q.Outcome {
			return true
		}
		out = append(out, r)
		return len(out) < limit
	})
	return out, err
}

// Stats aggregates every stored record.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{
		ByMethod:  map[string]int{},
		ByOutcome: map[core.Outcome]int{},
		Latency:   map[string]LatencyStats{},
	}
	err := s.scan(ctx, func(r core.Record) bool {
		st.Total++
		st.ByMethod[r.SDKMethod]++
		st.ByOutcome[r.Outcome]++
		l := st.Latency[r.SDKMethod]
		l.Count++
		l.totalS += r.LatencySeconds()
		l.MeanS = l.totalS / float64(l.Count)
		if r.LatencySeconds() > l.MaxS {
			l.MaxS = r.LatencySeconds()
		}
		st.Latency[r.SDKMethod] = l
		return true
	})
	return st, err
}

// scan walks records newest first until fn returns false.
func (s *Store) scan(ctx context.Context, fn func(core.Record) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks from just past the last possible record key.
		seek := append([]byte(recordPrefix), bytes.Repeat([]byte{0xFF}, 9)...)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r core.Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			if !fn(r) {
				return nil
			}
		}
		return nil
	})
}
