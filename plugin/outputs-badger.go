package plugin

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	Ot "github.com/maroda/ostinato/types"
)

const (
	kindSnapshot  = byte('S')
	kindViewState = byte('V')
)

type BadgerOutput struct {
	MU        sync.Mutex
	DB        *badger.DB
	BatchSize int
	Buffer    []*Ot.RenderSnapshot
}

func NewBadgerOutput(path string, batchSize int) (*BadgerOutput, error) {
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("BadgerOutput failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	slog.Info("BadgerOutput opened",
		slog.String("path", path),
		slog.Int("batchSize", batchSize))

	return &BadgerOutput{
		DB:        db,
		BatchSize: batchSize,
		Buffer:    make([]*Ot.RenderSnapshot, 0, batchSize),
	}, nil
}

// WriteSnapshot queues up a batch of snapshots,
// when batchsize is reached, it calls Flush()
// which calls WriteBatch() with the new batch
func (bo *BadgerOutput) WriteSnapshot(s *Ot.RenderSnapshot) error {
	bo.MU.Lock()
	defer bo.MU.Unlock()

	bo.Buffer = append(bo.Buffer, s)
	if len(bo.Buffer) >= bo.BatchSize {
		return bo.flushLocked() // private Flush that does not lock
	}
	return nil
}

// WriteBatch performs the key/value creation to be stored
// and actually calls BadgerDB to write the data
func (bo *BadgerOutput) WriteBatch(snaps []*Ot.RenderSnapshot) error {
	wb := bo.DB.NewWriteBatch()
	defer wb.Cancel()

	for _, s := range snaps {
		k := SnapshotKey(s)
		v, err := SnapshotEncode(s)
		if err != nil {
			slog.Error("BadgerOutput failed to encode snapshot",
				slog.Any("error", err),
				slog.String("chart", s.ChartID))
			return fmt.Errorf("snapshot encode error: %w", err)
		}
		if err := wb.Set(k, v); err != nil {
			slog.Error("BadgerOutput failed to set key in batch",
				slog.Any("error", err),
				slog.Time("takenAt", s.TakenAt),
				slog.String("chart", s.ChartID))
			return fmt.Errorf("write batch error: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("BadgerOutput failed to flush batch", slog.Any("error", err))
		return fmt.Errorf("batch flush error: %w", err)
	}

	return nil
}

// Flush is the public method that blocks,
// it sends data to WriteBatch and then clears the buffer
func (bo *BadgerOutput) Flush() error {
	bo.MU.Lock()
	defer bo.MU.Unlock()

	if len(bo.Buffer) == 0 {
		return nil
	}

	err := bo.WriteBatch(bo.Buffer) // Delegate to WriteBatch
	bo.Buffer = bo.Buffer[:0]       // Clear but keep capacity
	return err
}

// flushLocked mimics Flush without locking, called by WriteSnapshot
func (bo *BadgerOutput) flushLocked() error {
	err := bo.WriteBatch(bo.Buffer) // Delegate to WriteBatch
	bo.Buffer = bo.Buffer[:0]       // Clear but keep capacity
	return err
}

// Close returns a Flush error but still attempts to close
func (bo *BadgerOutput) Close() error {
	slog.Info("BadgerOutput closing, flushing buffer",
		slog.Int("bufferSize", len(bo.Buffer)))
	flushErr := bo.Flush()
	closeErr := bo.DB.Close()

	if flushErr != nil {
		slog.Error("BadgerOutput failed to flush on close", slog.Any("error", flushErr))
		return fmt.Errorf("flush failed, close may have failed: %v", flushErr)
	}

	if closeErr != nil {
		slog.Error("BadgerOutput failed to close database", slog.Any("error", closeErr))
		return fmt.Errorf("close failed: %v", closeErr)
	}

	slog.Info("BadgerOutput closed successfully")
	return nil
}

func (bo *BadgerOutput) Type() string { return "BadgerDB" }

// timeKey creates a composite key
// timestamp + kind discriminator + first five letters of the chart ID
func timeKey(at time.Time, kind byte, chartID string) []byte {
	key := make([]byte, 8+1+5)

	// Using positive BigEndian integer to convert timestamp
	// so keys can be sorted chronologically by BadgerDB
	binary.BigEndian.PutUint64(key[0:8], uint64(at.UnixNano()))

	key[8] = kind

	// Keep the chart ID at five chars
	idBytes := []byte(chartID)
	n := len(idBytes)
	if n > 5 {
		n = 5
	}
	copy(key[9:9+n], idBytes[:n])

	return key
}

func SnapshotKey(s *Ot.RenderSnapshot) []byte {
	return timeKey(s.TakenAt, kindSnapshot, s.ChartID)
}

// SnapshotEncode serializes the snapshot struct for data storage
func SnapshotEncode(s *Ot.RenderSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SnapshotDecode deserializes the snapshot data
func SnapshotDecode(data []byte) (*Ot.RenderSnapshot, error) {
	var s Ot.RenderSnapshot
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	err := dec.Decode(&s)
	return &s, err
}

// QueryRange retrieves snapshots within a time range
func (bo *BadgerOutput) QueryRange(start, end time.Time) ([]*Ot.RenderSnapshot, error) {
	var snaps []*Ot.RenderSnapshot

	// db.View() callback
	// BadgerDB provides a transaction in which to get item.Value()
	err := bo.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if len(item.Key()) != 14 || item.Key()[8] != kindSnapshot {
				continue
			}

			// item.Value() callback
			// BadgerDB passes bytes to the anon func
			err := item.Value(func(val []byte) error {
				s, err := SnapshotDecode(val)
				if err != nil {
					slog.Error("BadgerOutput failed to decode snapshot", slog.Any("error", err))
					return fmt.Errorf("snapshot decode error: %w", err)
				}

				// Filter by time range
				if s.TakenAt.After(start) && s.TakenAt.Before(end) {
					snaps = append(snaps, s)
				}

				return nil
			})
			if err != nil {
				slog.Error("BadgerOutput callback failure", slog.Any("error", err))
				return fmt.Errorf("item data error: %w", err)
			}
		}
		return nil
	})

	slog.Info("BadgerOutput QueryRange successful", slog.Int("count", len(snaps)))

	return snaps, err
}

// SaveViewState persists manual-mode chart state immediately,
// outside the snapshot batch buffer
func (bo *BadgerOutput) SaveViewState(st *Ot.ViewState) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		return fmt.Errorf("view state encode error: %w", err)
	}

	err := bo.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(timeKey(st.SavedAt, kindViewState, st.ChartID), buf.Bytes())
	})
	if err != nil {
		slog.Error("BadgerOutput failed to save view state",
			slog.String("chart", st.ChartID),
			slog.Any("error", err))
		return fmt.Errorf("view state write error: %w", err)
	}
	return nil
}

// LoadViewState returns the most recent saved state for a chart,
// or nil when none has ever been saved
func (bo *BadgerOutput) LoadViewState(chartID string) (*Ot.ViewState, error) {
	var latest *Ot.ViewState

	err := bo.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		// Keys sort chronologically, the last match wins
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if len(item.Key()) != 14 || item.Key()[8] != kindViewState {
				continue
			}

			err := item.Value(func(val []byte) error {
				var st Ot.ViewState
				if err := gob.NewDecoder(bytes.NewBuffer(val)).Decode(&st); err != nil {
					return fmt.Errorf("view state decode error: %w", err)
				}
				if st.ChartID == chartID {
					latest = &st
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return latest, err
}
