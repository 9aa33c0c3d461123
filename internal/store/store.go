// Package store persists ledger snapshots in an opaque key-value layout:
//
//	currencyBalance         float64
//	shopItem_<id>_count     integer, one per producer type
//	lastSaveTime            RFC 3339 timestamp
//
// Backends: in-memory, bbolt (one bucket per save slot) and Redis (one hash per save slot).
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/everforgeworks/tap-the-cap/internal/config"
	"github.com/everforgeworks/tap-the-cap/internal/game"
)

// ErrNotFound is returned by Load when nothing was ever saved in the slot.
var ErrNotFound = errors.New("store: no saved progress")

const (
	KeyCurrencyBalance = "currencyBalance"
	KeyLastSaveTime    = "lastSaveTime"

	countPrefix = "shopItem_"
	countSuffix = "_count"
)

// Store is the persistence collaborator of a session.
type Store interface {
	// Load returns the saved snapshot, ErrNotFound, or an error wrapping game.ErrCorruptSnapshot.
	Load(ctx context.Context) (game.Snapshot, error)
	// Save replaces everything stored in the slot with the snapshot.
	Save(ctx context.Context, snap game.Snapshot) error
	// Clear removes the slot.
	Clear(ctx context.Context) error
	Close() error
}

// CountKey is the key holding the owned count of a producer type.
func CountKey(id string) string {
	return countPrefix + id + countSuffix
}

// EncodeSnapshot flattens a snapshot into the persisted key layout.
func EncodeSnapshot(snap game.Snapshot) map[string]string {
	fields := make(map[string]string, len(snap.Counts)+2)
	fields[KeyCurrencyBalance] = strconv.FormatFloat(snap.CurrencyBalance, 'g', -1, 64)
	for id, n := range snap.Counts {
		fields[CountKey(id)] = strconv.Itoa(n)
	}
	if !snap.SavedAt.IsZero() {
		fields[KeyLastSaveTime] = snap.SavedAt.UTC().Format(time.RFC3339Nano)
	}
	return fields
}

// DecodeSnapshot rebuilds a snapshot from the persisted key layout.
// Absent keys decode as zero values, unknown keys are ignored.
func DecodeSnapshot(fields map[string]string) (game.Snapshot, error) {
	if len(fields) == 0 {
		return game.Snapshot{}, ErrNotFound
	}

	snap := game.Snapshot{Counts: make(map[string]int)}
	for key, val := range fields {
		switch {
		case key == KeyCurrencyBalance:
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return game.Snapshot{}, fmt.Errorf("%w: %s=%q", game.ErrCorruptSnapshot, key, val)
			}
			snap.CurrencyBalance = f
		case key == KeyLastSaveTime:
			ts, err := time.Parse(time.RFC3339Nano, val)
			if err != nil {
				return game.Snapshot{}, fmt.Errorf("%w: %s=%q", game.ErrCorruptSnapshot, key, val)
			}
			snap.SavedAt = ts
		case strings.HasPrefix(key, countPrefix) && strings.HasSuffix(key, countSuffix):
			id := strings.TrimSuffix(strings.TrimPrefix(key, countPrefix), countSuffix)
			n, err := strconv.Atoi(val)
			if err != nil || id == "" {
				return game.Snapshot{}, fmt.Errorf("%w: %s=%q", game.ErrCorruptSnapshot, key, val)
			}
			snap.Counts[id] = n
		}
	}
	return snap, nil
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "bolt":
		s, err := OpenBolt(cfg.BoltPath, cfg.Slot)
		if err != nil {
			return nil, fmt.Errorf("store: open bolt %s: %w", cfg.BoltPath, err)
		}
		if log != nil {
			log.Info("progress store ready", zap.String("driver", "bolt"), zap.String("path", cfg.BoltPath), zap.String("slot", cfg.Slot))
		}
		return s, nil
	case "redis":
		client, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if log != nil {
			log.Info("progress store ready", zap.String("driver", "redis"), zap.String("slot", cfg.Slot))
		}
		return NewRedisStore(client, cfg.Slot), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
