/*
Package game
File: economy.go
Description:
    The Progression Ledger: the authoritative holder of the currency balance
    and the owned-unit counts per producer type.
    This includes:
    1. Active income (taps) and passive income (production ticks).
    2. Purchases against the fixed catalog prices.
    3. The persistence round-trip (Snapshot / Restore) and Reset.

    The Ledger is unaware of presentation: callers recompute the floating
    assignment and trigger saves after a successful purchase.
*/

package game

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrCorruptSnapshot is returned when persisted state cannot be trusted.
// Callers treat it like a first launch.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// PurchaseResult is the routine outcome of a purchase request.
type PurchaseResult int

const (
	PurchaseOK PurchaseResult = iota
	PurchaseInsufficientFunds
	PurchaseUnknownProducer // Always paired with ErrUnknownProducer
)

func (r PurchaseResult) String() string {
	switch r {
	case PurchaseOK:
		return "ok"
	case PurchaseInsufficientFunds:
		return "insufficient_funds"
	case PurchaseUnknownProducer:
		return "unknown_producer"
	default:
		return fmt.Sprintf("PurchaseResult(%d)", int(r))
	}
}

// Ledger owns the balance and one count per catalog entry.
// All methods are safe for concurrent use; purchase, tap and tick all
// read-then-write the same counters so they share one lock.
type Ledger struct {
	mu sync.RWMutex

	catalog  *Catalog
	tapYield float64

	balance         float64   // Never negative
	counts          []int     // Indexed like the catalog, never negative
	lastPersistedAt time.Time // SavedAt of the last snapshot written or restored
}

// NewLedger creates a zero-state ledger for the catalog.
func NewLedger(catalog *Catalog, tuning Tuning) *Ledger {
	tuning = tuning.WithDefaults()
	return &Ledger{
		catalog:  catalog,
		tapYield: tuning.TapYield,
		counts:   make([]int, catalog.Len()),
	}
}

// Catalog returns the catalog the ledger was built for.
func (l *Ledger) Catalog() *Catalog {
	return l.catalog
}

// Balance returns the current currency balance.
func (l *Ledger) Balance() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// Count returns the owned units of a producer type (0 for unknown ids).
func (l *Ledger) Count(id string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.catalog.index[id]
	if !ok {
		return 0
	}
	return l.counts[i]
}

// Counts returns every owned producer in catalog order, including zero counts.
func (l *Ledger) Counts() []OwnedProducer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]OwnedProducer, len(l.counts))
	for i, p := range l.catalog.producers {
		out[i] = OwnedProducer{ProducerTypeID: p.ID, Count: l.counts[i]}
	}
	return out
}

// LastPersistedAt returns the timestamp of the last save or restore.
func (l *Ledger) LastPersistedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastPersistedAt
}

// TotalProductionRate is the sum of count × rate over all producers, per second.
func (l *Ledger) TotalProductionRate() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.productionRateLocked()
}

func (l *Ledger) productionRateLocked() float64 {
	total := 0.0
	for i, p := range l.catalog.producers {
		total += float64(l.counts[i]) * p.ProductionRate
	}
	return total
}

// TotalOwnedCount is the sum of all counts.
func (l *Ledger) TotalOwnedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := 0
	for _, n := range l.counts {
		total += n
	}
	return total
}

// ApplyTap credits the fixed tap yield and returns the new balance.
func (l *Ledger) ApplyTap() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance += l.tapYield
	return l.balance
}

// ApplyProductionTick credits rate × elapsedSeconds.
// Negative or non-finite elapsed values are ignored.
func (l *Ledger) ApplyProductionTick(elapsedSeconds float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if elapsedSeconds <= 0 || math.IsNaN(elapsedSeconds) || math.IsInf(elapsedSeconds, 0) {
		return l.balance
	}
	l.balance += l.productionRateLocked() * elapsedSeconds
	return l.balance
}

// ApplyOffline credits the result of an offline reconciliation.
func (l *Ledger) ApplyOffline(res OfflineResult) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if res.Credited > 0 {
		l.balance += res.Credited
	}
	return l.balance
}

// CanAfford reports whether the balance covers one unit of the producer.
func (l *Ledger) CanAfford(id string) bool {
	p, ok := l.catalog.Lookup(id)
	if !ok {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance >= float64(p.BasePrice)
}

// Purchase buys one unit of the producer at its base price.
// Insufficient funds is a normal result and leaves the ledger untouched;
// only an unknown id is an error, reported as PurchaseUnknownProducer.
func (l *Ledger) Purchase(id string) (PurchaseResult, error) {
	i, ok := l.catalog.index[id]
	if !ok {
		return PurchaseUnknownProducer, fmt.Errorf("%w: %q", ErrUnknownProducer, id)
	}
	price := float64(l.catalog.producers[i].BasePrice)

	l.mu.Lock()
	defer l.mu.Unlock()

	// 1. Reject, never clamp
	if l.balance < price {
		return PurchaseInsufficientFunds, nil
	}

	// 2. Debit and increment
	l.balance -= price
	l.counts[i]++
	return PurchaseOK, nil
}

// Reset zeroes the balance and every count. Confirmation is the caller's job.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = 0
	for i := range l.counts {
		l.counts[i] = 0
	}
}

// Snapshot serializes the ledger as of now. It does not mark the ledger persisted;
// call MarkPersisted once the snapshot is durably stored.
func (l *Ledger) Snapshot(now time.Time) Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	counts := make(map[string]int, len(l.counts))
	for i, p := range l.catalog.producers {
		counts[p.ID] = l.counts[i]
	}
	return Snapshot{
		CurrencyBalance: l.balance,
		Counts:          counts,
		SavedAt:         now,
	}
}

// MarkPersisted records that a snapshot taken at t was written.
func (l *Ledger) MarkPersisted(t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastPersistedAt = t
}

// Restore replaces the whole ledger state with the snapshot.
// Ids missing from the snapshot restore as 0, ids not in the catalog are dropped.
// A snapshot with a negative or non-finite balance, or a negative count, is
// rejected with ErrCorruptSnapshot and the ledger is left unchanged.
func (l *Ledger) Restore(s Snapshot) error {
	// 1. Validate before touching state
	if s.CurrencyBalance < 0 || math.IsNaN(s.CurrencyBalance) || math.IsInf(s.CurrencyBalance, 0) {
		return fmt.Errorf("%w: balance %v", ErrCorruptSnapshot, s.CurrencyBalance)
	}
	counts := make([]int, l.catalog.Len())
	for i, p := range l.catalog.producers {
		n := s.Counts[p.ID]
		if n < 0 {
			return fmt.Errorf("%w: negative count %d for %q", ErrCorruptSnapshot, n, p.ID)
		}
		counts[i] = n
	}

	// 2. Replace, never merge
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = s.CurrencyBalance
	l.counts = counts
	l.lastPersistedAt = s.SavedAt
	return nil
}
