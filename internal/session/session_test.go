package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/everforgeworks/tap-the-cap/internal/config"
	"github.com/everforgeworks/tap-the-cap/internal/game"
	"github.com/everforgeworks/tap-the-cap/internal/store"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, st store.Store, clock Clock) *Session {
	t.Helper()
	def := game.DefaultDefinition()
	tier, _ := def.Tier(game.DefaultTierName)
	s, err := New(Options{
		Definition: def,
		Tier:       tier,
		Store:      st,
		Clock:      clock,
		Rand:       rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestFirstLaunch(t *testing.T) {
	s := newTestSession(t, store.NewMemoryStore(), NewMockTimeProvider(epoch))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	st := s.State()
	if st.Balance != 0 || st.TotalOwned != 0 || st.ProductionRate != 0 {
		t.Errorf("Expected a zero state, got %+v", st)
	}
	if st.LastSavedAt != nil {
		t.Errorf("Expected no save time, got %v", st.LastSavedAt)
	}
	if n := s.TakeOfflineNotice(); n != nil {
		t.Errorf("Expected no notice, got %+v", n)
	}
	if got := s.Layout().Assignment; len(got) != 0 {
		t.Errorf("Expected empty assignment, got %v", got)
	}
}

func TestTapThenPurchaseSaves(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	clock := NewMockTimeProvider(epoch)
	s := newTestSession(t, mem, clock)
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 12; i++ {
		s.Tap()
	}
	if b := s.State().Balance; b != 12 {
		t.Fatalf("Expected balance 12 after 12 taps, got %v", b)
	}

	res, err := s.Purchase(ctx, "bierfles")
	if err != nil || res != game.PurchaseOK {
		t.Fatalf("Expected ok purchase, got %v, %v", res, err)
	}

	snap, err := mem.Load(ctx)
	if err != nil {
		t.Fatalf("Expected a saved snapshot, got %v", err)
	}
	if snap.CurrencyBalance != 0 || snap.Counts["bierfles"] != 1 {
		t.Errorf("Expected balance 0 and 1 bierfles saved, got %+v", snap)
	}
	if !snap.SavedAt.Equal(epoch) {
		t.Errorf("Expected save time %v, got %v", epoch, snap.SavedAt)
	}

	layout := s.Layout()
	if len(layout.Assignment) != 1 || layout.Assignment[0] != "bierfles" {
		t.Errorf("Expected assignment [bierfles], got %v", layout.Assignment)
	}
	if len(layout.Markers) != 1 || layout.Markers[0].RingRadius != 110 {
		t.Errorf("Expected one marker on the inner ring, got %+v", layout.Markers)
	}
	if layout.TotalCapacity != 30 {
		t.Errorf("Expected capacity 12+18 for two rings, got %d", layout.TotalCapacity)
	}
}

func TestPurchaseRejectedDoesNotSave(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	s := newTestSession(t, mem, NewMockTimeProvider(epoch))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Tap()

	res, err := s.Purchase(ctx, "bierfust")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res != game.PurchaseInsufficientFunds {
		t.Errorf("Expected insufficient funds, got %v", res)
	}
	if _, err := mem.Load(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected nothing saved, got %v", err)
	}

	if _, err := s.Purchase(ctx, "champagne"); !errors.Is(err, game.ErrUnknownProducer) {
		t.Errorf("Expected ErrUnknownProducer, got %v", err)
	}
	if b := s.State().Balance; b != 1 {
		t.Errorf("Expected balance untouched at 1, got %v", b)
	}
}

func TestStartCreditsOfflineEarnings(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	if err := mem.Save(ctx, game.Snapshot{
		CurrencyBalance: 5,
		Counts:          map[string]int{"bierfust": 1},
		SavedAt:         epoch.Add(-10000 * time.Second),
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	s := newTestSession(t, mem, NewMockTimeProvider(epoch))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if b := s.State().Balance; b != 1805 {
		t.Errorf("Expected 5 + 1800 capped earnings, got %v", b)
	}
	if !s.State().NoticePending {
		t.Error("Expected a pending notice")
	}
	n := s.TakeOfflineNotice()
	if n == nil {
		t.Fatal("Expected an offline notice")
	}
	if n.MinutesAway != 166 || n.AmountEarned != 1800 {
		t.Errorf("Expected 166 minutes and 1800 earned, got %+v", n)
	}
	if again := s.TakeOfflineNotice(); again != nil {
		t.Errorf("Expected the notice once, got %+v", again)
	}
	if got := s.Layout().Assignment; len(got) != 1 || got[0] != "bierfust" {
		t.Errorf("Expected restored marker [bierfust], got %v", got)
	}
}

func TestStartWithCorruptProgress(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.Put(store.KeyCurrencyBalance, "lots")
	mem.Put(store.CountKey("bierfles"), "3")

	s := newTestSession(t, mem, NewMockTimeProvider(epoch))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Expected corrupt progress to start fresh, got %v", err)
	}
	if st := s.State(); st.Balance != 0 || st.TotalOwned != 0 {
		t.Errorf("Expected a fresh state, got %+v", st)
	}
}

func TestStartWithNegativeCount(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.Put(store.KeyCurrencyBalance, "50")
	mem.Put(store.CountKey("bierfles"), "-2")

	s := newTestSession(t, mem, NewMockTimeProvider(epoch))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Expected a rejected snapshot to start fresh, got %v", err)
	}
	if b := s.State().Balance; b != 0 {
		t.Errorf("Expected balance 0, got %v", b)
	}
}

type failingStore struct {
	store.MemoryStore
	loadErr error
	saveErr error
}

func (f *failingStore) Load(ctx context.Context) (game.Snapshot, error) {
	if f.loadErr != nil {
		return game.Snapshot{}, f.loadErr
	}
	return f.MemoryStore.Load(ctx)
}

func (f *failingStore) Save(ctx context.Context, snap game.Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx, snap)
}

func TestStartFailsOnStoreError(t *testing.T) {
	boom := errors.New("connection refused")
	s := newTestSession(t, &failingStore{loadErr: boom}, NewMockTimeProvider(epoch))
	if err := s.Start(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Expected the store error, got %v", err)
	}
}

func TestPurchaseStandsWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{saveErr: errors.New("disk full")}
	s := newTestSession(t, fs, NewMockTimeProvider(epoch))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for i := 0; i < 12; i++ {
		s.Tap()
	}

	res, err := s.Purchase(ctx, "bierfles")
	if err != nil || res != game.PurchaseOK {
		t.Fatalf("Expected ok purchase despite failed save, got %v, %v", res, err)
	}
	if st := s.State(); st.TotalOwned != 1 || st.LastSavedAt != nil {
		t.Errorf("Expected 1 owned and no save time, got %+v", st)
	}
	if err := s.Save(ctx); err == nil {
		t.Error("Expected Save to report the store error")
	}
}

func TestHeatDecayThroughSession(t *testing.T) {
	clock := NewMockTimeProvider(epoch)
	s := newTestSession(t, store.NewMemoryStore(), clock)

	for i := 0; i < 5; i++ {
		s.Tap()
	}
	if lvl := s.State().Heat.Level; lvl != 5 {
		t.Fatalf("Expected heat 5, got %d", lvl)
	}
	deadline, ok := s.NextDecay()
	if !ok || !deadline.Equal(epoch.Add(time.Second)) {
		t.Fatalf("Expected decay due at %v, got %v (armed=%v)", epoch.Add(time.Second), deadline, ok)
	}

	if fired := s.DecayDue(); fired != 0 {
		t.Errorf("Expected nothing due yet, got %d", fired)
	}

	clock.Advance(time.Second)
	if fired := s.DecayDue(); fired != 1 {
		t.Errorf("Expected 1 decay, got %d", fired)
	}
	if lvl := s.State().Heat.Level; lvl != 4 {
		t.Errorf("Expected heat 4, got %d", lvl)
	}

	clock.Advance(10 * time.Second)
	if fired := s.DecayDue(); fired != 4 {
		t.Errorf("Expected 4 decays, got %d", fired)
	}
	if _, ok := s.NextDecay(); ok {
		t.Error("Expected no pending decay at rest")
	}
	heat := s.State().Heat
	if heat.Level != 0 || heat.RotationSpeed != 0.01 || heat.RadiusScale != 1 {
		t.Errorf("Expected resting heat values, got %+v", heat)
	}
}

func TestResetClearsAndSaves(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	if err := mem.Save(ctx, game.Snapshot{
		CurrencyBalance: 300,
		Counts:          map[string]int{"bierfles": 4, "bierkrat": 2},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	s := newTestSession(t, mem, NewMockTimeProvider(epoch))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := len(s.Layout().Assignment); got != 6 {
		t.Fatalf("Expected 6 markers before reset, got %d", got)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if st := s.State(); st.Balance != 0 || st.TotalOwned != 0 {
		t.Errorf("Expected a zero state, got %+v", st)
	}
	if got := s.Layout().Assignment; len(got) != 0 {
		t.Errorf("Expected no markers after reset, got %v", got)
	}

	snap, err := mem.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.CurrencyBalance != 0 || snap.Counts["bierfles"] != 0 || snap.Counts["bierkrat"] != 0 {
		t.Errorf("Expected zeros saved, got %+v", snap)
	}
}

func TestProductionTickAndShop(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	if err := mem.Save(ctx, game.Snapshot{
		CurrencyBalance: 100,
		Counts:          map[string]int{"bierfust": 2},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	s := newTestSession(t, mem, NewMockTimeProvider(epoch))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if b := s.ProductionTick(0.5); b != 101 {
		t.Errorf("Expected 100 + 2*1.0*0.5, got %v", b)
	}
	if b := s.ProductionTick(-1); b != 101 {
		t.Errorf("Expected negative tick ignored, got %v", b)
	}

	shop := s.Shop()
	if len(shop) != 3 {
		t.Fatalf("Expected 3 shop entries, got %d", len(shop))
	}
	want := []struct {
		id     string
		owned  int
		afford bool
	}{
		{"bierfles", 0, true},
		{"bierkrat", 0, true},
		{"bierfust", 2, false},
	}
	for i, w := range want {
		e := shop[i]
		if e.ID != w.id || e.Owned != w.owned || e.CanAfford != w.afford {
			t.Errorf("Entry %d: expected %+v, got id=%s owned=%d afford=%v", i, w, e.ID, e.Owned, e.CanAfford)
		}
	}
	if st := s.State(); st.SpawnRate != 2 {
		t.Errorf("Expected spawn rate 2, got %v", st.SpawnRate)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestRunDrivesCadences(t *testing.T) {
	mem := store.NewMemoryStore()
	if err := mem.Save(context.Background(), game.Snapshot{
		Counts: map[string]int{"bierfust": 10},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	def := game.DefaultDefinition()
	def.Tuning.DecayInterval = 20 * time.Millisecond
	tier, _ := def.Tier(game.DefaultTierName)
	s, err := New(Options{
		Definition: def,
		Tier:       tier,
		Store:      mem,
		Cadence: config.CadenceConfig{
			ProductionTick:   5 * time.Millisecond,
			AutosaveInterval: time.Hour,
			PublishInterval:  5 * time.Millisecond,
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pub := &recordingPublisher{}
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, pub) }()

	for i := 0; i < 3; i++ {
		s.Tap()
	}

	waitFor(t, "heat to decay to zero", func() bool {
		_, armed := s.NextDecay()
		return s.State().Heat.Level == 0 && !armed
	})
	waitFor(t, "production and pulses", func() bool {
		return s.State().Balance > 3 && pub.count() > 0
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	snap, err := mem.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected final save, got %v", err)
	}
	if snap.Counts["bierfust"] != 10 || snap.CurrencyBalance <= 3 {
		t.Errorf("Expected final save with production, got %+v", snap)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestPulseCarriesSpawnFraction(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	if err := mem.Save(ctx, game.Snapshot{Counts: map[string]int{"bierfust": 2}}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	s := newTestSession(t, mem, NewMockTimeProvider(epoch))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// 2 per second over 250ms pulses: 0.5 due each time
	want := []int{0, 1, 0, 1}
	for i, w := range want {
		if got := s.Pulse(250 * time.Millisecond).Spawns; got != w {
			t.Errorf("Pulse %d: expected %d spawns, got %d", i, w, got)
		}
	}
	if got := s.State().Spawns; got != 0 {
		t.Errorf("Expected State to report no spawns, got %d", got)
	}
}

func TestPulseClampsSpawnRate(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	if err := mem.Save(ctx, game.Snapshot{Counts: map[string]int{"bierfust": 1000}}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	s := newTestSession(t, mem, NewMockTimeProvider(epoch))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := s.Pulse(time.Second).Spawns; got != 200 {
		t.Errorf("Expected spawns capped at 200 per second, got %d", got)
	}
}

type recordingStore struct {
	store.MemoryStore
	mu  sync.Mutex
	ops []string
}

func (r *recordingStore) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingStore) Save(ctx context.Context, snap game.Snapshot) error {
	r.record("save")
	return r.MemoryStore.Save(ctx, snap)
}

func (r *recordingStore) Clear(ctx context.Context) error {
	r.record("clear")
	return r.MemoryStore.Clear(ctx)
}

func TestResetClearsSlotBeforeSaving(t *testing.T) {
	ctx := context.Background()
	rs := &recordingStore{}
	rs.Put(store.KeyCurrencyBalance, "40")
	rs.Put(store.CountKey("retired"), "9")

	s := newTestSession(t, rs, NewMockTimeProvider(epoch))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	rs.mu.Lock()
	ops := append([]string(nil), rs.ops...)
	rs.mu.Unlock()
	if len(ops) != 2 || ops[0] != "clear" || ops[1] != "save" {
		t.Errorf("Expected [clear save], got %v", ops)
	}

	snap, err := rs.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := snap.Counts["retired"]; ok {
		t.Errorf("Expected stale key gone after reset, got %+v", snap.Counts)
	}
	if snap.CurrencyBalance != 0 {
		t.Errorf("Expected zero balance saved, got %v", snap.CurrencyBalance)
	}
}
