package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
	"github.com/watchhill101/smartCharging-sub004/internal/storage"
)

type fakePiles struct {
	mu    sync.Mutex
	piles map[string]models.Pile
}

func newFakePiles(piles ...models.Pile) *fakePiles {
	m := make(map[string]models.Pile, len(piles))
	for _, p := range piles {
		m[p.ID] = p
	}
	return &fakePiles{piles: m}
}

func (f *fakePiles) PileInfo(id string) (models.Pile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.piles[id]
	if !ok {
		return models.Pile{}, errors.New("pile not found")
	}
	return p, nil
}

func (f *fakePiles) SetStatus(id string, status models.PileStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.piles[id]
	if !ok {
		return errors.New("pile not found")
	}
	p.Status = status
	f.piles[id] = p
	return nil
}

func (f *fakePiles) status(id string) models.PileStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.piles[id].Status
}

type fakeBroadcast struct {
	mu       sync.Mutex
	updates  []models.SessionUpdate
	userMsgs []models.ClientMessage
	sessMsgs []models.ClientMessage
}

func (f *fakeBroadcast) BroadcastSessionUpdate(u models.SessionUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
}

func (f *fakeBroadcast) NotifyUser(userID string, msg models.ClientMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userMsgs = append(f.userMsgs, msg)
}

func (f *fakeBroadcast) NotifySession(sessionID string, msg models.ClientMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessMsgs = append(f.sessMsgs, msg)
}

func (f *fakeBroadcast) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.SessionEvent
}

func (f *fakeEvents) PublishSessionEvent(e models.SessionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Event)
	}
	return out
}

type fakeArchive struct {
	mu      sync.Mutex
	inserts int
}

func (f *fakeArchive) Insert(ctx context.Context, session *models.ChargingSession, order *models.ChargingOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	return nil
}

func (f *fakeArchive) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts
}

type fakeDiscounts struct {
	mu       sync.Mutex
	discount float64
	err      error
}

func (f *fakeDiscounts) ComputeDiscount(ctx context.Context, userID, sessionID string, amount float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.discount, f.err
}

func (f *fakeDiscounts) set(discount float64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discount = discount
	f.err = err
}

type fakeDelivery struct {
	mu    sync.Mutex
	count int
}

func (f *fakeDelivery) Deliver(ctx context.Context, n *models.ChargingNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return nil
}

func (f *fakeDelivery) deliveries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

type testEnv struct {
	svc       *SessionsService
	store     *storage.MemoryStore
	piles     *fakePiles
	broadcast *fakeBroadcast
	events    *fakeEvents
	archive   *fakeArchive
	discounts *fakeDiscounts
	delivery  *fakeDelivery
	notifier  *NotificationsService
	orders    *OrdersService
	clock     *clockz.FakeClock
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	clock := clockz.NewFakeClock()
	store := storage.NewMemoryStore()
	logger := zap.NewNop()
	piles := newFakePiles(
		models.Pile{ID: "pile_001", Name: "1号充电桩", StationID: "station_001", StationName: "市中心充电站",
			MaxPowerKW: 60, PricePerKwh: 1.5, Status: models.PileAvailable},
		models.Pile{ID: "pile_002", Name: "2号充电桩", StationID: "station_001", StationName: "市中心充电站",
			MaxPowerKW: 60, PricePerKwh: 1.5, Status: models.PileAvailable},
	)
	broadcast := &fakeBroadcast{}
	events := &fakeEvents{}
	archive := &fakeArchive{}
	discounts := &fakeDiscounts{}
	delivery := &fakeDelivery{}
	notifier := NewNotificationsService(store, broadcast, delivery, 20, logger, clock)
	orders := NewOrdersService(store, discounts, notifier, time.Hour, logger, clock)
	svc := NewSessionsService(Deps{
		Store:     store,
		Piles:     piles,
		Orders:    orders,
		Notifier:  notifier,
		Broadcast: broadcast,
		Events:    events,
		Archive:   archive,
		Logger:    logger,
		Clock:     clock,
	}, cfg)
	t.Cleanup(svc.Shutdown)
	return &testEnv{
		svc:       svc,
		store:     store,
		piles:     piles,
		broadcast: broadcast,
		events:    events,
		archive:   archive,
		discounts: discounts,
		delivery:  delivery,
		notifier:  notifier,
		orders:    orders,
		clock:     clock,
	}
}

// advance moves the fake clock after giving the runners a moment to arm
// their timers.
func (env *testEnv) advance(d time.Duration) {
	time.Sleep(10 * time.Millisecond)
	env.clock.Advance(d)
	env.clock.BlockUntilReady()
}

func (env *testEnv) session(t *testing.T, sessionID string) *models.ChargingSession {
	t.Helper()
	sess, err := env.svc.GetStatus(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if sess == nil {
		t.Fatalf("session %s not found", sessionID)
	}
	return sess
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func stubIDs(t *testing.T) {
	t.Helper()
	orig := idGenerator
	var n int
	var mu sync.Mutex
	idGenerator = func(prefix string) string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s_%04d", prefix, n)
	}
	t.Cleanup(func() { idGenerator = orig })
}

// seedChargingSession writes a charging session straight into the store
// without launching background runners, so tests can drive ticks by
// hand.
func seedChargingSession(t *testing.T, env *testEnv, mutate func(*models.ChargingSession)) *models.ChargingSession {
	t.Helper()
	ctx := context.Background()
	now := env.clock.Now()
	sess := &models.ChargingSession{
		SessionID:    "session_seed01",
		UserID:       "user_001",
		PileID:       "pile_001",
		PileName:     "1号充电桩",
		StationID:    "station_001",
		Status:       models.StatusCharging,
		CurrentPower: 48,
		Voltage:      380,
		Current:      126,
		Temperature:  30,
		MaxPower:     60,
		PricePerKwh:  1.5,
		StartTime:    now,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	if mutate != nil {
		mutate(sess)
	}
	if err := writeSession(ctx, env.store, sess, time.Hour); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := env.store.SetWithTTL(ctx, userActiveKey(sess.UserID), []byte(sess.SessionID), time.Hour); err != nil {
		t.Fatalf("seed active key: %v", err)
	}
	if err := env.piles.SetStatus(sess.PileID, models.PileOccupied); err != nil {
		t.Fatalf("seed pile status: %v", err)
	}
	if _, err := env.orders.CreateOrder(ctx, sess); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return sess
}

func TestStartSessionCreatesPreparingSession(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess, err := env.svc.StartSession(ctx, StartSessionInput{UserID: "user_001", PileID: "pile_001"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if sess.Status != models.StatusPreparing {
		t.Fatalf("new session should be preparing, got %s", sess.Status)
	}
	if sess.EnergyDelivered != 0 || sess.CurrentPower != 0 || sess.Cost != 0 {
		t.Fatalf("new session must have zero telemetry: %+v", sess)
	}
	if sess.MaxPower != 60 || sess.PricePerKwh != 1.5 {
		t.Fatalf("pile snapshot not copied: %+v", sess)
	}
	if env.piles.status("pile_001") != models.PileOccupied {
		t.Fatal("pile should be occupied after start")
	}

	order, err := env.orders.GetOrder(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("order not created: %v", err)
	}
	if order.PaymentStatus != models.PaymentPending {
		t.Fatalf("fresh order should be pending, got %s", order.PaymentStatus)
	}

	stored := env.session(t, sess.SessionID)
	if stored.Status != models.StatusPreparing {
		t.Fatalf("stored session mismatch: %s", stored.Status)
	}
}

func TestStartSessionRejectsSecondActiveSession(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	if _, err := env.svc.StartSession(ctx, StartSessionInput{UserID: "user_001", PileID: "pile_001"}); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	_, err := env.svc.StartSession(ctx, StartSessionInput{UserID: "user_001", PileID: "pile_002"})
	if !errors.Is(err, ErrUserHasActiveSession) {
		t.Fatalf("expected ErrUserHasActiveSession, got %v", err)
	}
}

func TestStartSessionClearsStaleActivePointer(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	// Active pointer to a session that no longer exists must not block
	// a new start.
	if err := env.store.SetWithTTL(ctx, userActiveKey("user_001"), []byte("session_gone"), time.Hour); err != nil {
		t.Fatalf("seed stale pointer: %v", err)
	}
	if _, err := env.svc.StartSession(ctx, StartSessionInput{UserID: "user_001", PileID: "pile_001"}); err != nil {
		t.Fatalf("start with stale pointer failed: %v", err)
	}
}

func TestStartSessionRejectsUnavailablePile(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	if err := env.piles.SetStatus("pile_001", models.PileOffline); err != nil {
		t.Fatalf("set pile status: %v", err)
	}
	if _, err := env.svc.StartSession(ctx, StartSessionInput{UserID: "user_001", PileID: "pile_001"}); !errors.Is(err, ErrPileUnavailable) {
		t.Fatalf("expected ErrPileUnavailable, got %v", err)
	}
	if _, err := env.svc.StartSession(ctx, StartSessionInput{UserID: "user_001", PileID: "pile_999"}); !errors.Is(err, ErrPileUnavailable) {
		t.Fatalf("expected ErrPileUnavailable for unknown pile, got %v", err)
	}
}

func TestStopSessionSettlesAndReleases(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, func(s *models.ChargingSession) {
		s.EnergyDelivered = 22.5
		s.Cost = 33.75
		s.StartTime = env.clock.Now().Add(-90 * time.Minute)
	})

	res, err := env.svc.StopSession(ctx, sess.SessionID, "user_001", "")
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if res.EnergyDelivered != 22.5 {
		t.Fatalf("unexpected energy: %v", res.EnergyDelivered)
	}
	if res.Duration != 5400 {
		t.Fatalf("expected duration 5400, got %d", res.Duration)
	}
	if res.TotalCost != 36.4375 {
		t.Fatalf("expected total 36.4375, got %v", res.TotalCost)
	}

	stored := env.session(t, sess.SessionID)
	if stored.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	if stored.StopReason != models.ReasonRemote {
		t.Fatalf("empty reason should default to remote, got %s", stored.StopReason)
	}
	if stored.EndTime == nil {
		t.Fatal("end time not set")
	}
	if stored.CurrentPower != 0 || stored.Current != 0 {
		t.Fatal("power readings should be zeroed on stop")
	}

	if env.piles.status("pile_001") != models.PileAvailable {
		t.Fatal("pile should be released after stop")
	}
	if _, err := env.store.Get(ctx, userActiveKey("user_001")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("active pointer should be cleared, got %v", err)
	}

	order, err := env.orders.GetOrder(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.PaymentStatus != models.PaymentPaid {
		t.Fatalf("order should be paid, got %s", order.PaymentStatus)
	}
	if env.archive.count() != 1 {
		t.Fatalf("expected 1 archive insert, got %d", env.archive.count())
	}

	var sawStop bool
	for _, name := range env.events.names() {
		if name == "session_stopped" {
			sawStop = true
		}
	}
	if !sawStop {
		t.Fatal("session_stopped event not published")
	}
}

func TestStopSessionTwiceReturnsAlreadyEnded(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, nil)
	if _, err := env.svc.StopSession(ctx, sess.SessionID, "user_001", models.ReasonLocal); err != nil {
		t.Fatalf("first stop failed: %v", err)
	}
	if _, err := env.svc.StopSession(ctx, sess.SessionID, "user_001", models.ReasonLocal); !errors.Is(err, ErrSessionAlreadyEnded) {
		t.Fatalf("expected ErrSessionAlreadyEnded, got %v", err)
	}
}

func TestStopSessionChecksOwnership(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, nil)
	if _, err := env.svc.StopSession(ctx, sess.SessionID, "user_999", models.ReasonLocal); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := env.svc.StopSession(ctx, "session_missing", "user_001", models.ReasonLocal); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCompletedSessionRejectsFurtherWrites(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, nil)
	if _, err := env.svc.StopSession(ctx, sess.SessionID, "user_001", models.ReasonLocal); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	before := env.session(t, sess.SessionID)

	if done := env.svc.simulator.tick(ctx, sess.SessionID); !done {
		t.Fatal("tick on a completed session should tell the runner to exit")
	}
	if _, err := env.svc.PauseSession(ctx, sess.SessionID, "user_001"); !errors.Is(err, ErrSessionAlreadyEnded) {
		t.Fatalf("expected ErrSessionAlreadyEnded on pause, got %v", err)
	}
	if _, err := env.svc.ResumeSession(ctx, sess.SessionID, "user_001"); !errors.Is(err, ErrSessionAlreadyEnded) {
		t.Fatalf("expected ErrSessionAlreadyEnded on resume, got %v", err)
	}

	after := env.session(t, sess.SessionID)
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatal("completed session was mutated")
	}
	if after.EnergyDelivered != before.EnergyDelivered {
		t.Fatal("energy changed after completion")
	}
}

func TestPauseAndResume(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, func(s *models.ChargingSession) {
		s.EnergyDelivered = 1.25
	})

	paused, err := env.svc.PauseSession(ctx, sess.SessionID, "user_001")
	if err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if paused.Status != models.StatusSuspended {
		t.Fatalf("expected suspended, got %s", paused.Status)
	}
	if paused.CurrentPower != 0 {
		t.Fatal("power should drop to zero while suspended")
	}

	// Ticks are skipped while suspended: telemetry must not move.
	if done := env.svc.simulator.tick(ctx, sess.SessionID); done {
		t.Fatal("tick on a suspended session should keep the runner alive")
	}
	mid := env.session(t, sess.SessionID)
	if mid.EnergyDelivered != 1.25 {
		t.Fatalf("energy advanced while suspended: %v", mid.EnergyDelivered)
	}

	if _, err := env.svc.PauseSession(ctx, sess.SessionID, "user_001"); !errors.Is(err, ErrInvalidSessionStatus) {
		t.Fatalf("pausing a suspended session should fail, got %v", err)
	}

	resumed, err := env.svc.ResumeSession(ctx, sess.SessionID, "user_001")
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resumed.Status != models.StatusCharging {
		t.Fatalf("expected charging, got %s", resumed.Status)
	}
	if _, err := env.svc.ResumeSession(ctx, sess.SessionID, "user_001"); !errors.Is(err, ErrInvalidSessionStatus) {
		t.Fatalf("resuming a charging session should fail, got %v", err)
	}
}

func TestGetStatusUnknownSessionReturnsNil(t *testing.T) {
	env := newTestEnv(t, Config{})

	sess, err := env.svc.GetStatus(context.Background(), "session_missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected nil session, got %+v", sess)
	}
}

func TestFaultSessionSkipsBilling(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, nil)
	if err := env.svc.FaultSession(ctx, sess.SessionID, "connector error"); err != nil {
		t.Fatalf("fault failed: %v", err)
	}

	stored := env.session(t, sess.SessionID)
	if stored.Status != models.StatusFaulted {
		t.Fatalf("expected faulted, got %s", stored.Status)
	}
	if stored.StopReason != models.ReasonFault {
		t.Fatalf("expected fault reason, got %s", stored.StopReason)
	}
	if env.piles.status("pile_001") != models.PileOffline {
		t.Fatal("pile should go offline on fault")
	}

	order, err := env.orders.GetOrder(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.PaymentStatus != models.PaymentPending {
		t.Fatalf("faulted session's order must stay pending, got %s", order.PaymentStatus)
	}

	if err := env.svc.FaultSession(ctx, sess.SessionID, "again"); !errors.Is(err, ErrSessionAlreadyEnded) {
		t.Fatalf("expected ErrSessionAlreadyEnded, got %v", err)
	}
}

func TestListSessionsFiltersAndPaginates(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("session_list%02d", i)
		user := "user_001"
		if i == 2 {
			user = "user_002"
		}
		env.clock.Advance(time.Second)
		seedChargingSession(t, env, func(s *models.ChargingSession) {
			s.SessionID = id
			s.UserID = user
		})
	}

	all, err := env.svc.ListSessions(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(all))
	}
	if all[0].SessionID != "session_list02" {
		t.Fatalf("expected newest first, got %s", all[0].SessionID)
	}

	mine, err := env.svc.ListSessions(ctx, ListFilter{UserID: "user_001"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 sessions for user_001, got %d", len(mine))
	}

	paged, err := env.svc.ListSessions(ctx, ListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(paged) != 1 || paged[0].SessionID != "session_list01" {
		t.Fatalf("unexpected page: %+v", paged)
	}

	none, err := env.svc.ListSessions(ctx, ListFilter{Offset: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty page, got %d", len(none))
	}
}

func TestStatisticsAggregates(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	seedChargingSession(t, env, func(s *models.ChargingSession) {
		s.SessionID = "session_stat01"
		s.EnergyDelivered = 10
	})
	env.clock.Advance(time.Second)
	seedChargingSession(t, env, func(s *models.ChargingSession) {
		s.SessionID = "session_stat02"
		s.UserID = "user_002"
		s.EnergyDelivered = 5
	})
	if _, err := env.svc.StopSession(ctx, "session_stat02", "user_002", models.ReasonLocal); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	stats, err := env.svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.ActiveSessions != 1 {
		t.Fatalf("expected 1 active session, got %d", stats.ActiveSessions)
	}
	if stats.SessionsByStatus[models.StatusCharging] != 1 || stats.SessionsByStatus[models.StatusCompleted] != 1 {
		t.Fatalf("unexpected status counts: %v", stats.SessionsByStatus)
	}
	if stats.TotalEnergyKWh != 15 {
		t.Fatalf("expected 15 kWh, got %v", stats.TotalEnergyKWh)
	}
}

func TestSessionLifecycleEndToEnd(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess, err := env.svc.StartSession(ctx, StartSessionInput{
		UserID:    "user_001",
		PileID:    "pile_001",
		MaxEnergy: 0.05,
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if sess.Status != models.StatusPreparing {
		t.Fatalf("expected preparing, got %s", sess.Status)
	}

	// First tick promotes to charging.
	env.advance(5 * time.Second)
	waitFor(t, 2*time.Second, func() bool {
		got, err := env.svc.GetStatus(ctx, sess.SessionID)
		return err == nil && got != nil && got.Status == models.StatusCharging
	})

	// Second tick delivers enough energy to hit the cap and move the
	// session to finishing.
	env.advance(5 * time.Second)
	waitFor(t, 2*time.Second, func() bool {
		got, err := env.svc.GetStatus(ctx, sess.SessionID)
		return err == nil && got != nil && got.Status == models.StatusFinishing
	})

	got := env.session(t, sess.SessionID)
	if got.EnergyDelivered < 0.05 {
		t.Fatalf("cap hit with too little energy: %v", got.EnergyDelivered)
	}
	if got.Duration < 10 {
		t.Fatalf("expected at least 10s duration, got %d", got.Duration)
	}

	// Grace period elapses and the session completes.
	env.advance(3 * time.Second)
	waitFor(t, 2*time.Second, func() bool {
		got, err := env.svc.GetStatus(ctx, sess.SessionID)
		return err == nil && got != nil && got.Status == models.StatusCompleted
	})

	final := env.session(t, sess.SessionID)
	if final.StopReason != models.ReasonEnergyLimit {
		t.Fatalf("expected energy_limit stop reason, got %s", final.StopReason)
	}

	waitFor(t, 2*time.Second, func() bool {
		return env.piles.status("pile_001") == models.PileAvailable
	})
	order, err := env.orders.GetOrder(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.PaymentStatus != models.PaymentPaid {
		t.Fatalf("order should be settled, got %s", order.PaymentStatus)
	}
}

func TestAnomalyAutoStopEndsSession(t *testing.T) {
	env := newTestEnv(t, Config{AutoStopOnCritical: true})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, func(s *models.ChargingSession) {
		s.Temperature = 85
	})

	done := env.svc.detector.check(ctx, sess.SessionID)
	if !done {
		t.Fatal("detector should exit after scheduling an auto-stop")
	}

	waitFor(t, 2*time.Second, func() bool {
		got, err := env.svc.GetStatus(ctx, sess.SessionID)
		return err == nil && got != nil && got.Status == models.StatusCompleted
	})
	final := env.session(t, sess.SessionID)
	if final.StopReason != models.ReasonAnomalyStop {
		t.Fatalf("expected anomaly_auto_stop reason, got %s", final.StopReason)
	}
}

func TestAnomalyAutoStopDisabledKeepsSessionRunning(t *testing.T) {
	env := newTestEnv(t, Config{AutoStopOnCritical: false})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, func(s *models.ChargingSession) {
		s.Temperature = 85
	})

	if done := env.svc.detector.check(ctx, sess.SessionID); done {
		t.Fatal("detector should keep running when auto-stop is disabled")
	}

	got := env.session(t, sess.SessionID)
	if got.Status != models.StatusCharging {
		t.Fatalf("session should keep charging, got %s", got.Status)
	}

	reports, err := env.svc.AnomalyHistory(ctx, sess.SessionID, 10)
	if err != nil {
		t.Fatalf("anomaly history: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if reports[0].RiskLevel != models.RiskCritical {
		t.Fatalf("expected critical risk, got %s", reports[0].RiskLevel)
	}
	if !reports[0].AutoStopRecommended {
		t.Fatal("critical report should recommend auto-stop")
	}
}
