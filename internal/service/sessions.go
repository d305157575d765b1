// Package service implements the charging session lifecycle: session
// state transitions, simulated telemetry, anomaly detection, orders and
// notifications.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/metrics"
	"github.com/watchhill101/smartCharging-sub004/internal/models"
	"github.com/watchhill101/smartCharging-sub004/internal/storage"
)

const defaultListLimit = 20

// Config tunes the lifecycle engine.
type Config struct {
	TickInterval             time.Duration
	AnomalyInterval          time.Duration
	GraceDelay               time.Duration
	SessionTTL               time.Duration
	AnomalyHistoryLimit      int64
	NotificationHistoryLimit int64
	AutoStopOnCritical       bool
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = 5 * time.Second
	}
	if c.AnomalyInterval <= 0 {
		c.AnomalyInterval = 10 * time.Second
	}
	if c.GraceDelay <= 0 {
		c.GraceDelay = 3 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.AnomalyHistoryLimit <= 0 {
		c.AnomalyHistoryLimit = 20
	}
	if c.NotificationHistoryLimit <= 0 {
		c.NotificationHistoryLimit = 50
	}
	return c
}

// Deps are the collaborators of the lifecycle engine. Events and
// Archive may be nil when no broker or database is configured.
type Deps struct {
	Store     storage.Store
	Piles     PileRegistry
	Orders    *OrdersService
	Notifier  *NotificationsService
	Broadcast Broadcaster
	Events    EventPublisher
	Archive   SessionArchive
	Logger    *zap.Logger
	Clock     clockz.Clock
}

// SessionsService owns the charging session lifecycle. Each running
// session has a telemetry simulator and an anomaly detector goroutine
// registered under its id; a per-session mutex keeps lifecycle writes
// and telemetry writes from interleaving.
type SessionsService struct {
	store     storage.Store
	piles     PileRegistry
	orders    *OrdersService
	notifier  *NotificationsService
	broadcast Broadcaster
	events    EventPublisher
	archive   SessionArchive
	logger    *zap.Logger
	clock     clockz.Clock
	cfg       Config

	simulator *TelemetrySimulator
	detector  *AnomalyDetector
	tasks     *taskRegistry
	locks     *lockTable
	startedAt time.Time
}

// NewSessionsService wires the lifecycle engine.
func NewSessionsService(deps Deps, cfg Config) *SessionsService {
	clock := deps.Clock
	if clock == nil {
		clock = clockz.RealClock
	}
	svc := &SessionsService{
		store:     deps.Store,
		piles:     deps.Piles,
		orders:    deps.Orders,
		notifier:  deps.Notifier,
		broadcast: deps.Broadcast,
		events:    deps.Events,
		archive:   deps.Archive,
		logger:    deps.Logger,
		clock:     clock,
		cfg:       cfg.withDefaults(),
		tasks:     newTaskRegistry(),
		locks:     newLockTable(),
		startedAt: clock.Now(),
	}
	svc.simulator = &TelemetrySimulator{svc: svc}
	svc.detector = &AnomalyDetector{svc: svc}
	return svc
}

// StartSessionInput carries the parameters of a start request. The
// vehicle profile fields are optional; without a battery capacity the
// target SOC cap cannot apply.
type StartSessionInput struct {
	UserID          string  `json:"user_id"`
	PileID          string  `json:"pile_id"`
	TargetSoc       float64 `json:"target_soc,omitempty"`
	MaxEnergy       float64 `json:"max_energy,omitempty"`
	MaxCost         float64 `json:"max_cost,omitempty"`
	BatteryCapacity float64 `json:"battery_capacity,omitempty"`
	InitialSoc      float64 `json:"initial_soc,omitempty"`
}

// StartSession creates a session on an available pile, opens its order
// and launches the telemetry and anomaly runners.
func (svc *SessionsService) StartSession(ctx context.Context, in StartSessionInput) (*models.ChargingSession, error) {
	userLock := svc.locks.get("user:" + in.UserID)
	userLock.Lock()
	defer userLock.Unlock()

	if err := svc.checkNoActiveSession(ctx, in.UserID); err != nil {
		return nil, err
	}

	pile, err := svc.piles.PileInfo(in.PileID)
	if err != nil {
		return nil, ErrPileUnavailable
	}
	if pile.Status != models.PileAvailable {
		return nil, ErrPileUnavailable
	}

	now := svc.clock.Now()
	sess := &models.ChargingSession{
		SessionID:       newSessionID(),
		UserID:          in.UserID,
		PileID:          pile.ID,
		PileName:        pile.Name,
		StationID:       pile.StationID,
		StationName:     pile.StationName,
		Status:          models.StatusPreparing,
		TargetSoc:       in.TargetSoc,
		MaxEnergy:       in.MaxEnergy,
		MaxCost:         in.MaxCost,
		BatteryCapacity: in.BatteryCapacity,
		InitialSoc:      in.InitialSoc,
		Temperature:     initialTemperature,
		MaxPower:        pile.MaxPowerKW,
		PricePerKwh:     pile.PricePerKwh,
		StartTime:       now,
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}

	if err := writeSession(ctx, svc.store, sess, svc.cfg.SessionTTL); err != nil {
		return nil, err
	}
	if err := svc.store.SetWithTTL(ctx, userActiveKey(in.UserID), []byte(sess.SessionID), svc.cfg.SessionTTL); err != nil {
		svc.cleanupFailedStart(ctx, sess)
		return nil, err
	}
	if err := svc.piles.SetStatus(pile.ID, models.PileOccupied); err != nil {
		svc.cleanupFailedStart(ctx, sess)
		return nil, err
	}
	if _, err := svc.orders.CreateOrder(ctx, sess); err != nil {
		if rbErr := svc.piles.SetStatus(pile.ID, models.PileAvailable); rbErr != nil {
			svc.logger.Warn("failed to release pile after aborted start",
				zap.String("pile_id", pile.ID), zap.Error(rbErr))
		}
		svc.cleanupFailedStart(ctx, sess)
		return nil, err
	}

	svc.tasks.Start(context.Background(), sess.SessionID,
		func(ctx context.Context) { svc.simulator.run(ctx, sess.SessionID) },
		func(ctx context.Context) { svc.detector.run(ctx, sess.SessionID) },
	)
	metrics.ActiveSessions.Inc()

	svc.notifier.Send(ctx, SendInput{
		UserID:    in.UserID,
		SessionID: sess.SessionID,
		Type:      models.NotificationStarted,
		Title:     "充电已开始",
		Message:   fmt.Sprintf("您在 %s 的充电已开始", pile.Name),
		Priority:  models.PriorityNormal,
		Channels:  []string{models.ChannelPush},
	})
	svc.publish(models.SessionEvent{
		Event:     "session_started",
		SessionID: sess.SessionID,
		UserID:    sess.UserID,
		PileID:    sess.PileID,
		Status:    sess.Status,
	})
	svc.broadcastStatus(sess)

	svc.logger.Info("session started",
		zap.String("session_id", sess.SessionID),
		zap.String("user_id", in.UserID),
		zap.String("pile_id", pile.ID))
	return sess, nil
}

// checkNoActiveSession enforces one active session per user. A pointer
// to a terminal or vanished session counts as stale and is cleared.
func (svc *SessionsService) checkNoActiveSession(ctx context.Context, userID string) error {
	raw, err := svc.store.Get(ctx, userActiveKey(userID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	if active, err := readSession(ctx, svc.store, string(raw)); err == nil && !active.Status.Terminal() {
		return ErrUserHasActiveSession
	}
	if err := svc.store.Delete(ctx, userActiveKey(userID)); err != nil {
		svc.logger.Warn("failed to clear stale active-session key",
			zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

func (svc *SessionsService) cleanupFailedStart(ctx context.Context, sess *models.ChargingSession) {
	if err := svc.store.Delete(ctx, sessionKey(sess.SessionID)); err != nil {
		svc.logger.Warn("failed to clean up session key",
			zap.String("session_id", sess.SessionID), zap.Error(err))
	}
	if err := svc.store.Delete(ctx, userActiveKey(sess.UserID)); err != nil {
		svc.logger.Warn("failed to clean up active-session key",
			zap.String("user_id", sess.UserID), zap.Error(err))
	}
}

// StopResult summarizes a completed stop.
type StopResult struct {
	SessionID       string    `json:"session_id"`
	EndTime         time.Time `json:"end_time"`
	Duration        int64     `json:"duration"`
	EnergyDelivered float64   `json:"energy_delivered"`
	TotalCost       float64   `json:"total_cost"`
}

// StopSession ends a session on behalf of userID, settles its order and
// releases the pile. The caller must own the session.
func (svc *SessionsService) StopSession(ctx context.Context, sessionID, userID, reason string) (*StopResult, error) {
	if reason == "" {
		reason = models.ReasonRemote
	}
	return svc.stop(ctx, sessionID, userID, reason)
}

// stopInternal ends a session from a background path (cap reached,
// anomaly auto-stop) where no ownership check applies.
func (svc *SessionsService) stopInternal(ctx context.Context, sessionID, reason string) (*StopResult, error) {
	return svc.stop(ctx, sessionID, "", reason)
}

func (svc *SessionsService) stop(ctx context.Context, sessionID, userID, reason string) (*StopResult, error) {
	sess, err := readSession(ctx, svc.store, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if userID != "" && sess.UserID != userID {
		return nil, ErrForbidden
	}
	if sess.Status.Terminal() {
		return nil, ErrSessionAlreadyEnded
	}

	// Stop the runners first: an in-flight tick either lands before the
	// final write below or is dropped by its own status re-check.
	svc.tasks.Cancel(sessionID)

	lock := svc.locks.get(sessionID)
	lock.Lock()
	sess, err = readSession(ctx, svc.store, sessionID)
	if err != nil {
		lock.Unlock()
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if sess.Status.Terminal() {
		lock.Unlock()
		return nil, ErrSessionAlreadyEnded
	}

	now := svc.clock.Now()
	end := now.UTC()
	sess.Status = models.StatusCompleted
	sess.StopReason = reason
	sess.EndTime = &end
	if elapsed := int64(now.Sub(sess.StartTime).Seconds()); elapsed > sess.Duration {
		sess.Duration = elapsed
	}
	sess.CurrentPower = 0
	sess.Current = 0
	sess.UpdatedAt = end
	err = writeSession(ctx, svc.store, sess, svc.cfg.SessionTTL)
	lock.Unlock()
	if err != nil {
		return nil, err
	}
	svc.locks.release(sessionID)

	svc.releasePile(sess, models.PileAvailable)
	svc.clearActiveKey(ctx, sess)

	var total float64
	order, err := svc.orders.CompleteOrder(ctx, sessionID)
	if err != nil {
		svc.logger.Warn("order settlement failed",
			zap.String("session_id", sessionID), zap.Error(err))
		order = nil
	} else {
		total = order.TotalCost
	}

	if svc.archive != nil {
		if err := svc.archive.Insert(ctx, sess, order); err != nil {
			svc.logger.Warn("failed to archive session",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	metrics.ActiveSessions.Dec()
	metrics.EnergyDeliveredTotal.Add(sess.EnergyDelivered)

	svc.publish(models.SessionEvent{
		Event:           "session_stopped",
		SessionID:       sess.SessionID,
		UserID:          sess.UserID,
		PileID:          sess.PileID,
		Status:          sess.Status,
		Reason:          reason,
		EnergyDelivered: sess.EnergyDelivered,
		TotalCost:       total,
	})
	svc.broadcastStatus(sess)

	svc.logger.Info("session stopped",
		zap.String("session_id", sessionID),
		zap.String("reason", reason),
		zap.Float64("energy_kwh", sess.EnergyDelivered),
		zap.Float64("total_cost", total))

	return &StopResult{
		SessionID:       sessionID,
		EndTime:         end,
		Duration:        sess.Duration,
		EnergyDelivered: sess.EnergyDelivered,
		TotalCost:       total,
	}, nil
}

// FaultSession moves a session to the faulted terminal state and takes
// the pile offline. No billing runs; the order stays pending for manual
// review.
func (svc *SessionsService) FaultSession(ctx context.Context, sessionID, detail string) error {
	sess, err := readSession(ctx, svc.store, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if sess.Status.Terminal() {
		return ErrSessionAlreadyEnded
	}

	svc.tasks.Cancel(sessionID)

	lock := svc.locks.get(sessionID)
	lock.Lock()
	sess, err = readSession(ctx, svc.store, sessionID)
	if err != nil {
		lock.Unlock()
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if sess.Status.Terminal() {
		lock.Unlock()
		return ErrSessionAlreadyEnded
	}

	now := svc.clock.Now()
	end := now.UTC()
	sess.Status = models.StatusFaulted
	sess.StopReason = models.ReasonFault
	sess.EndTime = &end
	if elapsed := int64(now.Sub(sess.StartTime).Seconds()); elapsed > sess.Duration {
		sess.Duration = elapsed
	}
	sess.CurrentPower = 0
	sess.Current = 0
	sess.UpdatedAt = end
	err = writeSession(ctx, svc.store, sess, svc.cfg.SessionTTL)
	lock.Unlock()
	if err != nil {
		return err
	}
	svc.locks.release(sessionID)

	svc.releasePile(sess, models.PileOffline)
	svc.clearActiveKey(ctx, sess)

	if svc.archive != nil {
		if err := svc.archive.Insert(ctx, sess, nil); err != nil {
			svc.logger.Warn("failed to archive faulted session",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	metrics.ActiveSessions.Dec()

	svc.notifier.Send(ctx, SendInput{
		UserID:    sess.UserID,
		SessionID: sessionID,
		Type:      models.NotificationAnomaly,
		Title:     "充电故障",
		Message:   fmt.Sprintf("充电桩 %s 发生故障，充电已中断: %s", sess.PileName, detail),
		Priority:  models.PriorityUrgent,
		Channels:  []string{models.ChannelPush, models.ChannelSMS},
	})
	svc.publish(models.SessionEvent{
		Event:     "session_faulted",
		SessionID: sess.SessionID,
		UserID:    sess.UserID,
		PileID:    sess.PileID,
		Status:    sess.Status,
		Reason:    detail,
	})
	svc.broadcastStatus(sess)

	svc.logger.Warn("session faulted",
		zap.String("session_id", sessionID),
		zap.String("detail", detail))
	return nil
}

// PauseSession suspends an actively charging session.
func (svc *SessionsService) PauseSession(ctx context.Context, sessionID, userID string) (*models.ChargingSession, error) {
	return svc.transition(ctx, sessionID, userID, models.StatusCharging, models.StatusSuspended, "session_suspended")
}

// ResumeSession returns a suspended session to charging.
func (svc *SessionsService) ResumeSession(ctx context.Context, sessionID, userID string) (*models.ChargingSession, error) {
	return svc.transition(ctx, sessionID, userID, models.StatusSuspended, models.StatusCharging, "session_resumed")
}

func (svc *SessionsService) transition(ctx context.Context, sessionID, userID string, from, to models.SessionStatus, event string) (*models.ChargingSession, error) {
	lock := svc.locks.get(sessionID)
	lock.Lock()
	sess, err := readSession(ctx, svc.store, sessionID)
	if err != nil {
		lock.Unlock()
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if userID != "" && sess.UserID != userID {
		lock.Unlock()
		return nil, ErrForbidden
	}
	if sess.Status.Terminal() {
		lock.Unlock()
		return nil, ErrSessionAlreadyEnded
	}
	if sess.Status != from {
		lock.Unlock()
		return nil, ErrInvalidSessionStatus
	}

	sess.Status = to
	if to == models.StatusSuspended {
		sess.CurrentPower = 0
		sess.Current = 0
	}
	sess.UpdatedAt = svc.clock.Now().UTC()
	err = writeSession(ctx, svc.store, sess, svc.cfg.SessionTTL)
	lock.Unlock()
	if err != nil {
		return nil, err
	}

	svc.publish(models.SessionEvent{
		Event:     event,
		SessionID: sess.SessionID,
		UserID:    sess.UserID,
		PileID:    sess.PileID,
		Status:    sess.Status,
	})
	svc.broadcastStatus(sess)
	svc.logger.Info(event, zap.String("session_id", sessionID))
	return sess, nil
}

// GetStatus returns the stored session, or nil when the id is unknown.
func (svc *SessionsService) GetStatus(ctx context.Context, sessionID string) (*models.ChargingSession, error) {
	sess, err := readSession(ctx, svc.store, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// ListFilter narrows ListSessions output. Zero values match everything.
type ListFilter struct {
	PileID string
	UserID string
	Status models.SessionStatus
	Limit  int
	Offset int
}

// ListSessions returns stored sessions, newest first.
func (svc *SessionsService) ListSessions(ctx context.Context, filter ListFilter) ([]models.ChargingSession, error) {
	sessions, err := svc.loadSessions(ctx)
	if err != nil {
		return nil, err
	}

	filtered := sessions[:0]
	for _, sess := range sessions {
		if filter.PileID != "" && sess.PileID != filter.PileID {
			continue
		}
		if filter.UserID != "" && sess.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && sess.Status != filter.Status {
			continue
		}
		filtered = append(filtered, sess)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(filtered) {
		return []models.ChargingSession{}, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], nil
}

func (svc *SessionsService) loadSessions(ctx context.Context) ([]models.ChargingSession, error) {
	keys, err := svc.store.ScanPrefix(ctx, sessionKeyPrefix)
	if err != nil {
		return nil, err
	}
	sessions := make([]models.ChargingSession, 0, len(keys))
	for _, key := range keys {
		raw, err := svc.store.Get(ctx, key)
		if err != nil {
			// expired between scan and read
			continue
		}
		var sess models.ChargingSession
		if err := json.Unmarshal(raw, &sess); err != nil {
			svc.logger.Warn("skipping undecodable session", zap.String("key", key), zap.Error(err))
			continue
		}
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Statistics is the aggregate view over all stored sessions.
type Statistics struct {
	ActiveSessions   int                          `json:"active_sessions"`
	SessionsByStatus map[models.SessionStatus]int `json:"sessions_by_status"`
	TotalEnergyKWh   float64                      `json:"total_energy_kwh"`
	UptimeSeconds    int64                        `json:"uptime_seconds"`
}

// Statistics aggregates the stored sessions.
func (svc *SessionsService) Statistics(ctx context.Context) (*Statistics, error) {
	sessions, err := svc.loadSessions(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Statistics{SessionsByStatus: make(map[models.SessionStatus]int)}
	for i := range sessions {
		sess := &sessions[i]
		stats.SessionsByStatus[sess.Status]++
		if !sess.Status.Terminal() {
			stats.ActiveSessions++
		}
		stats.TotalEnergyKWh += sess.EnergyDelivered
	}
	stats.UptimeSeconds = int64(svc.clock.Now().Sub(svc.startedAt).Seconds())
	return stats, nil
}

// AnomalyHistory returns the recorded anomaly reports of a session,
// newest first.
func (svc *SessionsService) AnomalyHistory(ctx context.Context, sessionID string, limit int64) ([]models.AnomalyReport, error) {
	if limit <= 0 || limit > svc.cfg.AnomalyHistoryLimit {
		limit = svc.cfg.AnomalyHistoryLimit
	}
	entries, err := svc.store.ReadRange(ctx, anomalyListKey(sessionID), 0, limit-1)
	if err != nil {
		return nil, err
	}
	reports := make([]models.AnomalyReport, 0, len(entries))
	for _, raw := range entries {
		var report models.AnomalyReport
		if err := json.Unmarshal(raw, &report); err != nil {
			svc.logger.Warn("skipping undecodable anomaly report", zap.Error(err))
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Shutdown stops all background runners and waits for them to exit.
func (svc *SessionsService) Shutdown() {
	svc.tasks.CancelAll()
}

func (svc *SessionsService) releasePile(sess *models.ChargingSession, status models.PileStatus) {
	if err := svc.piles.SetStatus(sess.PileID, status); err != nil {
		svc.logger.Warn("failed to update pile status",
			zap.String("pile_id", sess.PileID), zap.Error(err))
	}
}

// clearActiveKey removes the user's active-session pointer, but only if
// it still points at this session.
func (svc *SessionsService) clearActiveKey(ctx context.Context, sess *models.ChargingSession) {
	userLock := svc.locks.get("user:" + sess.UserID)
	userLock.Lock()
	defer userLock.Unlock()

	raw, err := svc.store.Get(ctx, userActiveKey(sess.UserID))
	if err != nil || string(raw) != sess.SessionID {
		return
	}
	if err := svc.store.Delete(ctx, userActiveKey(sess.UserID)); err != nil {
		svc.logger.Warn("failed to clear active-session key",
			zap.String("user_id", sess.UserID), zap.Error(err))
	}
}

// scheduleFinish stops the session after the grace delay, unless the
// task context is cancelled first by an explicit stop.
func (svc *SessionsService) scheduleFinish(ctx context.Context, sessionID, reason string) {
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-svc.clock.After(svc.cfg.GraceDelay):
		}
		if _, err := svc.stopInternal(context.Background(), sessionID, reason); err != nil &&
			!errors.Is(err, ErrSessionAlreadyEnded) && !errors.Is(err, ErrSessionNotFound) {
			svc.logger.Warn("grace-period stop failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}()
}

func (svc *SessionsService) publish(e models.SessionEvent) {
	if svc.events == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = svc.clock.Now().UTC()
	}
	if err := svc.events.PublishSessionEvent(e); err != nil {
		svc.logger.Warn("failed to publish session event",
			zap.String("event", e.Event), zap.Error(err))
	}
}

func (svc *SessionsService) broadcastStatus(sess *models.ChargingSession) {
	svc.broadcast.BroadcastSessionUpdate(sessionUpdate(models.UpdateStatus, sess, svc.clock.Now()))
}

func (svc *SessionsService) broadcastTelemetry(sess *models.ChargingSession) {
	svc.broadcast.BroadcastSessionUpdate(sessionUpdate(models.UpdateTelemetry, sess, svc.clock.Now()))
}

func sessionUpdate(kind string, sess *models.ChargingSession, now time.Time) models.SessionUpdate {
	return models.SessionUpdate{
		Type:            kind,
		SessionID:       sess.SessionID,
		UserID:          sess.UserID,
		PileID:          sess.PileID,
		Status:          sess.Status,
		CurrentPower:    sess.CurrentPower,
		EnergyDelivered: sess.EnergyDelivered,
		Voltage:         sess.Voltage,
		Current:         sess.Current,
		Temperature:     sess.Temperature,
		Cost:            sess.Cost,
		Duration:        sess.Duration,
		Timestamp:       now.UTC(),
	}
}
