package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/metrics"
	"github.com/watchhill101/smartCharging-sub004/internal/models"
	"github.com/watchhill101/smartCharging-sub004/internal/storage"
)

// Simulation constants. Power hovers around 80% of the pile rating with
// jitter, voltage around 380V, and temperature walks within safe bounds
// so anomalies stay the exception.
const (
	basePowerRatio         = 0.8
	powerJitterRatio       = 0.1
	nominalChargingVoltage = 380.0
	voltageJitter          = 20.0
	temperatureStep        = 1.0
	initialTemperature     = 25.0
	maxTemperature         = 45.0
)

// telemetryReadings is one computed telemetry sample.
type telemetryReadings struct {
	Power       float64
	Voltage     float64
	Current     float64
	Temperature float64
	Energy      float64
	Cost        float64
	Duration    int64
}

// TelemetrySimulator generates synthetic charging telemetry for one
// session per tick. Sessions that are not charging are skipped; a
// preparing session is promoted to charging on its first tick.
type TelemetrySimulator struct {
	svc *SessionsService
}

func (s *TelemetrySimulator) run(ctx context.Context, sessionID string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.svc.clock.After(s.svc.cfg.TickInterval):
			if done := s.tick(ctx, sessionID); done {
				return
			}
		}
	}
}

// tick advances the session's telemetry once. It reports true when the
// runner should exit.
func (s *TelemetrySimulator) tick(ctx context.Context, sessionID string) bool {
	svc := s.svc
	snapshot, err := readSession(ctx, svc.store, sessionID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		if errors.Is(err, storage.ErrNotFound) {
			svc.logger.Warn("session vanished from store, stopping simulator",
				zap.String("session_id", sessionID))
			return true
		}
		svc.logger.Warn("telemetry read failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return false
	}

	switch snapshot.Status {
	case models.StatusPreparing:
		return s.promote(ctx, sessionID)
	case models.StatusCharging:
	case models.StatusSuspended, models.StatusFinishing:
		metrics.TelemetryTicks.WithLabelValues("skipped").Inc()
		return false
	default:
		return true
	}

	now := svc.clock.Now()
	readings := simulateReadings(snapshot, now, svc.cfg.TickInterval)
	reason := capReached(snapshot, readings)

	// Persist under the session lock, re-reading so a concurrent
	// lifecycle write is never overwritten.
	lock := svc.locks.get(sessionID)
	lock.Lock()
	current, err := readSession(ctx, svc.store, sessionID)
	if err != nil {
		lock.Unlock()
		if ctx.Err() != nil || errors.Is(err, storage.ErrNotFound) {
			return true
		}
		svc.logger.Warn("telemetry re-read failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return false
	}
	if current.Status != models.StatusCharging {
		lock.Unlock()
		metrics.TelemetryTicks.WithLabelValues("dropped").Inc()
		return current.Status.Terminal()
	}
	applyReadings(current, readings)
	if reason != "" {
		current.Status = models.StatusFinishing
	}
	current.UpdatedAt = now.UTC()
	err = writeSession(ctx, svc.store, current, svc.cfg.SessionTTL)
	lock.Unlock()
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		svc.logger.Warn("telemetry write failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return false
	}

	metrics.TelemetryTicks.WithLabelValues("ok").Inc()
	svc.broadcastTelemetry(current)

	if reason != "" {
		svc.logger.Info("charging target reached",
			zap.String("session_id", sessionID),
			zap.String("reason", reason))
		svc.broadcastStatus(current)
		svc.scheduleFinish(ctx, sessionID, reason)
		return true
	}
	return false
}

// promote moves a preparing session into charging on its first tick.
func (s *TelemetrySimulator) promote(ctx context.Context, sessionID string) bool {
	svc := s.svc
	lock := svc.locks.get(sessionID)
	lock.Lock()
	sess, err := readSession(ctx, svc.store, sessionID)
	if err != nil {
		lock.Unlock()
		return ctx.Err() != nil || errors.Is(err, storage.ErrNotFound)
	}
	if sess.Status != models.StatusPreparing {
		lock.Unlock()
		return sess.Status.Terminal()
	}
	sess.Status = models.StatusCharging
	sess.UpdatedAt = svc.clock.Now().UTC()
	err = writeSession(ctx, svc.store, sess, svc.cfg.SessionTTL)
	lock.Unlock()
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		svc.logger.Warn("failed to promote session to charging",
			zap.String("session_id", sessionID), zap.Error(err))
		return false
	}
	svc.logger.Info("session charging", zap.String("session_id", sessionID))
	svc.broadcastStatus(sess)
	return false
}

// simulateReadings derives the next telemetry sample from the last
// stored snapshot.
func simulateReadings(sess *models.ChargingSession, now time.Time, tick time.Duration) telemetryReadings {
	power := sess.MaxPower * basePowerRatio
	power += sess.MaxPower * (rand.Float64()*2*powerJitterRatio - powerJitterRatio)
	if power < 0 {
		power = 0
	}

	voltage := nominalChargingVoltage + (rand.Float64()*2*voltageJitter - voltageJitter)

	var current float64
	if power > 0 {
		current = power * 1000 / voltage
	}

	temperature := sess.Temperature + (rand.Float64()*2*temperatureStep - temperatureStep)
	if temperature < initialTemperature {
		temperature = initialTemperature
	}
	if temperature > maxTemperature {
		temperature = maxTemperature
	}

	energy := sess.EnergyDelivered + power*tick.Seconds()/3600

	return telemetryReadings{
		Power:       power,
		Voltage:     voltage,
		Current:     current,
		Temperature: temperature,
		Energy:      energy,
		Cost:        energy * sess.PricePerKwh,
		Duration:    int64(now.Sub(sess.StartTime).Seconds()),
	}
}

// applyReadings copies a sample onto the session. Duration never moves
// backwards.
func applyReadings(sess *models.ChargingSession, r telemetryReadings) {
	sess.CurrentPower = r.Power
	sess.Voltage = r.Voltage
	sess.Current = r.Current
	sess.Temperature = r.Temperature
	sess.EnergyDelivered = r.Energy
	sess.Cost = r.Cost
	if r.Duration > sess.Duration {
		sess.Duration = r.Duration
	}
}

// capReached returns the stop reason once the updated readings satisfy
// one of the session's charging targets. The SOC target wins over the
// energy cap, which wins over the cost cap.
func capReached(sess *models.ChargingSession, r telemetryReadings) string {
	if sess.TargetSoc > 0 && sess.BatteryCapacity > 0 {
		soc := sess.InitialSoc + r.Energy/sess.BatteryCapacity*100
		if soc >= sess.TargetSoc {
			return models.ReasonTargetReached
		}
	}
	if sess.MaxEnergy > 0 && r.Energy >= sess.MaxEnergy {
		return models.ReasonEnergyLimit
	}
	if sess.MaxCost > 0 && r.Cost >= sess.MaxCost {
		return models.ReasonCostLimit
	}
	return ""
}
