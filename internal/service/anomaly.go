package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/metrics"
	"github.com/watchhill101/smartCharging-sub004/internal/models"
	"github.com/watchhill101/smartCharging-sub004/internal/storage"
)

// Detection thresholds.
const (
	lowPowerRatio       = 0.1
	highTemperature     = 60.0
	criticalTemperature = 80.0
	minSafeVoltage      = 300.0
	maxSafeVoltage      = 450.0
	overcurrentRatio    = 1.2
	nominalGridVoltage  = 220.0
)

// AnomalyDetector periodically grades a charging session's telemetry
// against safety thresholds. Non-safe reports notify the user; critical
// and danger reports can stop the session when auto-stop is enabled.
type AnomalyDetector struct {
	svc *SessionsService
}

func (d *AnomalyDetector) run(ctx context.Context, sessionID string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.svc.clock.After(d.svc.cfg.AnomalyInterval):
			if done := d.check(ctx, sessionID); done {
				return
			}
		}
	}
}

// check runs one detection pass. It reports true when the runner should
// exit.
func (d *AnomalyDetector) check(ctx context.Context, sessionID string) bool {
	svc := d.svc
	sess, err := readSession(ctx, svc.store, sessionID)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, storage.ErrNotFound) {
			return true
		}
		svc.logger.Warn("anomaly read failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return false
	}
	if sess.Status.Terminal() {
		return true
	}
	if sess.Status != models.StatusCharging {
		return false
	}

	report := EvaluateReadings(sess, svc.clock.Now().UTC())
	if report == nil {
		return false
	}

	if raw, err := json.Marshal(report); err == nil {
		if err := svc.store.PushBounded(ctx, anomalyListKey(sessionID), raw, svc.cfg.AnomalyHistoryLimit); err != nil && ctx.Err() == nil {
			svc.logger.Warn("failed to record anomaly report",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	metrics.AnomaliesDetected.WithLabelValues(string(report.RiskLevel)).Inc()

	if report.RiskLevel == models.RiskSafe {
		return false
	}

	d.escalate(ctx, sess, report)

	if report.AutoStopRecommended && svc.cfg.AutoStopOnCritical {
		svc.logger.Warn("auto-stopping session on anomaly",
			zap.String("session_id", sessionID),
			zap.String("risk_level", string(report.RiskLevel)))
		// Stop from a fresh goroutine: stopInternal cancels this
		// runner and waits for it to exit.
		go func() {
			if _, err := svc.stopInternal(context.Background(), sessionID, models.ReasonAnomalyStop); err != nil &&
				!errors.Is(err, ErrSessionAlreadyEnded) && !errors.Is(err, ErrSessionNotFound) {
				svc.logger.Warn("anomaly auto-stop failed",
					zap.String("session_id", sessionID), zap.Error(err))
			}
		}()
		return true
	}
	return false
}

// escalate pushes a non-safe report to the user and the event bus.
func (d *AnomalyDetector) escalate(ctx context.Context, sess *models.ChargingSession, report *models.AnomalyReport) {
	svc := d.svc

	priority := models.PriorityHigh
	channels := []string{models.ChannelPush}
	if report.RiskLevel == models.RiskCritical {
		priority = models.PriorityUrgent
		channels = []string{models.ChannelPush, models.ChannelSMS}
	}
	messages := make([]string, 0, len(report.Anomalies))
	for _, a := range report.Anomalies {
		messages = append(messages, a.Message)
	}
	svc.notifier.Send(ctx, SendInput{
		UserID:    sess.UserID,
		SessionID: sess.SessionID,
		Type:      models.NotificationAnomaly,
		Title:     "充电异常提醒",
		Message:   strings.Join(messages, "; "),
		Priority:  priority,
		Channels:  channels,
	})

	svc.broadcast.NotifySession(sess.SessionID, models.ClientMessage{Type: "anomaly_report", Data: report})
	svc.publish(models.SessionEvent{
		Event:     "anomaly_detected",
		SessionID: sess.SessionID,
		UserID:    sess.UserID,
		PileID:    sess.PileID,
		Status:    sess.Status,
		RiskLevel: report.RiskLevel,
	})
}

// EvaluateReadings grades one telemetry snapshot. It returns nil when
// no threshold is violated.
func EvaluateReadings(sess *models.ChargingSession, now time.Time) *models.AnomalyReport {
	var findings []models.Anomaly

	lowPowerLimit := sess.MaxPower * lowPowerRatio
	if sess.CurrentPower < lowPowerLimit {
		findings = append(findings, models.Anomaly{
			Type:      models.AnomalyLowPower,
			Severity:  models.SeverityMedium,
			Message:   fmt.Sprintf("充电功率异常偏低: %.2f kW", sess.CurrentPower),
			Value:     sess.CurrentPower,
			Threshold: lowPowerLimit,
			Timestamp: now,
		})
	}

	if sess.Temperature > criticalTemperature {
		findings = append(findings, models.Anomaly{
			Type:      models.AnomalyHighTemperature,
			Severity:  models.SeverityCritical,
			Message:   fmt.Sprintf("设备温度严重过高: %.1f°C", sess.Temperature),
			Value:     sess.Temperature,
			Threshold: criticalTemperature,
			Timestamp: now,
		})
	} else if sess.Temperature > highTemperature {
		findings = append(findings, models.Anomaly{
			Type:      models.AnomalyHighTemperature,
			Severity:  models.SeverityHigh,
			Message:   fmt.Sprintf("设备温度过高: %.1f°C", sess.Temperature),
			Value:     sess.Temperature,
			Threshold: highTemperature,
			Timestamp: now,
		})
	}

	if sess.Voltage < minSafeVoltage || sess.Voltage > maxSafeVoltage {
		threshold := maxSafeVoltage
		if sess.Voltage < minSafeVoltage {
			threshold = minSafeVoltage
		}
		findings = append(findings, models.Anomaly{
			Type:      models.AnomalyAbnormalVoltage,
			Severity:  models.SeverityHigh,
			Message:   fmt.Sprintf("充电电压异常: %.1fV", sess.Voltage),
			Value:     sess.Voltage,
			Threshold: threshold,
			Timestamp: now,
		})
	}

	currentLimit := sess.MaxPower * 1000 / nominalGridVoltage * overcurrentRatio
	if sess.Current > currentLimit {
		findings = append(findings, models.Anomaly{
			Type:      models.AnomalyOvercurrent,
			Severity:  models.SeverityHigh,
			Message:   fmt.Sprintf("充电电流过大: %.1fA", sess.Current),
			Value:     sess.Current,
			Threshold: currentLimit,
			Timestamp: now,
		})
	}

	if len(findings) == 0 {
		return nil
	}

	risk, autoStop := classifyRisk(findings)
	return &models.AnomalyReport{
		SessionID:           sess.SessionID,
		Anomalies:           findings,
		RiskLevel:           risk,
		AutoStopRecommended: autoStop,
		DetectedAt:          now,
	}
}

// classifyRisk aggregates finding severities into a risk level. Any
// critical finding is critical risk; more than one high finding is
// danger; a single high finding is warning; medium-only passes are
// safe.
func classifyRisk(findings []models.Anomaly) (models.RiskLevel, bool) {
	var critical, high int
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityHigh:
			high++
		}
	}
	switch {
	case critical > 0:
		return models.RiskCritical, true
	case high > 1:
		return models.RiskDanger, true
	case high == 1:
		return models.RiskWarning, false
	default:
		return models.RiskSafe, false
	}
}
