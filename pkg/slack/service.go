package slack

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/trustmesh/pkg/anomaly"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token   string
	Channel string
}

// Service posts SecurityAlert lifecycle notifications to a Slack channel
// (spec.md §4.8's auto-response "notify_admin" action and the general
// alerting needs of C9's correlator/detector): a raised alert opens a
// thread, later status transitions (mitigated/resolved/false_positive)
// reply in that same thread via fingerprint lookup. Nil-safe: every
// method is a no-op when Service is nil, mirroring pkg/respond's
// fail-open notifier style.
type Service struct {
	client *Client
	logger *slog.Logger
}

// NewService creates a new Slack notification service. Returns nil if
// Token or Channel is empty; since every method is a no-op on a nil
// Service, callers can use the result without a nil check of their own.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return &Service{
		client: NewClient(cfg.Token, cfg.Channel),
		logger: slog.Default().With("component", "slack-service"),
	}
}

// NewServiceWithClient creates a Service backed by a pre-built Client.
// Useful for testing with a mock API server.
func NewServiceWithClient(client *Client) *Service {
	return &Service{
		client: client,
		logger: slog.Default().With("component", "slack-service"),
	}
}

// NotifyAlertRaised posts a new-alert message and returns nothing: the
// thread is later found again by fingerprint, so no caller-side state
// needs to be threaded through. Fail-open: errors are logged, never
// returned.
func (s *Service) NotifyAlertRaised(ctx context.Context, alert *anomaly.SecurityAlert) {
	if s == nil || alert == nil {
		return
	}
	blocks := BuildAlertRaisedMessage(alert.ID, alert.Type, string(alert.Severity), alert.Actor, alert.Target, alert.Description)
	if err := s.client.PostMessage(ctx, blocks, "", 5*time.Second); err != nil {
		s.logger.Error("failed to send security alert notification", "alert_id", alert.ID, "error", err)
	}
}

// NotifyAlertStatus posts a threaded status update for an existing alert,
// locating the thread by the fingerprint embedded in the original
// NotifyAlertRaised message. Fail-open: errors are logged, never
// returned.
func (s *Service) NotifyAlertStatus(ctx context.Context, alert *anomaly.SecurityAlert) {
	if s == nil || alert == nil {
		return
	}
	threadTS, err := s.client.FindAlertThread(ctx, alert.ID)
	if err != nil {
		s.logger.Warn("failed to find Slack thread for alert", "alert_id", alert.ID, "error", err)
	}
	blocks := BuildAlertStatusMessage(string(alert.Status), alert.AutoResponded)
	if err := s.client.PostMessage(ctx, blocks, threadTS, 5*time.Second); err != nil {
		s.logger.Error("failed to send alert status notification", "alert_id", alert.ID, "status", alert.Status, "error", err)
	}
}
