package slack

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/trustmesh/pkg/anomaly"
	"github.com/stretchr/testify/assert"
)

func TestService_NilReceiver(t *testing.T) {
	var s *Service
	alert := anomaly.NewAlert("threat_indicator", anomaly.SeverityHigh, "agent-a", "res", "bad ip")

	assert.NotPanics(t, func() { s.NotifyAlertRaised(context.Background(), alert) })
	assert.NotPanics(t, func() { s.NotifyAlertStatus(context.Background(), alert) })
}

func TestNewService(t *testing.T) {
	t.Run("returns nil when token empty", func(t *testing.T) {
		svc := NewService(ServiceConfig{Token: "", Channel: "C123"})
		assert.Nil(t, svc)
	})

	t.Run("returns nil when channel empty", func(t *testing.T) {
		svc := NewService(ServiceConfig{Token: "xoxb-test", Channel: ""})
		assert.Nil(t, svc)
	})

	t.Run("returns service when configured", func(t *testing.T) {
		svc := NewService(ServiceConfig{Token: "xoxb-test", Channel: "C123"})
		assert.NotNil(t, svc)
	})
}

func TestService_NilAlertIsNoOp(t *testing.T) {
	svc := NewService(ServiceConfig{Token: "xoxb-test", Channel: "C123"})
	assert.NotPanics(t, func() { svc.NotifyAlertRaised(context.Background(), nil) })
	assert.NotPanics(t, func() { svc.NotifyAlertStatus(context.Background(), nil) })
}
