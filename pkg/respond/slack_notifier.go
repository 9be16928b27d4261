package respond

import (
	"context"
	"fmt"
	"time"

	goslack "github.com/slack-go/slack"

	"github.com/codeready-toolchain/trustmesh/pkg/slack"
)

// SlackNotifier adapts pkg/slack.Client into the Notifier interface for
// alert_admin/notify_admin actions. Nil-safe like pkg/slack.Service: a
// SlackNotifier with a nil client is a no-op.
type SlackNotifier struct {
	client *slack.Client
}

// NewSlackNotifier wraps an existing Slack client. Pass nil to build a
// no-op notifier (e.g. when no channel is configured).
func NewSlackNotifier(client *slack.Client) *SlackNotifier {
	return &SlackNotifier{client: client}
}

// Notify posts subject/body as a single Block Kit section message,
// fail-open to the 5-second external-hook timeout spec.md §4.6 sets for
// side channels.
func (n *SlackNotifier) Notify(ctx context.Context, subject, body string) error {
	if n == nil || n.client == nil {
		return nil
	}
	text := fmt.Sprintf(":rotating_light: *%s*\n%s", subject, body)
	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
	return n.client.PostMessage(ctx, blocks, "", 5*time.Second)
}
