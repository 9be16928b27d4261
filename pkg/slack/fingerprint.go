package slack

import (
	"regexp"
	"strings"

	goslack "github.com/slack-go/slack"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// alertFingerprint derives the invisible marker BuildAlertRaisedMessage
// embeds in a newly-raised alert's message text, so a later status update
// can find that same thread by alert identity alone — no separate
// alert_id -> thread_ts map needs to be persisted anywhere.
func alertFingerprint(alertID string) string {
	return "trustmesh-alert-" + alertID
}

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func collectMessageText(msg goslack.Message) string {
	var parts []string
	if msg.Text != "" {
		parts = append(parts, msg.Text)
	}
	for _, att := range msg.Attachments {
		if att.Text != "" {
			parts = append(parts, att.Text)
		}
		if att.Fallback != "" {
			parts = append(parts, att.Fallback)
		}
	}
	return strings.Join(parts, " ")
}

// messageMatchesAlert reports whether msg carries alertID's fingerprint,
// in its text or in any attachment text/fallback.
func messageMatchesAlert(msg goslack.Message, alertID string) bool {
	return strings.Contains(normalizeText(collectMessageText(msg)), normalizeText(alertFingerprint(alertID)))
}
