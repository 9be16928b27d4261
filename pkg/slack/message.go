package slack

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

const maxBlockTextLength = 2900

var severityEmoji = map[string]string{
	"low":      ":large_blue_circle:",
	"medium":   ":large_yellow_circle:",
	"high":     ":large_orange_circle:",
	"critical": ":red_circle:",
}

var statusEmoji = map[string]string{
	"mitigated":      ":shield:",
	"resolved":       ":white_check_mark:",
	"false_positive": ":no_entry_sign:",
}

// BuildAlertRaisedMessage creates Block Kit blocks for a newly raised
// SecurityAlert (spec.md §4.8). The fingerprint text is embedded so a
// later terminal update can find this message's thread via
// Client.FindAlertThread.
func BuildAlertRaisedMessage(alertID, alertType, severity, actor, target, description string) []goslack.Block {
	emoji := severityEmoji[severity]
	if emoji == "" {
		emoji = ":warning:"
	}
	text := fmt.Sprintf("%s *Security alert: %s* (%s)\nActor: `%s`  Target: `%s`\n%s\n_%s_",
		emoji, alertType, severity, actor, target, truncateForSlack(description), alertFingerprint(alertID))

	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
}

// BuildAlertStatusMessage creates Block Kit blocks for a threaded status
// update on an existing alert (mitigated, resolved, or false_positive).
func BuildAlertStatusMessage(status string, autoResponded []string) []goslack.Block {
	emoji := statusEmoji[status]
	if emoji == "" {
		emoji = ":information_source:"
	}
	text := fmt.Sprintf("%s *Status: %s*", emoji, status)
	if len(autoResponded) > 0 {
		text += fmt.Sprintf("\nAuto-response actions taken: `%v`", autoResponded)
	}

	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
}

func truncateForSlack(text string) string {
	runes := []rune(text)
	if len(runes) <= maxBlockTextLength {
		return text
	}
	return string(runes[:maxBlockTextLength]) + "\n\n_... (truncated)_"
}
