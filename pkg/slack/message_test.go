package slack

import (
	"strings"
	"testing"
	"unicode/utf8"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAlertRaisedMessage(t *testing.T) {
	blocks := BuildAlertRaisedMessage("alert-1", "threat_indicator", "high", "agent-a", "res-1", "actor IP matched the bad-IP set")

	require.Len(t, blocks, 1)
	section, ok := blocks[0].(*goslack.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, section.Text.Text, ":large_orange_circle:")
	assert.Contains(t, section.Text.Text, "threat_indicator")
	assert.Contains(t, section.Text.Text, "agent-a")
	assert.Contains(t, section.Text.Text, "res-1")
	assert.Contains(t, section.Text.Text, "trustmesh-alert-alert-1")
}

func TestBuildAlertRaisedMessageUnknownSeverityFallsBackToWarningEmoji(t *testing.T) {
	blocks := BuildAlertRaisedMessage("alert-2", "custom", "", "a", "t", "desc")
	section := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, section.Text.Text, ":warning:")
}

func TestBuildAlertStatusMessageResolved(t *testing.T) {
	blocks := BuildAlertStatusMessage("resolved", nil)
	section := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, section.Text.Text, ":white_check_mark:")
	assert.Contains(t, section.Text.Text, "resolved")
}

func TestBuildAlertStatusMessageIncludesAutoResponseActions(t *testing.T) {
	blocks := BuildAlertStatusMessage("mitigated", []string{"block_agent", "notify_admin"})
	section := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, section.Text.Text, ":shield:")
	assert.Contains(t, section.Text.Text, "block_agent")
}

func TestTruncateForSlack(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", truncateForSlack("hello"))
	})

	t.Run("exact limit unchanged", func(t *testing.T) {
		text := strings.Repeat("a", maxBlockTextLength)
		assert.Equal(t, text, truncateForSlack(text))
	})

	t.Run("over limit truncated", func(t *testing.T) {
		text := strings.Repeat("a", maxBlockTextLength+100)
		result := truncateForSlack(text)
		assert.True(t, len(result) < len(text))
		assert.Contains(t, result, "truncated")
	})

	t.Run("multi-byte runes not split", func(t *testing.T) {
		text := strings.Repeat("🔥", maxBlockTextLength+10)
		result := truncateForSlack(text)
		assert.Contains(t, result, "truncated")
		assert.True(t, utf8.ValidString(result), "result should be valid UTF-8")
		prefix := strings.Split(result, "\n\n_...")[0]
		assert.Equal(t, maxBlockTextLength, utf8.RuneCountInString(prefix))
	})
}
