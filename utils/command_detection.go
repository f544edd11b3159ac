package utils

import (
	"regexp"
	"strings"
)

var (
	// OneBot mention codes: [CQ:at,qq=123456] or [CQ:at,qq=all]
	cqMentionRegex = regexp.MustCompile(`\[CQ:at,qq=[^\]]+\]`)
	// Slack mentions: <@USER_ID> or <@USER_ID|username>; also covers Discord <@123> and <@!123>
	angleMentionRegex = regexp.MustCompile(`<@!?[^>|]+(?:\|[^>]+)?>`)
)

// CommandDetectionResult represents the result of command detection
type CommandDetectionResult struct {
	IsCommand bool
	// CommandText is the message with mentions and the command prefix removed
	CommandText string
}

// DetectCommand checks if a message text is a command after stripping mentions.
// An empty prefix treats every non-empty message as a command.
func DetectCommand(messageText, prefix string) CommandDetectionResult {
	strippedText := StripMentions(messageText)

	if !strings.HasPrefix(strippedText, prefix) {
		return CommandDetectionResult{IsCommand: false}
	}

	commandText := strings.TrimPrefix(strippedText, prefix)
	if strings.TrimSpace(commandText) == "" || strings.HasPrefix(commandText, " ") {
		return CommandDetectionResult{IsCommand: false}
	}

	return CommandDetectionResult{
		IsCommand:   true,
		CommandText: commandText,
	}
}

// StripMentions removes OneBot, Slack and Discord mentions from message text
func StripMentions(text string) string {
	text = cqMentionRegex.ReplaceAllString(text, "")
	text = angleMentionRegex.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
