package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMentions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "onebot mention", input: "[CQ:at,qq=123456] /ping", expected: "/ping"},
		{name: "onebot mention all", input: "[CQ:at,qq=all]hello", expected: "hello"},
		{name: "slack mention with name", input: "<@U123|bot> /repo x", expected: "/repo x"},
		{name: "slack mention", input: "<@U123> hi", expected: "hi"},
		{name: "discord nickname mention", input: "<@!42> /ping", expected: "/ping"},
		{name: "multiple mentions", input: "<@1> [CQ:at,qq=2] text <@U3>", expected: "text"},
		{name: "no mentions", input: "  plain  ", expected: "plain"},
		{name: "channel links are kept", input: "<#C123> hi", expected: "<#C123> hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripMentions(tt.input))
		})
	}
}

func TestDetectCommand(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		prefix      string
		isCommand   bool
		commandText string
	}{
		{name: "prefixed", input: "/ping -v", prefix: "/", isCommand: true, commandText: "ping -v"},
		{name: "mention then command", input: "[CQ:at,qq=1] /recent:3 30", prefix: "/", isCommand: true, commandText: "recent:3 30"},
		{name: "multi char prefix", input: "--cmd repo x", prefix: "--cmd ", isCommand: true, commandText: "repo x"},
		{name: "no prefix", input: "hello there", prefix: "/", isCommand: false},
		{name: "prefix only", input: "/", prefix: "/", isCommand: false},
		{name: "prefix then space", input: "/ ping", prefix: "/", isCommand: false},
		{name: "empty prefix", input: "ping", prefix: "", isCommand: true, commandText: "ping"},
		{name: "empty message", input: "<@U1>", prefix: "", isCommand: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectCommand(tt.input, tt.prefix)
			assert.Equal(t, tt.isCommand, result.IsCommand)
			assert.Equal(t, tt.commandText, result.CommandText)
		})
	}
}

func TestAssertInvariant(t *testing.T) {
	assert.NotPanics(t, func() { AssertInvariant(true, "fine") })
	assert.PanicsWithValue(t, "invariant violated - broken", func() { AssertInvariant(false, "broken") })
}
