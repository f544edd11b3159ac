package slack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/slack-go/slack/slackevents"
	"github.com/tidwall/sjson"
)

// MessageEventToEnvelope maps a Slack message event into the canonical inbound envelope.
// Direct messages become private messages, everything else a group message keyed by channel.
// ok is false for events that do not carry a user-authored message.
func MessageEventToEnvelope(ev *slackevents.MessageEvent) (raw []byte, ok bool, err error) {
	if ev.User == "" || ev.BotID != "" || ev.SubType != "" {
		return nil, false, nil
	}

	raw = []byte(`{"post_type":"message"}`)
	set := func(path string, value any) {
		if err != nil {
			return
		}
		raw, err = sjson.SetBytes(raw, path, value)
	}

	set("user_id", ev.User)
	set("message_id", ev.TimeStamp)
	set("time", tsSeconds(ev.TimeStamp))
	set("raw_message", ev.Text)
	if ev.ChannelType == slackevents.ChannelTypeIM {
		set("message_type", "private")
	} else {
		set("message_type", "group")
		set("group_id", ev.Channel)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to build envelope: %w", err)
	}
	return raw, true, nil
}

// tsSeconds extracts the unix seconds from a Slack message timestamp like "1700000000.000100".
func tsSeconds(ts string) int64 {
	seconds, _, _ := strings.Cut(ts, ".")
	n, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
