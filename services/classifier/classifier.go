package classifier

import (
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/tidwall/gjson"

	"chatcore/core"
	"chatcore/models"
)

type eventKind int

const (
	kindUnknown eventKind = iota
	kindMessage
	kindNotice
	kindMeta
)

type messageKind int

const (
	messageUnknown messageKind = iota
	messagePrivate
	messageGroup
	messageGuild
)

// envelope is the tagged view of a payload, built once and matched on.
type envelope struct {
	root        gjson.Result
	postType    string
	kind        eventKind
	messageType string
	message     messageKind
}

func parseEnvelope(raw []byte) (envelope, bool) {
	if !gjson.ValidBytes(raw) {
		return envelope{}, false
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return envelope{}, false
	}

	env := envelope{
		root:        root,
		postType:    root.Get("post_type").String(),
		messageType: root.Get("message_type").String(),
	}

	switch env.postType {
	case "message":
		env.kind = kindMessage
	case "notice", "request":
		env.kind = kindNotice
	case "meta_event":
		env.kind = kindMeta
	}

	switch env.messageType {
	case "private":
		env.message = messagePrivate
	case "group":
		env.message = messageGroup
	case "guild":
		env.message = messageGuild
	}

	return env, true
}

// ClassifierService determines the category and identity of raw payloads. It performs no I/O.
type ClassifierService struct{}

func NewClassifierService() *ClassifierService {
	return &ClassifierService{}
}

// Classify inspects msgCtx.Raw and, on success, records the identity and the extracted fields
// on msgCtx. Failures return a *core.UnknownIdentityError and leave msgCtx unclassified.
func (c *ClassifierService) Classify(msgCtx *models.MessageContext) (models.MessageIdentity, error) {
	env, ok := parseEnvelope(msgCtx.Raw)
	if !ok || env.postType == "" {
		return models.MessageIdentity{}, core.NewUnknownIdentity("")
	}

	var identity models.MessageIdentity
	switch env.kind {
	case kindNotice:
		identity = models.NoticeIdentity
	case kindMeta:
		identity = models.MetaIdentity
	case kindMessage:
		var err error
		identity, err = classifyMessage(env)
		if err != nil {
			return models.MessageIdentity{}, err
		}
	default:
		return models.MessageIdentity{}, core.NewUnknownIdentity(env.postType)
	}

	msgCtx.Parsed = env.root
	if identity.Category.IsConversational() {
		extractMessageFields(msgCtx, env.root)
	}
	msgCtx.SetIdentity(identity)
	return identity, nil
}

func classifyMessage(env envelope) (models.MessageIdentity, error) {
	switch env.message {
	case messagePrivate:
		userID, ok := idField(env.root, "user_id")
		if !ok {
			return models.MessageIdentity{}, core.NewUnknownIdentity("message.private.missing_id")
		}
		return models.NewPrivateIdentity(userID), nil

	case messageGroup:
		groupID, ok := idField(env.root, "group_id")
		if !ok {
			return models.MessageIdentity{}, core.NewUnknownIdentity("message.group.missing_id")
		}
		return models.NewChannelIdentity(groupID, mo.None[string]()), nil

	case messageGuild:
		guildID, ok := idField(env.root, "guild_id")
		if !ok {
			return models.MessageIdentity{}, core.NewUnknownIdentity("message.guild.missing_id")
		}
		channelID, hasChannel := idField(env.root, "channel_id")
		sub := mo.None[string]()
		if hasChannel {
			sub = mo.Some(channelID)
		}
		return models.NewChannelIdentity(guildID, sub), nil

	default:
		if env.messageType == "" {
			return models.MessageIdentity{}, core.NewUnknownIdentity("message.missing_subtype")
		}
		return models.MessageIdentity{}, core.NewUnknownIdentity("message." + env.messageType)
	}
}

func extractMessageFields(msgCtx *models.MessageContext, root gjson.Result) {
	if senderID, ok := idField(root, "user_id"); ok {
		msgCtx.SenderID = mo.Some(senderID)
	}
	if messageID, ok := idField(root, "message_id"); ok {
		msgCtx.VendorMessageID = mo.Some(messageID)
	}
	if ts := root.Get("time"); ts.Exists() && ts.Int() > 0 {
		msgCtx.Timestamp = mo.Some(time.Unix(ts.Int(), 0))
	}
	if text, ok := extractText(root); ok {
		msgCtx.Text = mo.Some(text)
	}
	if sender := root.Get("sender"); sender.IsObject() {
		msgCtx.Sender = mo.Some(models.SenderSnapshot{
			Nickname: optionalString(sender.Get("nickname")),
			Card:     optionalString(sender.Get("card")),
			Role:     optionalString(sender.Get("role")),
		})
	}
}

// extractText prefers raw_message; otherwise the message field as a plain string or as an
// array of segments, where text segments are concatenated and mentions kept as CQ codes.
func extractText(root gjson.Result) (string, bool) {
	if raw := root.Get("raw_message"); raw.Type == gjson.String && raw.String() != "" {
		return raw.String(), true
	}

	message := root.Get("message")
	switch {
	case message.Type == gjson.String:
		return message.String(), true
	case message.IsArray():
		var sb strings.Builder
		for _, segment := range message.Array() {
			switch segment.Get("type").String() {
			case "text":
				sb.WriteString(segment.Get("data.text").String())
			case "at":
				sb.WriteString("[CQ:at,qq=" + segment.Get("data.qq").String() + "]")
			}
		}
		return sb.String(), true
	}
	return "", false
}

// idField reads an id that vendors encode either as a JSON string or a JSON integer.
func idField(root gjson.Result, path string) (string, bool) {
	value := root.Get(path)
	if !value.Exists() || (value.Type != gjson.String && value.Type != gjson.Number) {
		return "", false
	}
	id := value.String()
	if id == "" || id == "0" {
		return "", false
	}
	return id, true
}

func optionalString(value gjson.Result) mo.Option[string] {
	if value.Type != gjson.String || value.String() == "" {
		return mo.None[string]()
	}
	return mo.Some(value.String())
}
