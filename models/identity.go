package models

import (
	"fmt"

	"github.com/samber/mo"
)

// MessageCategory is the classification of an inbound message.
type MessageCategory string

const (
	CategoryPrivate MessageCategory = "private"
	CategoryChannel MessageCategory = "channel"
	CategoryNotice  MessageCategory = "notice"
	CategoryMeta    MessageCategory = "meta"
)

// AllCategories lists every category in a stable order.
var AllCategories = []MessageCategory{CategoryPrivate, CategoryChannel, CategoryNotice, CategoryMeta}

func (c MessageCategory) IsValid() bool {
	switch c {
	case CategoryPrivate, CategoryChannel, CategoryNotice, CategoryMeta:
		return true
	}
	return false
}

// IsConversational reports whether messages of this category carry a contact identity
// that must be resolved before dispatch.
func (c MessageCategory) IsConversational() bool {
	return c == CategoryPrivate || c == CategoryChannel
}

// MessageIdentity identifies who or where a message belongs to. Compare with ==.
type MessageIdentity struct {
	PrimaryID string
	SubID     mo.Option[string]
	Category  MessageCategory
}

var (
	// NoticeIdentity is the sentinel identity for platform notices and requests.
	NoticeIdentity = MessageIdentity{Category: CategoryNotice}
	// MetaIdentity is the sentinel identity for lifecycle and heartbeat events.
	MetaIdentity = MessageIdentity{Category: CategoryMeta}
)

func NewPrivateIdentity(userID string) MessageIdentity {
	return MessageIdentity{PrimaryID: userID, Category: CategoryPrivate}
}

func NewChannelIdentity(channelID string, subChannelID mo.Option[string]) MessageIdentity {
	return MessageIdentity{PrimaryID: channelID, SubID: subChannelID, Category: CategoryChannel}
}

func (i MessageIdentity) String() string {
	switch i.Category {
	case CategoryPrivate:
		return fmt.Sprintf("private:%s", i.PrimaryID)
	case CategoryChannel:
		if sub, ok := i.SubID.Get(); ok {
			return fmt.Sprintf("channel:%s/%s", i.PrimaryID, sub)
		}
		return fmt.Sprintf("channel:%s", i.PrimaryID)
	default:
		return string(i.Category)
	}
}
