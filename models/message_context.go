package models

import (
	"time"

	"github.com/samber/mo"
	"github.com/tidwall/gjson"

	"chatcore/utils"
)

// MessageContext is the per-message state of one dispatch run. It is created fresh for every
// inbound payload and must not be shared between runs.
type MessageContext struct {
	RunID      string
	Raw        []byte
	ReceivedAt time.Time

	// Filled by the classifier.
	Parsed          gjson.Result
	Text            mo.Option[string]
	SenderID        mo.Option[string]
	Sender          mo.Option[SenderSnapshot]
	Timestamp       mo.Option[time.Time]
	VendorMessageID mo.Option[string]

	// Filled by contact resolution.
	Channel mo.Option[*ChannelInfo]
	Member  mo.Option[*MemberInfo]
	Private mo.Option[*PrivateInfo]

	identity   MessageIdentity
	classified bool
}

// SenderSnapshot is the sender profile embedded in the payload itself.
type SenderSnapshot struct {
	Nickname mo.Option[string]
	Card     mo.Option[string]
	Role     mo.Option[string]
}

func NewMessageContext(runID string, raw []byte, receivedAt time.Time) *MessageContext {
	return &MessageContext{
		RunID:      runID,
		Raw:        raw,
		ReceivedAt: receivedAt,
	}
}

// SetIdentity records the classification result. It may be called only once per context.
func (c *MessageContext) SetIdentity(identity MessageIdentity) {
	utils.AssertInvariant(!c.classified, "message identity is already set")
	utils.AssertInvariant(identity.Category.IsValid(), "message identity has an invalid category")
	c.identity = identity
	c.classified = true
}

// Identity returns the classified identity, if classification has happened.
func (c *MessageContext) Identity() mo.Option[MessageIdentity] {
	if !c.classified {
		return mo.None[MessageIdentity]()
	}
	return mo.Some(c.identity)
}

// Category returns the classified category or the empty category before classification.
func (c *MessageContext) Category() MessageCategory {
	return c.identity.Category
}

// TextOrEmpty is a convenience for handlers that only care about textual messages.
func (c *MessageContext) TextOrEmpty() string {
	return c.Text.OrEmpty()
}
