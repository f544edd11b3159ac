package clients

import (
	"github.com/samber/mo"

	"chatcore/models"
)

// ChannelInfoDTO is what a provider returns for a channel lookup
type ChannelInfoDTO struct {
	ChannelID    string
	SubChannelID mo.Option[string]
	Name         mo.Option[string]
}

// MemberInfoDTO is what a provider returns for a member lookup
type MemberInfoDTO struct {
	ChannelID    string
	UserID       string
	SubChannelID mo.Option[string]
	Card         mo.Option[string]
	Nickname     mo.Option[string]
	Role         models.MemberRole
}

// PrivateInfoDTO is what a provider returns for a private correspondent lookup
type PrivateInfoDTO struct {
	UserID   string
	Nickname mo.Option[string]
	Remark   mo.Option[string]
}

// OptionalString maps an empty vendor string to None.
func OptionalString(s string) mo.Option[string] {
	if s == "" {
		return mo.None[string]()
	}
	return mo.Some(s)
}
