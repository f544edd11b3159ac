package models

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/samber/mo"
)

// MemberRole is a member's privilege level inside a channel.
type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"
	RoleOwner  MemberRole = "owner"
)

// ParseMemberRole maps a vendor role string to a MemberRole, defaulting to RoleMember.
func ParseMemberRole(s string) MemberRole {
	switch MemberRole(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleOwner:
		return RoleOwner
	default:
		return RoleMember
	}
}

// MemberInfo is an immutable snapshot of a member. Updates replace the whole value.
type MemberInfo struct {
	ChannelID    string
	UserID       string
	SubChannelID mo.Option[string]
	Card         mo.Option[string]
	Nickname     mo.Option[string]
	Role         MemberRole
	ResolvedAt   time.Time
}

// DisplayName prefers the channel card over the nickname, falling back to the user id.
func (m *MemberInfo) DisplayName() string {
	if card, ok := m.Card.Get(); ok && card != "" {
		return card
	}
	if nick, ok := m.Nickname.Get(); ok && nick != "" {
		return nick
	}
	return m.UserID
}

// ChannelInfo is a known channel, one entry per channel id. Sub-channels seen under the
// same id share the entry and its member directory. The name and the member directory are
// mutated in place under the entry's lock.
type ChannelInfo struct {
	ChannelID string

	mu           sync.RWMutex
	name         mo.Option[string]
	subChannelID mo.Option[string]
	subChannels  map[string]struct{}
	members      map[string]*MemberInfo
	refreshedAt  time.Time
}

func NewChannelInfo(channelID string, subChannelID mo.Option[string], name mo.Option[string]) *ChannelInfo {
	channel := &ChannelInfo{
		ChannelID:   channelID,
		name:        name,
		subChannels: make(map[string]struct{}),
		members:     make(map[string]*MemberInfo),
		refreshedAt: time.Now(),
	}
	channel.noteSubChannel(subChannelID)
	return channel
}

// SubChannelID is the sub-channel of the most recent resolution.
func (c *ChannelInfo) SubChannelID() mo.Option[string] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subChannelID
}

// SubChannels returns every sub-channel id resolved under this channel, sorted.
func (c *ChannelInfo) SubChannels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.subChannels))
}

// IsSubChannel reports whether the channel has been addressed through a sub-channel.
func (c *ChannelInfo) IsSubChannel() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subChannels) > 0
}

// caller holds c.mu or owns c exclusively
func (c *ChannelInfo) noteSubChannel(subChannelID mo.Option[string]) {
	c.subChannelID = subChannelID
	if sub, ok := subChannelID.Get(); ok {
		c.subChannels[sub] = struct{}{}
	}
}

func (c *ChannelInfo) Name() mo.Option[string] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// Refresh overwrites the mutable fields with freshly resolved values.
func (c *ChannelInfo) Refresh(subChannelID mo.Option[string], name mo.Option[string], at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
	c.noteSubChannel(subChannelID)
	c.refreshedAt = at
}

func (c *ChannelInfo) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}

// Member returns the cached member for userID.
func (c *ChannelInfo) Member(userID string) mo.Option[*MemberInfo] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.members[userID]; ok {
		return mo.Some(m)
	}
	return mo.None[*MemberInfo]()
}

// UpsertMember stores member, replacing any previous entry for the same user (last writer wins).
func (c *ChannelInfo) UpsertMember(member *MemberInfo) *MemberInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.members[member.UserID] = member
	return member
}

// Members returns the cached members ordered by user id.
func (c *ChannelInfo) Members() []*MemberInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(c.members))
	out := make([]*MemberInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.members[id])
	}
	return out
}

func (c *ChannelInfo) MemberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// PrivateInfo is a known one-to-one correspondent.
type PrivateInfo struct {
	UserID string

	mu          sync.RWMutex
	nickname    mo.Option[string]
	remark      mo.Option[string]
	refreshedAt time.Time
}

func NewPrivateInfo(userID string, nickname, remark mo.Option[string]) *PrivateInfo {
	return &PrivateInfo{
		UserID:      userID,
		nickname:    nickname,
		remark:      remark,
		refreshedAt: time.Now(),
	}
}

func (p *PrivateInfo) Nickname() mo.Option[string] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nickname
}

func (p *PrivateInfo) Remark() mo.Option[string] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.remark
}

func (p *PrivateInfo) Refresh(nickname, remark mo.Option[string], at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nickname = nickname
	p.remark = remark
	p.refreshedAt = at
}

func (p *PrivateInfo) RefreshedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refreshedAt
}
