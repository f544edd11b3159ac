package models

import (
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageIdentity(t *testing.T) {
	assert.Equal(t, "private:u1", NewPrivateIdentity("u1").String())
	assert.Equal(t, "channel:g1", NewChannelIdentity("g1", mo.None[string]()).String())
	assert.Equal(t, "channel:g1/c9", NewChannelIdentity("g1", mo.Some("c9")).String())
	assert.Equal(t, "notice", NoticeIdentity.String())
	assert.Equal(t, "meta", MetaIdentity.String())

	assert.Equal(t, NewChannelIdentity("g1", mo.Some("c9")), NewChannelIdentity("g1", mo.Some("c9")))
	assert.NotEqual(t, NewChannelIdentity("g1", mo.Some("c9")), NewChannelIdentity("g1", mo.None[string]()))
}

func TestMessageCategory(t *testing.T) {
	for _, category := range AllCategories {
		assert.True(t, category.IsValid(), category)
	}
	assert.False(t, MessageCategory("").IsValid())
	assert.False(t, MessageCategory("group").IsValid())

	assert.True(t, CategoryPrivate.IsConversational())
	assert.True(t, CategoryChannel.IsConversational())
	assert.False(t, CategoryNotice.IsConversational())
	assert.False(t, CategoryMeta.IsConversational())
}

func TestMessageContext_Identity(t *testing.T) {
	msgCtx := NewMessageContext("run_1", []byte(`{}`), time.Now())
	assert.True(t, msgCtx.Identity().IsAbsent())
	assert.Equal(t, MessageCategory(""), msgCtx.Category())
	assert.Equal(t, "", msgCtx.TextOrEmpty())

	msgCtx.SetIdentity(NewPrivateIdentity("u1"))
	assert.Equal(t, mo.Some(NewPrivateIdentity("u1")), msgCtx.Identity())
	assert.Equal(t, CategoryPrivate, msgCtx.Category())

	assert.Panics(t, func() { msgCtx.SetIdentity(MetaIdentity) })
	assert.Panics(t, func() {
		NewMessageContext("run_2", nil, time.Now()).SetIdentity(MessageIdentity{Category: "bogus"})
	})
}

func TestParseMemberRole(t *testing.T) {
	assert.Equal(t, RoleOwner, ParseMemberRole("owner"))
	assert.Equal(t, RoleAdmin, ParseMemberRole("admin"))
	assert.Equal(t, RoleMember, ParseMemberRole("member"))
	assert.Equal(t, RoleMember, ParseMemberRole(""))
	assert.Equal(t, RoleMember, ParseMemberRole("moderator"))
}

func TestMemberInfo_DisplayName(t *testing.T) {
	member := &MemberInfo{UserID: "u1", Card: mo.Some("Card"), Nickname: mo.Some("Nick")}
	assert.Equal(t, "Card", member.DisplayName())

	member.Card = mo.Some("")
	assert.Equal(t, "Nick", member.DisplayName())

	member.Nickname = mo.None[string]()
	assert.Equal(t, "u1", member.DisplayName())
}

func TestChannelInfo(t *testing.T) {
	channel := NewChannelInfo("g1", mo.Some("c9"), mo.Some("General"))

	assert.Equal(t, "g1", channel.ChannelID)
	assert.Equal(t, mo.Some("c9"), channel.SubChannelID())
	assert.True(t, channel.IsSubChannel())
	assert.Equal(t, mo.Some("General"), channel.Name())

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	channel.Refresh(mo.Some("c1"), mo.Some("Renamed"), at)
	assert.Equal(t, mo.Some("Renamed"), channel.Name())
	assert.Equal(t, mo.Some("c1"), channel.SubChannelID())
	assert.Equal(t, []string{"c1", "c9"}, channel.SubChannels())
	assert.Equal(t, at, channel.RefreshedAt())

	channel.Refresh(mo.None[string](), mo.Some("Renamed"), at)
	assert.True(t, channel.SubChannelID().IsAbsent())
	assert.Equal(t, []string{"c1", "c9"}, channel.SubChannels())

	assert.True(t, channel.Member("u1").IsAbsent())
	first := channel.UpsertMember(&MemberInfo{ChannelID: "g1", UserID: "u2", Role: RoleMember})
	channel.UpsertMember(&MemberInfo{ChannelID: "g1", UserID: "u1", Role: RoleAdmin})
	second := channel.UpsertMember(&MemberInfo{ChannelID: "g1", UserID: "u2", Role: RoleOwner})

	require.NotSame(t, first, second)
	assert.Equal(t, 2, channel.MemberCount())
	got, ok := channel.Member("u2").Get()
	require.True(t, ok)
	assert.Equal(t, RoleOwner, got.Role)

	members := channel.Members()
	require.Len(t, members, 2)
	assert.Equal(t, "u1", members[0].UserID)
	assert.Equal(t, "u2", members[1].UserID)
}

func TestChannelInfo_ConcurrentUpserts(t *testing.T) {
	channel := NewChannelInfo("g1", mo.None[string](), mo.None[string]())

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			channel.UpsertMember(&MemberInfo{ChannelID: "g1", UserID: "u", Role: RoleMember, ResolvedAt: time.Unix(int64(i), 0)})
			_ = channel.Members()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, channel.MemberCount())
}

func TestPrivateInfo(t *testing.T) {
	private := NewPrivateInfo("u1", mo.Some("gopher"), mo.None[string]())
	assert.Equal(t, mo.Some("gopher"), private.Nickname())
	assert.True(t, private.Remark().IsAbsent())

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	private.Refresh(mo.Some("gopher2"), mo.Some("friend"), at)
	assert.Equal(t, mo.Some("gopher2"), private.Nickname())
	assert.Equal(t, mo.Some("friend"), private.Remark())
	assert.Equal(t, at, private.RefreshedAt())
}
