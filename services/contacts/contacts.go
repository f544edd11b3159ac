package contacts

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/samber/mo"

	"chatcore/clients"
	"chatcore/core"
	"chatcore/core/log"
	"chatcore/models"
)

// ContactsService is a thread-safe directory of channels, channel members and private
// correspondents. Entries are never evicted. Every getOrAdd call resolves through the
// provider: a success overwrites the entry's mutable fields with last-writer-wins semantics,
// a failure serves the cached entry if there is one. Provider failures are never cached.
type ContactsService struct {
	provider        clients.ContactProvider
	refreshInterval time.Duration
	now             func() time.Time

	channelsMu sync.RWMutex
	channels   map[string]*models.ChannelInfo

	privatesMu sync.RWMutex
	privates   map[string]*models.PrivateInfo
}

// NewContactsService creates the cache. With a zero refreshInterval every call goes to the
// provider. A positive interval skips the provider for entries refreshed more recently than that.
func NewContactsService(provider clients.ContactProvider, refreshInterval time.Duration) *ContactsService {
	return &ContactsService{
		provider:        provider,
		refreshInterval: refreshInterval,
		now:             time.Now,
		channels:        make(map[string]*models.ChannelInfo),
		privates:        make(map[string]*models.PrivateInfo),
	}
}

func (s *ContactsService) GetOrAddChannel(
	ctx context.Context,
	channelID string,
	subChannelID mo.Option[string],
) (*models.ChannelInfo, error) {
	cached, hasCached := s.LookupChannel(channelID).Get()
	if hasCached && s.isFresh(cached.RefreshedAt()) && cached.SubChannelID() == subChannelID {
		return cached, nil
	}

	log.Debug("📋 Starting to resolve channel", "channel", channelID, "sub_channel", subChannelID.OrEmpty())
	dto, err := s.provider.FetchChannel(ctx, channelID, subChannelID)
	if err != nil || dto == nil {
		if hasCached {
			log.Warn("⚠️ Failed to refresh channel, serving cached entry", "channel", channelID, "error", err)
			return cached, nil
		}
		log.Warn("⚠️ Channel provider could not resolve channel", "channel", channelID, "error", err)
		return nil, fmt.Errorf("failed to resolve channel %s: %w", channelID, core.ErrContactNotFound)
	}

	channel := s.upsertChannel(channelID, subChannelID, dto.Name)
	log.Debug("📋 Completed successfully - resolved channel", "channel", channelID)
	return channel, nil
}

func (s *ContactsService) upsertChannel(
	channelID string,
	subChannelID mo.Option[string],
	name mo.Option[string],
) *models.ChannelInfo {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()

	if existing, ok := s.channels[channelID]; ok {
		existing.Refresh(subChannelID, name, s.now())
		return existing
	}

	channel := models.NewChannelInfo(channelID, subChannelID, name)
	channel.Refresh(subChannelID, name, s.now())
	s.channels[channelID] = channel
	return channel
}

func (s *ContactsService) GetOrAddMember(
	ctx context.Context,
	channelID, userID string,
	subChannelID mo.Option[string],
) (*models.MemberInfo, error) {
	channel, err := s.GetOrAddChannel(ctx, channelID, subChannelID)
	if err != nil {
		return nil, err
	}

	cached, hasCached := channel.Member(userID).Get()
	if hasCached && s.isFresh(cached.ResolvedAt) {
		return cached, nil
	}

	log.Debug("📋 Starting to resolve member", "channel", channelID, "user", userID)
	dto, err := s.provider.FetchMember(ctx, channelID, userID, subChannelID)
	if err != nil || dto == nil {
		if hasCached {
			log.Warn("⚠️ Failed to refresh member, serving cached entry", "channel", channelID, "user", userID, "error", err)
			return cached, nil
		}
		log.Warn("⚠️ Member provider could not resolve member", "channel", channelID, "user", userID, "error", err)
		return nil, fmt.Errorf("failed to resolve member %s in channel %s: %w", userID, channelID, core.ErrContactNotFound)
	}

	role := dto.Role
	if role == "" {
		role = models.RoleMember
	}
	member := channel.UpsertMember(&models.MemberInfo{
		ChannelID:    channelID,
		UserID:       userID,
		SubChannelID: subChannelID,
		Card:         dto.Card,
		Nickname:     dto.Nickname,
		Role:         role,
		ResolvedAt:   s.now(),
	})
	log.Debug("📋 Completed successfully - resolved member", "channel", channelID, "user", userID, "role", role)
	return member, nil
}

func (s *ContactsService) GetOrAddPrivate(ctx context.Context, userID string) (*models.PrivateInfo, error) {
	cached, hasCached := s.LookupPrivate(userID).Get()
	if hasCached && s.isFresh(cached.RefreshedAt()) {
		return cached, nil
	}

	log.Debug("📋 Starting to resolve private contact", "user", userID)
	dto, err := s.provider.FetchPrivate(ctx, userID)
	if err != nil || dto == nil {
		if hasCached {
			log.Warn("⚠️ Failed to refresh private contact, serving cached entry", "user", userID, "error", err)
			return cached, nil
		}
		log.Warn("⚠️ Private provider could not resolve user", "user", userID, "error", err)
		return nil, fmt.Errorf("failed to resolve private contact %s: %w", userID, core.ErrContactNotFound)
	}

	s.privatesMu.Lock()
	defer s.privatesMu.Unlock()
	if existing, ok := s.privates[userID]; ok {
		existing.Refresh(dto.Nickname, dto.Remark, s.now())
		return existing, nil
	}
	private := models.NewPrivateInfo(userID, dto.Nickname, dto.Remark)
	private.Refresh(dto.Nickname, dto.Remark, s.now())
	s.privates[userID] = private
	return private, nil
}

// LookupChannel reads the directory without calling the provider.
func (s *ContactsService) LookupChannel(channelID string) mo.Option[*models.ChannelInfo] {
	s.channelsMu.RLock()
	defer s.channelsMu.RUnlock()
	if channel, ok := s.channels[channelID]; ok {
		return mo.Some(channel)
	}
	return mo.None[*models.ChannelInfo]()
}

// LookupPrivate reads the directory without calling the provider.
func (s *ContactsService) LookupPrivate(userID string) mo.Option[*models.PrivateInfo] {
	s.privatesMu.RLock()
	defer s.privatesMu.RUnlock()
	if private, ok := s.privates[userID]; ok {
		return mo.Some(private)
	}
	return mo.None[*models.PrivateInfo]()
}

// Channels returns every cached channel ordered by channel id.
func (s *ContactsService) Channels() []*models.ChannelInfo {
	s.channelsMu.RLock()
	defer s.channelsMu.RUnlock()
	ids := slices.Sorted(maps.Keys(s.channels))
	out := make([]*models.ChannelInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.channels[id])
	}
	return out
}

// Privates returns every cached private correspondent ordered by user id.
func (s *ContactsService) Privates() []*models.PrivateInfo {
	s.privatesMu.RLock()
	defer s.privatesMu.RUnlock()
	ids := slices.Sorted(maps.Keys(s.privates))
	out := make([]*models.PrivateInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.privates[id])
	}
	return out
}

func (s *ContactsService) isFresh(refreshedAt time.Time) bool {
	return s.refreshInterval > 0 && s.now().Sub(refreshedAt) < s.refreshInterval
}
