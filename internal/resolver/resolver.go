// Package resolver turns fan-out targets into concrete recipients: a group
// id into its member user ids, and user ids into registered push tokens.
// Both paths read through the shared cache pools.
package resolver

import (
	"context"

	"github.com/matchday-app/notify-api/internal/cache"
	"github.com/matchday-app/notify-api/internal/domain"
)

type memberStore interface {
	ListByGroup(ctx context.Context, groupID string) ([]domain.GroupMember, error)
}

type tokenStore interface {
	GetMany(ctx context.Context, userIDs []string) ([]domain.TokenSet, error)
}

type Resolver struct {
	members     memberStore
	tokens      tokenStore
	memberCache *cache.Cache[[]string]
	tokenCache  *cache.Cache[[]string]
}

func New(members memberStore, tokens tokenStore, memberCache, tokenCache *cache.Cache[[]string]) *Resolver {
	return &Resolver{
		members:     members,
		tokens:      tokens,
		memberCache: memberCache,
		tokenCache:  tokenCache,
	}
}

// GroupMembers resolves a group to its member user ids, cache-first. A store
// failure propagates untouched: the fan-out for that event aborts rather
// than proceed with partial membership.
func (r *Resolver) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	if ids, ok := r.memberCache.Get(groupID); ok {
		return ids, nil
	}
	members, err := r.members.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m.UserID == "" {
			continue
		}
		ids = append(ids, m.UserID)
	}
	r.memberCache.Set(groupID, ids)
	return ids, nil
}

// UserTokens resolves the given users' push tokens, cache-first per user.
// Users with no token document are cached as an explicit empty list so
// repeated fan-outs don't re-query them. Used by the token-centric dispatch
// strategy only.
func (r *Resolver) UserTokens(ctx context.Context, userIDs []string) ([]string, error) {
	var all []string
	var missing []string
	for _, uid := range userIDs {
		if tokens, ok := r.tokenCache.Get(uid); ok {
			all = append(all, tokens...)
			continue
		}
		missing = append(missing, uid)
	}
	if len(missing) == 0 {
		return all, nil
	}

	sets, err := r.tokens.GetMany(ctx, missing)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string][]string, len(sets))
	for _, s := range sets {
		byUser[s.UserID] = s.Tokens
	}
	for _, uid := range missing {
		tokens := byUser[uid] // nil for users with no document
		if tokens == nil {
			tokens = []string{}
		}
		r.tokenCache.Set(uid, tokens)
		all = append(all, tokens...)
	}
	return all, nil
}
