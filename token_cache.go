package adal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func newEntryID() string { return uuid.New().String() }

// CachedToken is one token response kept in the cache.
type CachedToken struct {
	ID           string           `json:"id"`
	ClientID     string           `json:"client_id"`
	Resource     string           `json:"resource"`
	TokenType    string           `json:"token_type,omitempty"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	ExpiresOn    time.Time        `json:"expires_on"`
	UserInfo     *UserInformation `json:"user_info,omitempty"`
}

// CacheQuery selects cached tokens. An empty Resource matches every
// resource and a nil User matches every user.
type CacheQuery struct {
	ClientID string
	Resource string
	User     *UserIdentifier
}

func (q CacheQuery) Matches(token *CachedToken) bool {
	if token == nil || token.ClientID != q.ClientID {
		return false
	}
	if q.Resource != "" && token.Resource != q.Resource {
		return false
	}
	if q.User == nil {
		return true
	}
	return q.User.Equals(token.UserInfo)
}

type TokenCache struct {
	opts options
}

func NewTokenCache(opts ...Option) *TokenCache {
	o := apply(opts)
	return &TokenCache{
		opts: *o,
	}
}

// Add stores a token and returns its entry id. The entry lives until the
// token's ExpiresOn, or for the default expiry when none is set.
func (c *TokenCache) Add(ctx context.Context, token *CachedToken) (string, error) {
	if token == nil {
		return "", errors.Wrap(ErrInvalidArgument, "token is nil")
	}
	expiresIn := c.opts.defaultExpire
	if !token.ExpiresOn.IsZero() {
		expiresIn = time.Until(token.ExpiresOn)
	}
	if expiresIn <= 0 {
		return "", errors.Wrap(ErrInvalidArgument, "token already expired")
	}

	entry := *token
	entry.ID = newEntryID()
	saveValue, err := json.Marshal(&entry)
	if err != nil {
		return "", errors.Wrap(err, "encode cache entry")
	}
	err = c.opts.backend.saveEntry(ctx, entry.ClientID, entry.ID, saveValue, expiresIn)
	if err != nil {
		return "", errors.Wrap(errorWrap(err), "save cache entry")
	}
	c.opts.logger.DebugContext(ctx, "token cached",
		"entry_id", entry.ID,
		"client_id", entry.ClientID,
		"resource", entry.Resource,
		"expires_in", expiresIn,
	)
	return entry.ID, nil
}

func (c *TokenCache) Find(ctx context.Context, q CacheQuery) ([]*CachedToken, error) {
	entries, err := c.opts.backend.loadEntries(ctx, q.ClientID)
	if err != nil {
		return nil, errors.Wrap(errorWrap(err), "load cache entries")
	}
	tokens := make([]*CachedToken, 0)
	for _, e := range entries {
		token := &CachedToken{}
		if err := json.Unmarshal(e.Data, token); err != nil {
			c.opts.logger.WarnContext(ctx, "skipping undecodable cache entry",
				"entry_id", e.ID,
				"error", err,
			)
			continue
		}
		token.ID = e.ID
		if q.Matches(token) {
			tokens = append(tokens, token)
		}
	}
	c.opts.logger.DebugContext(ctx, "token cache lookup",
		"client_id", q.ClientID,
		"resource", q.Resource,
		"matches", len(tokens),
	)
	return tokens, nil
}

// FindOne returns the single token matching q. Several matches usually
// mean the query names no user while more than one user is cached.
func (c *TokenCache) FindOne(ctx context.Context, q CacheQuery) (*CachedToken, error) {
	tokens, err := c.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	switch len(tokens) {
	case 0:
		return nil, ErrTokenNotFound
	case 1:
		return tokens[0], nil
	default:
		return nil, errors.Wrapf(ErrMultipleTokens, "%d tokens for client %q", len(tokens), q.ClientID)
	}
}

// Remove deletes every token matching q and returns how many were removed.
func (c *TokenCache) Remove(ctx context.Context, q CacheQuery) (int, error) {
	tokens, err := c.Find(ctx, q)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, nil
	}
	ids := make([]string, len(tokens))
	for i, t := range tokens {
		ids[i] = t.ID
	}
	if err := c.opts.backend.deleteEntries(ctx, q.ClientID, ids...); err != nil {
		return 0, errors.Wrap(errorWrap(err), "delete cache entries")
	}
	c.opts.logger.DebugContext(ctx, "tokens removed",
		"client_id", q.ClientID,
		"count", len(ids),
	)
	return len(ids), nil
}
