package adal

import (
	"context"
	"net/url"
)

// cacheOnlyParams never leave the process.
var cacheOnlyParams = []string{ParamUniqueID, ParamDisplayableID}

// TokenRequest gathers what a token acquisition needs to consult the cache
// and to build its form body. It performs no HTTP itself.
type TokenRequest struct {
	clientID string
	resource string
	cache    *TokenCache
}

func NewTokenRequest(clientID, resource string, cache *TokenCache) *TokenRequest {
	return &TokenRequest{
		clientID: clientID,
		resource: resource,
		cache:    cache,
	}
}

func (r *TokenRequest) CacheQuery(user *UserIdentifier) CacheQuery {
	return CacheQuery{
		ClientID: r.clientID,
		Resource: r.resource,
		User:     user,
	}
}

// CacheParams returns the cache lookup key as flat parameters.
func (r *TokenRequest) CacheParams(user *UserIdentifier) map[string]string {
	params := map[string]string{
		ParamClientID: r.clientID,
		ParamResource: r.resource,
	}
	if user != nil {
		for k, v := range user.RequestParams() {
			params[k] = v
		}
	}
	return params
}

// FormValues builds the token endpoint form. Lookup-only parameters such as
// unique_id are dropped.
func (r *TokenRequest) FormValues(params map[string]string) url.Values {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set(ParamClientID, r.clientID)
	if r.resource != "" {
		values.Set(ParamResource, r.resource)
	}
	for _, k := range cacheOnlyParams {
		values.Del(k)
	}
	return values
}

func (r *TokenRequest) FromCache(ctx context.Context, user *UserIdentifier) (*CachedToken, error) {
	return r.cache.FindOne(ctx, r.CacheQuery(user))
}
