package tinybeans

import (
	"context"
	"net/http"
	"net/url"

	cache "github.com/patrickmn/go-cache"
)

// followingsCacheKey is the cache key for the followings list
const followingsCacheKey = "followings"

// GetFollowings retrieves the journals the authenticated account follows.
// Results are cached for the configured TTL, the follow list changes
// rarely compared to how often commands consult it.
func (c *Client) GetFollowings(ctx context.Context) ([]Following, error) {
	// Check cache first
	if cached, found := c.cache.Get(followingsCacheKey); found {
		if followings, ok := cached.([]Following); ok {
			c.metrics.mu.Lock()
			c.metrics.cacheHits++
			c.metrics.mu.Unlock()

			logger.Debug("Followings cache hit",
				"cache_key", followingsCacheKey,
				"followings", len(followings))
			return followings, nil
		}
	}

	// Cache miss
	c.metrics.mu.Lock()
	c.metrics.cacheMisses++
	c.metrics.mu.Unlock()

	// Apply timeout to API request
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	query := url.Values{}
	query.Set("clientId", ClientID)

	var result followingsResponse
	if err := c.doRequest(reqCtx, http.MethodGet, "followings", query, nil, &result); err != nil {
		return nil, err
	}

	// Cache the result
	c.cache.Set(followingsCacheKey, result.Followings, cache.DefaultExpiration)

	logger.Debug("Followings cached",
		"cache_key", followingsCacheKey,
		"followings", len(result.Followings))

	return result.Followings, nil
}

// Children returns every child across all followed journals, in the
// order the API lists the followings.
func (c *Client) Children(ctx context.Context) ([]Child, error) {
	followings, err := c.GetFollowings(ctx)
	if err != nil {
		return nil, err
	}

	var children []Child
	for i := range followings {
		children = append(children, followings[i].Journal.Children...)
	}

	return children, nil
}
