package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	UserKeyPrefix          = "user:%d"
	PlacesSearchKeyPrefix  = "places:search:%s"
	PlacesDetailsKeyPrefix = "places:details:%s"
	RevokedTokenKeyPrefix  = "auth:revoked:%s"
	WSTicketKeyPrefix      = "ws:ticket:%s"
	RateLimitKeyPrefix     = "rl:%s:%s"
)

const (
	UserTTL          = 5 * time.Minute
	PlacesSearchTTL  = 10 * time.Minute
	PlacesDetailsTTL = time.Hour
	WSTicketTTL      = 60 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// PlacesSearchKey hashes the normalized query parts so arbitrary user input
// never lands in a key verbatim.
func PlacesSearchKey(parts ...string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.Join(parts, "|"))))
	return fmt.Sprintf(PlacesSearchKeyPrefix, hex.EncodeToString(h[:16]))
}

func PlacesDetailsKey(placeID string) string {
	return fmt.Sprintf(PlacesDetailsKeyPrefix, placeID)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenKeyPrefix, jti)
}

func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketKeyPrefix, ticket)
}

// RateLimitKey scopes a counter to a named budget and a caller.
func RateLimitKey(resource, caller string) string {
	return fmt.Sprintf(RateLimitKeyPrefix, resource, caller)
}
