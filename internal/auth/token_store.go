package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"digithesis/internal/cache"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	accessTokenKeyPrefix  = "blacklist:access_token:"
	roleChangedKeyPrefix  = "role_changed:"
)

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (uuid.UUID, error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
	MarkRoleChanged(ctx context.Context, userID uuid.UUID, ttl time.Duration) error
	RoleChangedAfter(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// TokenStore handles storage and retrieval of tokens in Redis.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

type refreshRecord struct {
	UserID uuid.UUID `json:"user_id"`
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error {
	payload, err := json.Marshal(refreshRecord{UserID: userID})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken returns the user a stored refresh token belongs to.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uuid.UUID, error) {
	var rec refreshRecord
	if !s.cache.GetJSON(ctx, refreshTokenKeyPrefix+tokenID, &rec) || rec.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("refresh token not found")
	}
	return rec.UserID, nil
}

// DeleteRefreshToken removes a refresh token from Redis. Unlike plain cache
// writes, a Redis failure is returned.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.DeleteStrict(ctx, refreshTokenKeyPrefix+tokenID)
}

// BlacklistAccessToken adds an access token to the blacklist until it expires.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.SetStrict(ctx, accessTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsAccessTokenBlacklisted checks if an access token is blacklisted.
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	data, _ := s.cache.Get(ctx, accessTokenKeyPrefix+tokenID)
	return data != nil, nil
}

// MarkRoleChanged records that the user's role changed now. Until ttl
// elapses, access tokens issued in an earlier second are rejected.
func (s *TokenStore) MarkRoleChanged(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	stamp := strconv.FormatInt(time.Now().Unix(), 10)
	return s.cache.SetStrict(ctx, roleChangedKeyPrefix+userID.String(), []byte(stamp), ttl)
}

// RoleChangedAfter reports whether the user's role changed after issuedAt.
func (s *TokenStore) RoleChangedAfter(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	data, _ := s.cache.Get(ctx, roleChangedKeyPrefix+userID)
	return changedAfter(data, issuedAt), nil
}

// changedAfter compares at second precision, the resolution of JWT iat.
func changedAfter(stamp []byte, issuedAt time.Time) bool {
	if stamp == nil {
		return false
	}
	changed, err := strconv.ParseInt(string(stamp), 10, 64)
	if err != nil {
		return false
	}
	return issuedAt.Unix() < changed
}
