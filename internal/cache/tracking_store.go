package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TrackingCookie is the attribution payload stored per cookie id
type TrackingCookie struct {
	AffiliateID  uint      `json:"affiliate_id"`
	ReferralCode string    `json:"referral_code"`
	Timestamp    time.Time `json:"timestamp"`
}

// Connect opens a redis client for the tracking store
func Connect(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// TrackingStore keeps short-lived attribution cookies in redis. Entries expire
// after the configured TTL so stale clicks never attribute a signup.
type TrackingStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTrackingStore creates a store whose entries live for ttlDays
func NewTrackingStore(client *redis.Client, ttlDays int) *TrackingStore {
	return &TrackingStore{
		client: client,
		ttl:    time.Duration(ttlDays) * 24 * time.Hour,
	}
}

func (s *TrackingStore) key(cookieID string) string {
	return "tracking:" + cookieID
}

// Set stores the attribution payload under the cookie id
func (s *TrackingStore) Set(ctx context.Context, cookieID string, data TrackingCookie) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal tracking cookie: %w", err)
	}
	return s.client.Set(ctx, s.key(cookieID), payload, s.ttl).Err()
}

// Get returns the payload for a cookie id, or nil when expired or unknown
func (s *TrackingStore) Get(ctx context.Context, cookieID string) (*TrackingCookie, error) {
	raw, err := s.client.Get(ctx, s.key(cookieID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var data TrackingCookie
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("unmarshal tracking cookie: %w", err)
	}
	return &data, nil
}

// Delete removes a cookie after the attribution is consumed
func (s *TrackingStore) Delete(ctx context.Context, cookieID string) error {
	return s.client.Del(ctx, s.key(cookieID)).Err()
}
