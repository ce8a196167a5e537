package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
)

// RedisClient is the part of *redis.Client the sink uses.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Event is what gets published on the channel.
type Event struct {
	Type     string                 `json:"type"`
	Progress *orchestrator.Progress `json:"progress,omitempty"`
	Summary  *orchestrator.Summary  `json:"summary,omitempty"`
}

// RedisSink publishes every snapshot on Channel and keeps the latest one
// under Channel+":last" for late readers.
type RedisSink struct {
	client  RedisClient
	Channel string
	TTL     time.Duration
	Timeout time.Duration
	lg      *log.Logger
}

func NewRedisSink(url, channel string, lg *log.Logger) (*RedisSink, *redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opt)
	return NewRedisSinkWithClient(client, channel, lg), client, nil
}

func NewRedisSinkWithClient(c RedisClient, channel string, lg *log.Logger) *RedisSink {
	if channel == "" {
		channel = "hostel-datahub:progress"
	}
	return &RedisSink{
		client:  c,
		Channel: channel,
		TTL:     24 * time.Hour,
		Timeout: 2 * time.Second,
		lg:      lg,
	}
}

func (s *RedisSink) OnProgress(p orchestrator.Progress) {
	s.publish(Event{Type: "progress", Progress: &p})
}

func (s *RedisSink) OnSummary(sum orchestrator.Summary) {
	s.publish(Event{Type: "summary", Summary: &sum})
}

func (s *RedisSink) publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.warn("marshal", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	if err := s.client.Publish(ctx, s.Channel, payload).Err(); err != nil {
		s.warn("publish", err)
	}
	if err := s.client.Set(ctx, s.Channel+":last", payload, s.TTL).Err(); err != nil {
		s.warn("set", err)
	}
}

func (s *RedisSink) warn(op string, err error) {
	if s.lg != nil {
		s.lg.Printf("⚠️ redis: %s failed: %v", op, err)
	}
}
