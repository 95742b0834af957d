// Package publish announces persisted snapshots on a Redis stream.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verte-zerg/nbtscore/internal/model"
)

// DefaultStream is used when no stream name is configured.
const DefaultStream = "scoreboard.snapshots"

type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Publisher appends snapshot announcements to one stream.
type Publisher struct {
	client streamClient
	stream string
}

// New connects to the Redis server at redisURL and checks it responds.
func New(ctx context.Context, redisURL, stream string) (*Publisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			// Best-effort close after a failed ping.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return newPublisher(client, stream), nil
}

func newPublisher(client streamClient, stream string) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{client: client, stream: stream}
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Stream returns the stream entries are appended to.
func (p *Publisher) Stream() string {
	return p.stream
}

// Announcement is the JSON body of one stream entry.
type Announcement struct {
	Timestamp    time.Time `json:"timestamp"`
	Objectives   int       `json:"objectives"`
	Players      int       `json:"players"`
	Observations int       `json:"observations"`
}

// Summarize describes a snapshot persisted at ts.
func Summarize(st *model.Stats, ts time.Time) Announcement {
	return Announcement{
		Timestamp:    ts.UTC(),
		Objectives:   st.ObjectiveCount(),
		Players:      len(st.Players()),
		Observations: st.ScoreCount(),
	}
}

// Announce appends one entry and returns its stream id.
func (p *Publisher) Announce(ctx context.Context, a Announcement) (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": a.Timestamp.Unix(),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to append to stream %s: %w", p.stream, err)
	}
	return id, nil
}
