// Package cluster implements the optional cluster status fan-out of
// SPEC_FULL.md §5 "Cluster status": a compact JSON snapshot (tick
// counters, overrun counter, per-group last error, TimeSync role)
// published to a Redis pub/sub channel so a fleet of cooperating nodes
// can be observed from one place. It never participates in frame
// production or animation timing and is safe to disable: cmd/ledcore
// only constructs a Publisher when a Redis address is configured.
package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the cluster status Publisher.
type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	NodeID   string
}

// Status is one node's published snapshot.
type Status struct {
	NodeID        string            `json:"node_id"`
	Timestamp     time.Time         `json:"timestamp"`
	TicksTotal    int64             `json:"ticks_total"`
	OverrunsTotal int64             `json:"overruns_total"`
	GroupErrors   map[string]string `json:"group_errors,omitempty"`
	TimeSyncRole  string            `json:"timesync_role"`
}

// publisher is the subset of *redis.Client this package depends on, so
// tests can substitute a fake without a live Redis connection.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher publishes Status snapshots to a configured Redis channel.
type Publisher struct {
	client  *redis.Client
	pub     publisher
	channel string
	nodeID  string
}

// NewPublisher dials Redis and verifies connectivity, mirroring the
// teacher's connect-then-ping pattern for its Redis-backed storage.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.Channel == "" {
		cfg.Channel = "ledcore:cluster:status"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cluster: connect to redis: %w", err)
	}

	return &Publisher{client: client, pub: client, channel: cfg.Channel, nodeID: cfg.NodeID}, nil
}

// Publish marshals status to JSON and publishes it on the configured
// channel. Publish failures are reported, never panicked: cluster status
// is strictly observability fan-out (SPEC_FULL.md §5), not load-bearing
// for rendering.
func (p *Publisher) Publish(ctx context.Context, status Status) error {
	status.NodeID = p.nodeID
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("cluster: marshal status: %w", err)
	}
	if err := p.pub.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("cluster: publish status: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
