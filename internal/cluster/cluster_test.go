package cluster

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublisher records every message published, without a live Redis
// connection.
type fakePublisher struct {
	channel string
	message []byte
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	switch m := message.(type) {
	case []byte:
		f.message = m
	case string:
		f.message = []byte(m)
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}

func TestPublisherPublishMarshalsStatusAndSetsNodeID(t *testing.T) {
	fp := &fakePublisher{}
	p := &Publisher{pub: fp, channel: "ledcore:cluster:status", nodeID: "pi-1"}

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), Status{
		Timestamp:     ts,
		TicksTotal:    42,
		OverrunsTotal: 1,
		GroupErrors:   map[string]string{"porch": "render deadline exceeded"},
		TimeSyncRole:  "master",
	})
	require.NoError(t, err)

	assert.Equal(t, "ledcore:cluster:status", fp.channel)

	var got Status
	require.NoError(t, json.Unmarshal(fp.message, &got))
	assert.Equal(t, "pi-1", got.NodeID)
	assert.Equal(t, int64(42), got.TicksTotal)
	assert.Equal(t, int64(1), got.OverrunsTotal)
	assert.Equal(t, "render deadline exceeded", got.GroupErrors["porch"])
	assert.Equal(t, "master", got.TimeSyncRole)
}

func TestNewPublisherFailsWithoutRedis(t *testing.T) {
	cfg := Config{Addr: "127.0.0.1:0"}
	_, err := NewPublisher(cfg)
	// No Redis is actually listening; NewPublisher must fail on Ping
	// rather than hang or panic.
	assert.Error(t, err)
}
