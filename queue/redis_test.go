package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-backend/logger"
	"newsletter-backend/models"
)

func newTestQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient("redis://" + mr.Addr())
	require.NoError(t, err)
	q := NewRedisQueue(client, "", logger.Discard())
	t.Cleanup(func() { _ = q.Shutdown(context.Background()) })
	return q, mr
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient("not a url")
	assert.Error(t, err)
}

func TestRedisQueue_SubmitDequeueFIFO(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	require.NoError(t, q.Ping(ctx))

	first := models.NewRunJob("run-1", models.RunRequest{Topics: []string{"ai"}, RSSFeeds: []string{"https://feed.example/rss"}, WindowHours: 12})
	second := models.NewRunJob("run-2", models.RunRequest{})
	require.NoError(t, q.Submit(ctx, first))
	require.NoError(t, q.Submit(ctx, second))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first, *got)

	got, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "run-2", got.RunID)
	assert.Equal(t, "news", got.HeroQuery)
}

func TestRedisQueue_DequeueTimeout(t *testing.T) {
	q, _ := newTestQueue(t)

	got, err := q.Dequeue(context.Background(), time.Second)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisQueue_DequeueBadPayload(t *testing.T) {
	q, mr := newTestQueue(t)
	_, err := mr.Lpush(DefaultQueueKey, "{not json")
	require.NoError(t, err)

	_, err = q.Dequeue(context.Background(), time.Second)

	assert.ErrorContains(t, err, "decode job")
}

func TestWorker_DrainsQueue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Submit(ctx, models.RunJob{RunID: id}))
	}
	runner := &recordingRunner{fail: map[string]string{"b": "panic"}}
	w := NewWorker(q, runner, 2, logger.Discard())
	w.pollTimeout = time.Second

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runner.count() == 3 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, runner.ran)

	n, err := q.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisQueue_SubmitWhenServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	q := NewRedisQueue(client, "jobs", logger.Discard())
	mr.Close()

	err := q.Submit(context.Background(), models.RunJob{RunID: "x"})

	assert.ErrorContains(t, err, "enqueue run x")
}
