package bootstrap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-backend/config"
	"newsletter-backend/logger"
	"newsletter-backend/models"
	"newsletter-backend/queue"
)

func baseConfig() config.Config {
	return config.Config{
		MongoDatabase:      "newsletter",
		FirecrawlServerURL: "https://api.firecrawl.dev",
		OpenRouterBaseURL:  "https://openrouter.ai/api/v1",
		MailjetBaseURL:     "https://api.mailjet.com/v3/REST",
		MJMLBinary:         "mjml",
		WindowHours:        72,
		MaxSections:        5,
		WorkerConcurrency:  1,
		HTTPConnectTimeout: time.Second,
		HTTPReadTimeout:    time.Second,
		LLMTimeout:         time.Second,
		ImageTimeout:       time.Second,
		RenderTimeout:      time.Second,
	}
}

func TestNew_MemoryFallbackAndLocalDispatcher(t *testing.T) {
	app, err := New(context.Background(), baseConfig(), logger.Discard())
	require.NoError(t, err)

	assert.Equal(t, "memory", app.Store.Backend())
	assert.NotNil(t, app.Pipeline)
	assert.Nil(t, app.Queue)

	d := app.Dispatcher()
	_, local := d.(*queue.LocalDispatcher)
	assert.True(t, local)
	require.NoError(t, d.Shutdown(context.Background()))
	assert.NoError(t, app.Close(context.Background()))
}

func TestNew_UnreachableMongoFallsBack(t *testing.T) {
	cfg := baseConfig()
	cfg.MongoURI = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200"

	app, err := New(context.Background(), cfg, logger.Discard())

	require.NoError(t, err)
	assert.Equal(t, "memory", app.Store.Backend())
}

func TestNew_SeedsPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`presets:
  - name: AI Weekly
    topics: [ai, llm]
    rss_feeds: [https://example.com/feed.xml]
  - name: Climate
    topics: [climate]
`), 0o600))
	cfg := baseConfig()
	cfg.TopicPresetsFile = path

	app, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)

	presets, err := app.Store.ListTopicPresets(context.Background())
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "ai-weekly", presets[0].ID)
	assert.Equal(t, []string{"https://example.com/feed.xml"}, presets[0].RSSFeeds)
	assert.Equal(t, "climate", presets[1].ID)
}

func TestNew_InvalidPresetsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presets:\n  - name: Empty\n"), 0o600))
	cfg := baseConfig()
	cfg.TopicPresetsFile = path

	_, err := New(context.Background(), cfg, logger.Discard())

	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestNew_RedisDispatcher(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	app, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	require.NotNil(t, app.Queue)

	d := app.Dispatcher()
	require.NoError(t, d.Submit(context.Background(), models.RunJob{RunID: "r"}))
	n, err := app.Queue.Len(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.NoError(t, d.Shutdown(context.Background()))
}

func TestNew_BadRedisURL(t *testing.T) {
	cfg := baseConfig()
	cfg.RedisURL = "ftp://nope"

	_, err := New(context.Background(), cfg, logger.Discard())

	assert.Error(t, err)
}

func TestNew_MissingTemplate(t *testing.T) {
	cfg := baseConfig()
	cfg.MJMLTemplatePath = filepath.Join(t.TempDir(), "missing.mjml")

	_, err := New(context.Background(), cfg, logger.Discard())

	assert.Error(t, err)
}

func TestNew_RedisWithMemoryStoreWarns(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := baseConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	var buf bytes.Buffer

	app, err := New(context.Background(), cfg, logger.NewWithWriter(&buf, "info", "json"))

	require.NoError(t, err)
	assert.Equal(t, "memory", app.Store.Backend())
	assert.Contains(t, buf.String(), `"msg":"store.not_shared"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestNew_LocalDispatcherDoesNotWarnAboutSharing(t *testing.T) {
	var buf bytes.Buffer

	_, err := New(context.Background(), baseConfig(), logger.NewWithWriter(&buf, "info", "json"))

	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "store.not_shared")
}

func TestNew_LogsResolvedProviders(t *testing.T) {
	cfg := baseConfig()
	cfg.NewsAPIKey = "news-key"
	cfg.MailjetAPIKey = "mj-key"
	var buf bytes.Buffer

	_, err := New(context.Background(), cfg, logger.NewWithWriter(&buf, "info", "json"))

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `"msg":"providers.resolved"`)
	assert.Contains(t, out, `"newsapi":true`)
	assert.Contains(t, out, `"firecrawl":false`)
	assert.Contains(t, out, `"mailjet":false`)
}
