package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

// ---- fakes ----

type fakeStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	failUpload  bool
	failForUser string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) key(bucket, path string) string { return bucket + "/" + path }

func (f *fakeStorage) Upload(_ context.Context, bucket, path string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload {
		return errors.New("storage offline")
	}
	if f.failForUser != "" && len(path) >= len(f.failForUser) && path[:len(f.failForUser)] == f.failForUser {
		return errors.New("storage offline for user")
	}
	f.objects[f.key(bucket, path)] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStorage) Download(_ context.Context, bucket, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[f.key(bucket, path)]
	if !ok {
		return nil, interfaces.ErrObjectNotFound
	}
	return data, nil
}

func (f *fakeStorage) Delete(_ context.Context, bucket, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, f.key(bucket, path))
	return nil
}

type fakeSentiment struct {
	sentiment *models.MarketSentiment
	err       error
}

func (f *fakeSentiment) Fetch(context.Context) (*models.MarketSentiment, error) {
	return f.sentiment, f.err
}

type fakeNews struct {
	items []models.Item
	err   error
}

func (f *fakeNews) Fetch(context.Context, []string, int) ([]models.Item, error) {
	return f.items, f.err
}

type fakeSocial struct {
	posts    []models.SocialPost
	err      error
	gotLimit int
}

func (f *fakeSocial) Fetch(_ context.Context, _ []string, limit int) ([]models.SocialPost, error) {
	f.gotLimit = limit
	return f.posts, f.err
}

type fakeCommentary struct {
	items []models.Item
	err   error
}

func (f *fakeCommentary) Fetch(context.Context, []string, int) ([]models.Item, error) {
	return f.items, f.err
}

// ---- helpers ----

func testConfig() *common.Config {
	config := common.NewDefaultConfig()
	config.Storage.Bucket = "test-bucket"
	config.Orchestrator.SummaryPath = ""
	return config
}

func testTask() models.TaskConfig {
	return models.TaskConfig{
		PortfolioID:   "p1",
		PortfolioName: "Growth",
		UserID:        "u1",
		Symbols:       []string{"AAPL"},
		Assets:        []models.Asset{{Symbol: "AAPL", Quantity: 10, AcquisitionPrice: 150}},
	}
}

func recentItem(id string, age time.Duration) models.Item {
	item := models.Item{ID: id, Title: "t-" + id}
	item.SetPublishedAt(time.Now().Add(-age))
	return item
}

func recentPost(id string, engagement float64) models.SocialPost {
	post := models.SocialPost{Item: models.Item{ID: id}, EngagementScore: engagement}
	post.SetPublishedAt(time.Now().Add(-2 * time.Hour))
	return post
}

// ---- tests ----

func TestExecutor_SuccessfulRun(t *testing.T) {
	storage := newFakeStorage()
	executor := NewExecutor(Collectors{
		Sentiment:  &fakeSentiment{sentiment: &models.MarketSentiment{Value: 60, Label: "Greed"}},
		News:       &fakeNews{items: []models.Item{recentItem("n1", 5 * time.Minute)}},
		Social:     &fakeSocial{posts: []models.SocialPost{recentPost("s1", 40)}},
		Commentary: &fakeCommentary{items: []models.Item{recentItem("c1", time.Hour)}},
	}, storage, testConfig(), common.GetLogger())

	result := executor.Execute(context.Background(), testTask())

	assert.Equal(t, models.TaskStatusSuccess, result.Status)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "u1/portfolio_news.json", result.StoragePath)
	assert.Equal(t, 1, result.NewsCount)
	assert.Equal(t, 1, result.SocialCount)
	assert.Equal(t, 1, result.CommentaryCount)

	data, err := storage.Download(context.Background(), "test-bucket", "u1/portfolio_news.json")
	require.NoError(t, err)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Contains(t, payload, "tradingview_ideas", "legacy commentary field name kept")
	assert.Contains(t, payload, "market_sentiment")
	assert.Contains(t, payload, "portfolio_news")
	assert.Contains(t, payload, "assets")

	var mentions struct {
		SocialMentions []map[string]json.RawMessage `json:"social_mentions"`
	}
	require.NoError(t, json.Unmarshal(data, &mentions))
	require.Len(t, mentions.SocialMentions, 1)
	assert.Contains(t, mentions.SocialMentions[0], "engagement_score")
	assert.NotContains(t, mentions.SocialMentions[0], "signal", "ranking value is never persisted")

	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Equal(t, "p1", snapshot.PortfolioID)
	assert.Equal(t, 60, snapshot.MarketSentiment.Value)
	require.Len(t, snapshot.Assets, 1)
	assert.Equal(t, float64(150), snapshot.Assets[0].AcquisitionPrice)
}

func TestExecutor_StepFailureIsIsolated(t *testing.T) {
	storage := newFakeStorage()
	executor := NewExecutor(Collectors{
		Sentiment:  &fakeSentiment{err: errors.New("gauge down")},
		News:       &fakeNews{items: []models.Item{recentItem("n1", time.Minute)}},
		Social:     &fakeSocial{posts: nil},
		Commentary: &fakeCommentary{err: errors.New("rss 503")},
	}, storage, testConfig(), common.GetLogger())

	result := executor.Execute(context.Background(), testTask())

	assert.Equal(t, models.TaskStatusPartial, result.Status)
	assert.Contains(t, result.Errors, "sentiment_error: gauge down")
	assert.Contains(t, result.Errors, "commentary_error: rss 503")
	assert.Equal(t, 1, result.NewsCount, "news step unaffected by sentiment failure")
	assert.NotEmpty(t, result.StoragePath, "payload still uploaded")
}

func TestExecutor_UploadError(t *testing.T) {
	storage := newFakeStorage()
	storage.failUpload = true
	executor := NewExecutor(Collectors{
		News: &fakeNews{items: []models.Item{recentItem("n1", time.Minute)}},
	}, storage, testConfig(), common.GetLogger())

	result := executor.Execute(context.Background(), testTask())

	assert.Equal(t, models.TaskStatusUploadError, result.Status)
	assert.Empty(t, result.StoragePath)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "upload_error")
}

func TestExecutor_NewsMergesAgainstPreviousSnapshot(t *testing.T) {
	storage := newFakeStorage()
	config := testConfig()
	ctx := context.Background()

	// seed the previous snapshot with two stored items
	prevOld := recentItem("kept", 10*time.Minute)
	prevDupe := recentItem("dupe", 20*time.Minute)
	prevDupe.Title = "previous version"
	prior := models.Snapshot{UserID: "u1", PortfolioNews: []models.Item{prevOld, prevDupe}}
	data, _ := json.Marshal(prior)
	require.NoError(t, storage.Upload(ctx, "test-bucket", "u1/portfolio_news.json", data, "application/json"))

	incomingDupe := recentItem("dupe", time.Minute)
	incomingDupe.Title = "fresh version"
	news := &fakeNews{items: []models.Item{
		recentItem("new", 2*time.Minute),   // inside recency window, kept
		recentItem("stale", 2*time.Hour),   // outside 30m window, gated out
		incomingDupe,                       // already seen, previous version kept
	}}

	executor := NewExecutor(Collectors{News: news}, storage, config, common.GetLogger())
	result := executor.Execute(ctx, testTask())

	require.Equal(t, models.TaskStatusSuccess, result.Status)

	stored, err := storage.Download(ctx, "test-bucket", "u1/portfolio_news.json")
	require.NoError(t, err)
	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal(stored, &snapshot))

	titles := map[string]string{}
	for _, item := range snapshot.PortfolioNews {
		titles[item.ID] = item.Title
	}
	assert.Len(t, snapshot.PortfolioNews, 3, "cap is 3 per asset x 1 asset")
	assert.Contains(t, titles, "new")
	assert.Contains(t, titles, "kept")
	assert.Equal(t, "previous version", titles["dupe"], "seen IDs are excluded from incoming")
	assert.NotContains(t, titles, "stale")
}

func TestExecutor_DisabledFeedsAreSkipped(t *testing.T) {
	storage := newFakeStorage()
	config := testConfig()
	config.Feeds.SentimentEnabled = false
	config.Feeds.SocialEnabled = false
	config.Feeds.CommentaryEnabled = false

	sentiment := &fakeSentiment{err: errors.New("should never be called")}
	executor := NewExecutor(Collectors{
		Sentiment: sentiment,
		News:      &fakeNews{},
	}, storage, config, common.GetLogger())

	result := executor.Execute(context.Background(), testTask())

	assert.Equal(t, models.TaskStatusSuccess, result.Status)
	assert.Empty(t, result.Errors)

	data, err := storage.Download(context.Background(), "test-bucket", "u1/portfolio_news.json")
	require.NoError(t, err)
	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Nil(t, snapshot.MarketSentiment)
	assert.Empty(t, snapshot.SocialMentions)
}

func TestExecutor_SocialFetchLimitFromConfig(t *testing.T) {
	storage := newFakeStorage()
	config := testConfig()
	config.Feeds.SocialFetchLimit = 7

	social := &fakeSocial{posts: []models.SocialPost{recentPost("s1", 40)}}
	executor := NewExecutor(Collectors{
		News:   &fakeNews{},
		Social: social,
	}, storage, config, common.GetLogger())

	result := executor.Execute(context.Background(), testTask())

	assert.Equal(t, models.TaskStatusSuccess, result.Status)
	assert.Equal(t, 7, social.gotLimit)
}

func TestExecutor_CorruptPreviousSnapshotStartsFresh(t *testing.T) {
	storage := newFakeStorage()
	ctx := context.Background()
	require.NoError(t, storage.Upload(ctx, "test-bucket", "u1/portfolio_news.json", []byte("not json"), ""))

	executor := NewExecutor(Collectors{
		News: &fakeNews{items: []models.Item{recentItem("n1", time.Minute)}},
	}, storage, testConfig(), common.GetLogger())

	result := executor.Execute(ctx, testTask())

	assert.Equal(t, models.TaskStatusSuccess, result.Status)
	assert.Equal(t, 1, result.NewsCount)
}
