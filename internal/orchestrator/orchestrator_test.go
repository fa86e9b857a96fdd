package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
)

type fakeDirectory struct {
	portfolios []models.Portfolio
	err        error
	lastFilter interfaces.PortfolioFilter
}

func (f *fakeDirectory) ListPortfolios(_ context.Context, filter interfaces.PortfolioFilter) ([]models.Portfolio, error) {
	f.lastFilter = filter
	return f.portfolios, f.err
}

func (f *fakeDirectory) GetPortfolio(context.Context, string) (*models.Portfolio, error) {
	return nil, interfaces.ErrPortfolioNotFound
}

func (f *fakeDirectory) SavePortfolio(context.Context, *models.Portfolio) error { return nil }

// fakeRunner returns a canned status per portfolio and can panic on demand
type fakeRunner struct {
	statuses map[string]models.TaskStatus
	panicOn  string
}

func (f *fakeRunner) Execute(_ context.Context, task models.TaskConfig) models.TaskResult {
	if task.PortfolioID == f.panicOn {
		panic("boom in " + task.PortfolioID)
	}
	status := models.TaskStatusSuccess
	if s, ok := f.statuses[task.PortfolioID]; ok {
		status = s
	}
	return models.TaskResult{PortfolioID: task.PortfolioID, UserID: task.UserID, Status: status}
}

func portfolioWith(id, userID string, symbols ...string) models.Portfolio {
	assets := make([]models.Asset, 0, len(symbols))
	for _, s := range symbols {
		assets = append(assets, models.Asset{Symbol: s})
	}
	return models.Portfolio{ID: id, UserID: userID, Name: "pf-" + id, Assets: assets}
}

func newTestOrchestrator(directory *fakeDirectory, runner TaskRunner, config *common.Config) (*Orchestrator, *fakeStorage) {
	storage := newFakeStorage()
	return NewOrchestrator(directory, runner, storage, config, common.GetLogger()), storage
}

func TestOrchestrator_IsolatesFailingTask(t *testing.T) {
	directory := &fakeDirectory{portfolios: []models.Portfolio{
		portfolioWith("p1", "u1", "AAPL"),
		portfolioWith("p2", "u2", "MSFT"),
		portfolioWith("p3", "u3", "TSLA"),
	}}
	runner := &fakeRunner{statuses: map[string]models.TaskStatus{"p2": models.TaskStatusUploadError}}

	orch, _ := newTestOrchestrator(directory, runner, testConfig())
	summary, err := orch.Run(context.Background(), interfaces.PortfolioFilter{})

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, summary.Status)
	assert.Equal(t, 3, summary.Statistics.TotalPortfolios)
	assert.Equal(t, 2, summary.Statistics.Successful)
	assert.Equal(t, 1, summary.Statistics.Failed)
	assert.InDelta(t, 66.67, summary.Statistics.SuccessRate, 0.01)
}

func TestOrchestrator_PanicBecomesException(t *testing.T) {
	directory := &fakeDirectory{portfolios: []models.Portfolio{
		portfolioWith("p1", "u1", "AAPL"),
		portfolioWith("p2", "u2", "MSFT"),
	}}
	runner := &fakeRunner{panicOn: "p2"}

	orch, _ := newTestOrchestrator(directory, runner, testConfig())
	summary, err := orch.Run(context.Background(), interfaces.PortfolioFilter{})

	require.NoError(t, err)
	require.Equal(t, 2, summary.Statistics.TotalPortfolios)
	assert.Equal(t, 1, summary.Statistics.Failed)

	var exceptional *models.TaskResult
	for i := range summary.Results {
		if summary.Results[i].PortfolioID == "p2" {
			exceptional = &summary.Results[i]
		}
	}
	require.NotNil(t, exceptional)
	assert.Equal(t, models.TaskStatusException, exceptional.Status)
	require.NotEmpty(t, exceptional.Errors)
	assert.Contains(t, exceptional.Errors[0], "boom in p2")
}

func TestOrchestrator_NoPortfolios(t *testing.T) {
	orch, _ := newTestOrchestrator(&fakeDirectory{}, &fakeRunner{}, testConfig())
	summary, err := orch.Run(context.Background(), interfaces.PortfolioFilter{})

	require.NoError(t, err)
	assert.Equal(t, StatusNoPortfolios, summary.Status)
	assert.NotNil(t, summary.Results, "results serialize as an empty list, not null")
	assert.Empty(t, summary.Results)
	assert.Zero(t, summary.Statistics.TotalPortfolios)
}

func TestOrchestrator_ZeroAssetPortfoliosExcluded(t *testing.T) {
	directory := &fakeDirectory{portfolios: []models.Portfolio{
		portfolioWith("p1", "u1", "AAPL"),
		portfolioWith("empty", "u2"),
		{ID: "blank", UserID: "u3", Assets: []models.Asset{{Symbol: "   "}}},
	}}

	orch, _ := newTestOrchestrator(directory, &fakeRunner{}, testConfig())
	summary, err := orch.Run(context.Background(), interfaces.PortfolioFilter{})

	require.NoError(t, err)
	require.Equal(t, 1, summary.Statistics.TotalPortfolios)
	assert.Equal(t, "p1", summary.Results[0].PortfolioID)
}

func TestOrchestrator_SequentialPreservesOrder(t *testing.T) {
	directory := &fakeDirectory{portfolios: []models.Portfolio{
		portfolioWith("p1", "u1", "AAPL"),
		portfolioWith("p2", "u2", "MSFT"),
		portfolioWith("p3", "u3", "TSLA"),
	}}
	config := testConfig()
	config.Orchestrator.Parallel = false

	orch, _ := newTestOrchestrator(directory, &fakeRunner{}, config)
	summary, err := orch.Run(context.Background(), interfaces.PortfolioFilter{})

	require.NoError(t, err)
	require.Len(t, summary.Results, 3)
	assert.Equal(t, "p1", summary.Results[0].PortfolioID)
	assert.Equal(t, "p2", summary.Results[1].PortfolioID)
	assert.Equal(t, "p3", summary.Results[2].PortfolioID)
}

func TestOrchestrator_DirectoryErrorPropagates(t *testing.T) {
	directory := &fakeDirectory{err: errors.New("db closed")}
	orch, _ := newTestOrchestrator(directory, &fakeRunner{}, testConfig())

	_, err := orch.Run(context.Background(), interfaces.PortfolioFilter{})
	assert.Error(t, err)
}

func TestOrchestrator_PersistsSummary(t *testing.T) {
	directory := &fakeDirectory{portfolios: []models.Portfolio{portfolioWith("p1", "u1", "AAPL")}}
	config := testConfig()
	config.Orchestrator.SummaryPath = filepath.Join(t.TempDir(), "summary.json")

	orch, storage := newTestOrchestrator(directory, &fakeRunner{}, config)
	_, err := orch.Run(context.Background(), interfaces.PortfolioFilter{})
	require.NoError(t, err)

	// local summary file
	data, err := os.ReadFile(config.Orchestrator.SummaryPath)
	require.NoError(t, err)
	var fromFile models.RunSummary
	require.NoError(t, json.Unmarshal(data, &fromFile))
	assert.Equal(t, 1, fromFile.Statistics.TotalPortfolios)

	// object storage copy
	stored, err := storage.Download(context.Background(), "test-bucket", SummaryObjectPath)
	require.NoError(t, err)
	var fromStore models.RunSummary
	require.NoError(t, json.Unmarshal(stored, &fromStore))
	assert.Equal(t, StatusCompleted, fromStore.Status)
}

func TestOrchestrator_FilterPassedThrough(t *testing.T) {
	directory := &fakeDirectory{}
	orch, _ := newTestOrchestrator(directory, &fakeRunner{}, testConfig())

	filter := interfaces.PortfolioFilter{PortfolioID: "p9", UserID: "u9"}
	_, err := orch.Run(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, filter, directory.lastFilter)
}
