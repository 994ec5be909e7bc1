package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Buffetology/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleResults() []model.AnalysisResult {
	return []model.AnalysisResult{
		{Ticker: "MOAT", QualityScore: 100, ValueScore: 100, GrowthScore: 100, OverallScore: 100, Recommendation: model.StrongBuy},
		{Ticker: "STDY", QualityScore: 100, ValueScore: 50, GrowthScore: 100.0 / 3, OverallScore: 65, Recommendation: model.Buy},
		model.InsufficientDataResult("THIN"),
		model.ErrorResult("DOWN", assert.AnError),
	}
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r := openTestRecorder(t)

	_, err := r.LatestRun()
	assert.ErrorIs(t, err, ErrNoRuns)

	run := NewRun(model.TriggerManual, "mock")
	_, err = uuid.Parse(run.ID)
	require.NoError(t, err)
	run.Finish(sampleResults())
	require.NoError(t, r.RecordRun(run))

	got, err := r.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.TriggerManual, got.Trigger)
	assert.Equal(t, "mock", got.Provider)
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Millisecond)
	require.Len(t, got.Results, 4)
	assert.Equal(t, "MOAT", got.Results[0].Ticker)
	assert.InDelta(t, 100.0/3, got.Results[1].GrowthScore, 1e-9)
	assert.Equal(t, model.InsufficientData, got.Results[2].Recommendation)
	assert.Equal(t, model.Failed, got.Results[3].Recommendation)
	assert.Equal(t, assert.AnError.Error(), got.Results[3].Err)
}

func TestSQLiteRecorder_LatestWins(t *testing.T) {
	r := openTestRecorder(t)

	first := NewRun(model.TriggerScheduled, "yahoo")
	first.StartedAt = time.Now().Add(-time.Hour).UTC()
	first.Finish(sampleResults()[:1])
	require.NoError(t, r.RecordRun(first))

	second := NewRun(model.TriggerCLI, "yahoo")
	second.Finish(sampleResults()[1:2])
	require.NoError(t, r.RecordRun(second))

	got, err := r.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "STDY", got.Results[0].Ticker)
}

func TestSQLiteRecorder_DuplicateRunRejected(t *testing.T) {
	r := openTestRecorder(t)
	run := NewRun(model.TriggerCLI, "mock")
	run.Finish(sampleResults())
	require.NoError(t, r.RecordRun(run))
	assert.Error(t, r.RecordRun(run))

	got, err := r.LatestRun()
	require.NoError(t, err)
	assert.Len(t, got.Results, 4, "failed insert must roll back")
}

func TestSQLiteRecorder_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	r, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	run := NewRun(model.TriggerCLI, "mock")
	run.Finish(sampleResults())
	require.NoError(t, r.RecordRun(run))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	defer r.Close()
	got, err := r.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
}

func TestRunCounts(t *testing.T) {
	run := NewRun(model.TriggerCLI, "mock")
	run.Finish(sampleResults())
	counts := run.Counts()
	assert.Equal(t, 1, counts[model.StrongBuy])
	assert.Equal(t, 1, counts[model.Failed])
	assert.Zero(t, counts[model.Hold])
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(NewRun(model.TriggerCLI, "mock")))
	_, err := r.LatestRun()
	assert.ErrorIs(t, err, ErrNoRuns)
	assert.NoError(t, r.Close())
}
