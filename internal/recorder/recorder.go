package recorder

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"Buffetology/internal/model"
)

// ErrNoRuns is returned by LatestRun when nothing has been recorded.
var ErrNoRuns = errors.New("no screening runs recorded")

// Run is one screening pass over a ticker universe.
type Run struct {
	ID         string                 `json:"id"`
	Trigger    model.TriggerType      `json:"trigger"`
	Provider   string                 `json:"provider"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Results    []model.AnalysisResult `json:"results"` // ranked
}

// NewRun starts a run with a fresh ID.
func NewRun(trigger model.TriggerType, provider string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Provider:  provider,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stores the ranked results and stamps the finish time.
func (r *Run) Finish(results []model.AnalysisResult) {
	r.Results = results
	r.FinishedAt = time.Now().UTC()
}

// Counts tallies results per recommendation label.
func (r *Run) Counts() map[model.Recommendation]int {
	counts := make(map[model.Recommendation]int)
	for _, res := range r.Results {
		counts[res.Recommendation]++
	}
	return counts
}

// Recorder persists screening history.
type Recorder interface {
	RecordRun(run *Run) error
	LatestRun() (*Run, error)
	Close() error
}
