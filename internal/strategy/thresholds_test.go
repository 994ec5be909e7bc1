package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultThresholds_Valid(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
}

func TestValidate_ReportsEveryBadField(t *testing.T) {
	th := DefaultThresholds()
	th.MaxPE = 0
	th.MinROE = -1
	th.MaxPEG = math.NaN()

	err := th.Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "max pe")
		assert.Contains(t, err.Error(), "min roe")
		assert.Contains(t, err.Error(), "max peg")
		assert.NotContains(t, err.Error(), "max pb")
	}
}
