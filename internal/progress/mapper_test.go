package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapperBands(t *testing.T) {
	tests := []struct {
		stage string
		local int
		want  int
	}{
		{StageStarting, 0, 0},
		{StageStarting, 100, 2},
		{StageAnalyzing, 100, 5},
		{StageCrawling, 0, 5},
		{StageCrawling, 50, 17},
		{StageCrawling, 100, 30},
		{StageProcessing, 100, 35},
		{StageDocumentStorage, 50, 55},
		{StageDocumentStorage, 100, 75},
		{StageCodeExtraction, 100, 95},
		{StageFinalization, 50, 97},
		{StageCompleted, 100, 100},
	}
	for _, tt := range tests {
		m := NewMapper()
		assert.Equal(t, tt.want, m.Map(tt.stage, tt.local), "%s@%d", tt.stage, tt.local)
	}
}

func TestMapperClampsLocalProgress(t *testing.T) {
	m := NewMapper()
	assert.Equal(t, 5, m.Map(StageCrawling, -50))
	assert.Equal(t, 30, m.Map(StageCrawling, 250))
}

func TestMapperUnknownStage(t *testing.T) {
	m := NewMapper()
	// Unknown stages map into the zero band and must not panic.
	assert.Equal(t, 0, m.Map("telepathy", 100))
	assert.Equal(t, "telepathy", m.CurrentStage())
}

func TestMapperRemembersLastComputed(t *testing.T) {
	m := NewMapper()
	m.Map(StageCrawling, 40)
	assert.Equal(t, StageCrawling, m.CurrentStage())
	assert.Equal(t, 15, m.CurrentProgress())
}

func TestMapperStageOrderIsMonotonic(t *testing.T) {
	// Walking the full pipeline at 0 then 100 per stage must never move
	// the overall value backwards.
	stages := []string{
		StageStarting, StageAnalyzing, StageCrawling, StageProcessing,
		StageDocumentStorage, StageCodeExtraction, StageFinalization, StageCompleted,
	}
	m := NewMapper()
	last := 0
	for _, stage := range stages {
		for _, local := range []int{0, 100} {
			got := m.Map(stage, local)
			assert.GreaterOrEqual(t, got, last, "stage %s", stage)
			last = got
		}
	}
	assert.Equal(t, 100, last)
}
