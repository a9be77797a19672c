// Package progress owns per-run crawl progress state: the stage-weight
// mapper, the tracker facade that relays updates to an external sink,
// heartbeats, and a poll-friendly state mirror.
package progress

// Pipeline stage names. Each stage reports local progress 0-100 which
// the Mapper folds into the overall 0-100 scale.
const (
	StageStarting        = "starting"
	StageAnalyzing       = "analyzing"
	StageCrawling        = "crawling"
	StageProcessing      = "processing"
	StageDocumentStorage = "document_storage"
	StageCodeExtraction  = "code_extraction"
	StageFinalization    = "finalization"
	StageCompleted       = "completed"
	StageError           = "error"
)

type stageBand struct {
	offset int
	weight int
}

// stageBands is the fixed stage-weight table. Offsets and weights sum to
// 100 across the stage sequence; downstream progress bars rely on these
// values being identical from run to run.
var stageBands = map[string]stageBand{
	StageStarting:        {offset: 0, weight: 2},
	StageAnalyzing:       {offset: 2, weight: 3},
	StageCrawling:        {offset: 5, weight: 25},
	StageProcessing:      {offset: 30, weight: 5},
	StageDocumentStorage: {offset: 35, weight: 40},
	StageCodeExtraction:  {offset: 75, weight: 20},
	StageFinalization:    {offset: 95, weight: 5},
	StageCompleted:       {offset: 100, weight: 0},
	StageError:           {offset: 0, weight: 0},
}

// Mapper converts per-stage local progress into overall pipeline
// progress. It also remembers the last computed stage and value so
// heartbeats can repeat them without recomputing.
type Mapper struct {
	currentStage    string
	currentProgress int
}

// NewMapper returns a mapper positioned at the start of the pipeline.
func NewMapper() *Mapper {
	return &Mapper{currentStage: StageStarting}
}

// Map computes overall progress for a stage-local value. Unknown stage
// names map to offset 0 with no weight; they never panic. The result is
// clamped to [0, 100].
func (m *Mapper) Map(stage string, local int) int {
	band := stageBands[stage]

	if local < 0 {
		local = 0
	} else if local > 100 {
		local = 100
	}

	overall := band.offset + band.weight*local/100
	if overall > 100 {
		overall = 100
	}

	m.currentStage = stage
	m.currentProgress = overall
	return overall
}

// CurrentStage returns the last mapped stage name.
func (m *Mapper) CurrentStage() string { return m.currentStage }

// CurrentProgress returns the last computed overall progress.
func (m *Mapper) CurrentProgress() int { return m.currentProgress }
