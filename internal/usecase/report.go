package usecase

import "github.com/mkrogh/ttsync/internal/domain/record"

// BatchReport accumulates per-row outcomes for one resolver pass. Every
// skipped row is attributable to a reason; ambiguity is counted but never
// aborts the batch.
type BatchReport struct {
	Rows        int            `json:"rows"`
	Inserted    int            `json:"inserted"`
	Updated     int            `json:"updated"`
	Skipped     int            `json:"skipped"`
	Ambiguous   int            `json:"ambiguous"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
}

func (r *BatchReport) skip(reason string) {
	r.Skipped++
	if r.SkipReasons == nil {
		r.SkipReasons = make(map[string]int)
	}
	r.SkipReasons[reason]++
}

func (r *BatchReport) record(up record.Upserted) {
	if up.Inserted {
		r.Inserted++
	} else {
		r.Updated++
	}
}

func (r *BatchReport) merge(other BatchReport) {
	r.Rows += other.Rows
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Ambiguous += other.Ambiguous
	for reason, count := range other.SkipReasons {
		if r.SkipReasons == nil {
			r.SkipReasons = make(map[string]int)
		}
		r.SkipReasons[reason] += count
	}
}

// StageReport is one pipeline stage's BatchReport plus its terminal error,
// when the stage failed partway.
type StageReport struct {
	Stage string `json:"stage"`
	BatchReport
	Err error `json:"-"`
}

// RunReport is the full outcome of one pipeline invocation: one entry per
// executed stage, in execution order, followed by the cross-stage club and
// player resolver tallies.
type RunReport struct {
	RunID  int64         `json:"run_id"`
	Stages []StageReport `json:"stages"`
}

func (r *RunReport) add(stage string, rep BatchReport, err error) {
	r.Stages = append(r.Stages, StageReport{Stage: stage, BatchReport: rep, Err: err})
}

// FailedStages lists the names of stages that ended in error.
func (r *RunReport) FailedStages() []string {
	var failed []string
	for _, s := range r.Stages {
		if s.Err != nil {
			failed = append(failed, s.Stage)
		}
	}
	return failed
}

// Totals folds every stage's tallies into one BatchReport.
func (r *RunReport) Totals() BatchReport {
	var total BatchReport
	for _, s := range r.Stages {
		total.merge(s.BatchReport)
	}
	return total
}

// TotalInserted sums inserts across all stages.
func (r *RunReport) TotalInserted() int {
	return r.Totals().Inserted
}
