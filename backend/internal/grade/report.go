// ============================================================================
// backend/internal/grade/report.go
// Score distribution statistics for principal dashboards
// ============================================================================

package grade

import (
	"math"

	"github.com/montanaflynn/stats"

	"schoolhub/backend/internal/shared"
)

// Distribution summarizes a set of numeric scores.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// SubjectDistribution is one subject's distribution within a class report.
type SubjectDistribution struct {
	SubjectID    string       `json:"subject_id"`
	SubjectName  string       `json:"subject_name"`
	Distribution Distribution `json:"distribution"`
}

// ClassReport is the per-class score distribution report.
type ClassReport struct {
	ClassID   string                `json:"class_id"`
	ClassName string                `json:"class_name"`
	Term      string                `json:"term,omitempty"`
	Overall   Distribution          `json:"overall"`
	Subjects  []SubjectDistribution `json:"subjects"`
}

// ComputeDistribution computes summary statistics over raw scores. A nil
// result means there were no scores to summarize.
func ComputeDistribution(scores []float64) *Distribution {
	if len(scores) == 0 {
		return nil
	}

	data := stats.Float64Data(scores)
	mean, _ := data.Mean()
	median, _ := data.Median()
	min, _ := data.Min()
	max, _ := data.Max()
	p25, _ := data.Percentile(25)
	p75, _ := data.Percentile(75)

	stdDev := 0.0
	if len(scores) > 1 {
		stdDev, _ = data.StandardDeviationSample()
	}

	return &Distribution{
		Count:  len(scores),
		Mean:   round2(mean),
		Median: round2(median),
		StdDev: round2(stdDev),
		Min:    min,
		Max:    max,
		P25:    round2(p25),
		P75:    round2(p75),
	}
}

// BuildClassReport folds a class's entries into overall and per-subject
// distributions. Score-less entries are skipped.
func BuildClassReport(classID, term string, entries []shared.GradeEntry) *ClassReport {
	var overall []float64
	bySubject := make(map[string][]float64)
	var subjectOrder []string

	for i := range entries {
		e := &entries[i]
		if e.Score == nil {
			continue
		}
		overall = append(overall, *e.Score)
		if _, ok := bySubject[e.SubjectID]; !ok {
			subjectOrder = append(subjectOrder, e.SubjectID)
		}
		bySubject[e.SubjectID] = append(bySubject[e.SubjectID], *e.Score)
	}

	report := &ClassReport{ClassID: classID, Term: term}
	if d := ComputeDistribution(overall); d != nil {
		report.Overall = *d
	}

	for _, subjectID := range subjectOrder {
		if d := ComputeDistribution(bySubject[subjectID]); d != nil {
			report.Subjects = append(report.Subjects, SubjectDistribution{
				SubjectID:    subjectID,
				Distribution: *d,
			})
		}
	}
	return report
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
