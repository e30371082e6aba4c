package mutation

import (
	"encoding/json"
	"fmt"

	"testroyale/internal/engine/result"
)

// reportFile mirrors the mutation tool's JSON report: a map of file entries,
// each carrying its list of attempted mutants.
type reportFile struct {
	Files map[string]struct {
		Mutants []struct {
			ID          string `json:"id"`
			MutatorName string `json:"mutatorName"`
			Status      string `json:"status"`
			Location    struct {
				Start struct {
					Line int `json:"line"`
				} `json:"start"`
			} `json:"location"`
		} `json:"mutants"`
	} `json:"files"`
}

var statusNames = map[string]result.MutantStatus{
	"Killed":       result.MutantKilled,
	"Survived":     result.MutantSurvived,
	"NoCoverage":   result.MutantNoCoverage,
	"Timeout":      result.MutantTimeout,
	"RuntimeError": result.MutantRuntimeError,
	"CompileError": result.MutantCompileError,
	"Ignored":      result.MutantIgnored,
	"Pending":      result.MutantPending,
}

// ParseReport walks every file entry's mutant list and aggregates counts by
// status. The mutation score is killed/total*100, or 0 when no mutants were
// generated.
func ParseReport(data []byte) (result.MutationReport, error) {
	var doc reportFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return result.MutationReport{}, fmt.Errorf("decode mutation report: %w", err)
	}

	report := result.MutationReport{OK: true, Mutants: []result.Mutant{}}
	for _, file := range doc.Files {
		for _, m := range file.Mutants {
			status, ok := statusNames[m.Status]
			if !ok {
				status = result.MutantPending
			}
			report.Mutants = append(report.Mutants, result.Mutant{
				ID:           m.ID,
				MutationKind: m.MutatorName,
				Line:         m.Location.Start.Line,
				Status:       status,
			})
			report.Total++
			switch status {
			case result.MutantKilled:
				report.Killed++
			case result.MutantSurvived:
				report.Survived++
			case result.MutantTimeout:
				report.TimedOut++
			case result.MutantNoCoverage:
				report.NoCoverage++
			}
		}
	}

	if report.Total > 0 {
		report.MutationScorePercent = float64(report.Killed) / float64(report.Total) * 100
	}
	return report, nil
}
