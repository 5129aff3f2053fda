package parser

import "github.com/KorotaevvEgor/Scripts-Hub/internal/model"

// Summary is the run-level aggregate written onto the ScriptRun record.
type Summary struct {
	TotalFound    int
	NewCount      int
	ExistingCount int
	PerQuery      map[string]model.QueryStats
}

// Summarize merges the per-query runner/dedup statistics with the diff
// partition. uniqueCount is the size of the deduplicated batch;
// listings the diff engine skipped as unprocessable are excluded from
// TotalFound, so the per-query unique counts always sum to it. Pure
// aggregation, no side effects.
func Summarize(uniqueCount int, perQuery map[string]model.QueryStats, diff *DiffResult) Summary {
	s := Summary{
		TotalFound:    uniqueCount - diff.Skipped,
		NewCount:      len(diff.New),
		ExistingCount: len(diff.Existing),
		PerQuery:      make(map[string]model.QueryStats, len(perQuery)),
	}

	for q, qs := range perQuery {
		s.PerQuery[q] = qs
	}

	for _, v := range diff.New {
		qs := s.PerQuery[v.FoundByQuery]
		qs.New++
		s.PerQuery[v.FoundByQuery] = qs
	}
	for _, v := range diff.Existing {
		qs := s.PerQuery[v.FoundByQuery]
		qs.Existing++
		s.PerQuery[v.FoundByQuery] = qs
	}

	return s
}
