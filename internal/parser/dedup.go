package parser

import "github.com/KorotaevvEgor/Scripts-Hub/internal/model"

// Deduplicator merges the results of multiple query passes into one
// unique set. Queries are fed in configured order, and an external ID is
// attributed to the first query that produced it; later occurrences are
// counted as duplicates for their query and dropped.
//
// The seen set spans one run and is never reset between queries.
type Deduplicator struct {
	seen map[string]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Merge filters listings against the identifiers accepted so far,
// returning the accepted ones and updating stats.Unique / stats.Duplicates.
// Listings without an external ID pass through untouched: the diff engine
// owns rejecting them, with a logged warning.
func (d *Deduplicator) Merge(listings []model.Listing, stats *model.QueryStats) []model.Listing {
	accepted := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if l.ExternalID == "" {
			accepted = append(accepted, l)
			continue
		}
		if _, dup := d.seen[l.ExternalID]; dup {
			stats.Duplicates++
			continue
		}
		d.seen[l.ExternalID] = struct{}{}
		stats.Unique++
		accepted = append(accepted, l)
	}
	return accepted
}
