package models

import "time"

// Summary aggregates dataset-wide counts for the metadata mirror. It holds
// counts only; nothing here ranks or scores projects.
type Summary struct {
	TotalProjects int              `json:"total_projects"`
	ByStatus      map[Status]int   `json:"by_status"`
	ByCategory    map[Category]int `json:"by_category"`
	OpenSource    int              `json:"open_source"`
	Claimed       int              `json:"claimed"`
	Featured      int              `json:"featured"`
	GeneratedAt   string           `json:"generated_at"`
}

// Summarize counts records by status and category. A record with several
// categories is counted once under each.
func Summarize(records []Record, now time.Time) Summary {
	s := Summary{
		TotalProjects: len(records),
		ByStatus:      make(map[Status]int),
		ByCategory:    make(map[Category]int),
		GeneratedAt:   FormatTimestamp(now),
	}
	for _, r := range records {
		s.ByStatus[r.Status]++
		for _, c := range r.Category {
			s.ByCategory[c]++
		}
		if r.OpenSource != nil && *r.OpenSource {
			s.OpenSource++
		}
		if r.Claimed {
			s.Claimed++
		}
		if r.Featured {
			s.Featured++
		}
	}
	return s
}
