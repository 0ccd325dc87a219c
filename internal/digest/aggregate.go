package digest

import (
	"sort"

	"github.com/L235/MWRecentChangesReport/internal/models"
)

// Aggregate deduplicates a flat change list and groups it by page title.
// Duplicate revision ids (the API can repeat an edit across overlapping
// continuation pages) collapse to the first occurrence. Within a group
// changes are ordered by timestamp ascending, ties broken by revision id.
// Groups are ordered by their most recent change descending, ties broken
// by title, so the output is identical for any permutation of the input.
func Aggregate(records []models.ChangeRecord) []models.ChangeGroup {
	if len(records) == 0 {
		return nil
	}

	seen := make(map[int64]bool, len(records))
	byTitle := make(map[string][]models.ChangeRecord)
	for _, r := range records {
		if seen[r.RevID] {
			continue
		}
		seen[r.RevID] = true
		byTitle[r.Title] = append(byTitle[r.Title], r)
	}

	groups := make([]models.ChangeGroup, 0, len(byTitle))
	for title, changes := range byTitle {
		sort.Slice(changes, func(i, j int) bool {
			if !changes[i].Timestamp.Equal(changes[j].Timestamp) {
				return changes[i].Timestamp.Before(changes[j].Timestamp)
			}
			return changes[i].RevID < changes[j].RevID
		})
		groups = append(groups, models.ChangeGroup{Title: title, Changes: changes})
	}

	sort.Slice(groups, func(i, j int) bool {
		li, lj := groups[i].Latest(), groups[j].Latest()
		if !li.Equal(lj) {
			return li.After(lj)
		}
		return groups[i].Title < groups[j].Title
	})

	return groups
}

// TotalChanges counts the records across all groups
func TotalChanges(groups []models.ChangeGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.Changes)
	}
	return total
}
