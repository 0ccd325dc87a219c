package digest

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/L235/MWRecentChangesReport/internal/models"
)

func change(title string, ts time.Time, user string, revID int64) models.ChangeRecord {
	return models.ChangeRecord{
		Title:     title,
		Timestamp: ts,
		User:      user,
		Comment:   "edit " + title,
		RevID:     revID,
		OldRevID:  revID - 1,
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil); len(got) != 0 {
		t.Errorf("Aggregate(nil) = %d groups, want 0", len(got))
	}
	if got := Aggregate([]models.ChangeRecord{}); len(got) != 0 {
		t.Errorf("Aggregate([]) = %d groups, want 0", len(got))
	}
}

func TestAggregateScenario(t *testing.T) {
	t1 := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	records := []models.ChangeRecord{
		change("Alpha", t2, "bob", 102),
		change("Alpha", t1, "alice", 101),
		change("Alpha", t1, "alice", 101), // duplicate revision id
		change("Beta", t3, "carol", 103),
	}

	groups := Aggregate(records)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	// Beta's only change at t3 is more recent than Alpha's latest at t2
	if groups[0].Title != "Beta" || groups[1].Title != "Alpha" {
		t.Errorf("group order = [%s, %s], want [Beta, Alpha]", groups[0].Title, groups[1].Title)
	}

	alpha := groups[1]
	if len(alpha.Changes) != 2 {
		t.Fatalf("Alpha has %d changes, want 2 (duplicate collapsed)", len(alpha.Changes))
	}
	if !alpha.Changes[0].Timestamp.Equal(t1) || !alpha.Changes[1].Timestamp.Equal(t2) {
		t.Errorf("Alpha changes not in ascending timestamp order: %v, %v",
			alpha.Changes[0].Timestamp, alpha.Changes[1].Timestamp)
	}
}

func TestAggregateDedupeIdempotence(t *testing.T) {
	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	records := []models.ChangeRecord{
		change("Alpha", base, "alice", 1),
		change("Alpha", base.Add(time.Minute), "bob", 2),
		change("Beta", base.Add(2*time.Minute), "carol", 3),
	}

	doubled := append(append([]models.ChangeRecord{}, records...), records...)

	once := Aggregate(records)
	twice := Aggregate(doubled)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("aggregate(records) != aggregate(records ++ records)\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestAggregateDeterministicUnderPermutation(t *testing.T) {
	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	var records []models.ChangeRecord
	titles := []string{"Alpha", "Beta", "Gamma", "Delta"}
	for i := 0; i < 40; i++ {
		records = append(records, change(titles[i%len(titles)], base.Add(time.Duration(i)*time.Minute), "user", int64(i+1)))
	}
	// Same-latest-timestamp tie: two titles whose only edits share a timestamp
	tie := base.Add(100 * time.Minute)
	records = append(records,
		change("Zeta", tie, "user", 200),
		change("Eta", tie, "user", 201),
	)

	want := Aggregate(records)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]models.ChangeRecord{}, records...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		got := Aggregate(shuffled)
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("trial %d: aggregation differs under input permutation", trial)
		}
	}

	// Tie on latest timestamp breaks by title ascending
	var zeta, eta int
	for i, g := range want {
		switch g.Title {
		case "Zeta":
			zeta = i
		case "Eta":
			eta = i
		}
	}
	if eta > zeta {
		t.Errorf("tie on latest change should order Eta before Zeta, got Eta=%d Zeta=%d", eta, zeta)
	}
}

func TestAggregateContiguousWindowUnion(t *testing.T) {
	// Fetching two contiguous windows separately (with the boundary record
	// duplicated across them) must aggregate identically to fetching the
	// combined window once.
	base := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	boundary := base.AddDate(0, 0, 3)

	week1 := []models.ChangeRecord{
		change("Alpha", base.Add(time.Hour), "alice", 1),
		change("Beta", boundary.Add(-time.Minute), "bob", 2),
	}
	week2 := []models.ChangeRecord{
		change("Beta", boundary.Add(-time.Minute), "bob", 2), // overlap duplicate
		change("Alpha", boundary.Add(time.Hour), "alice", 3),
	}
	combined := []models.ChangeRecord{
		change("Alpha", base.Add(time.Hour), "alice", 1),
		change("Beta", boundary.Add(-time.Minute), "bob", 2),
		change("Alpha", boundary.Add(time.Hour), "alice", 3),
	}

	split := Aggregate(append(append([]models.ChangeRecord{}, week1...), week2...))
	whole := Aggregate(combined)
	if !reflect.DeepEqual(split, whole) {
		t.Errorf("split windows aggregate differently from the combined window\nsplit: %+v\nwhole: %+v", split, whole)
	}
}

func TestTotalChanges(t *testing.T) {
	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	groups := Aggregate([]models.ChangeRecord{
		change("Alpha", base, "a", 1),
		change("Alpha", base.Add(time.Minute), "a", 2),
		change("Beta", base, "b", 3),
	})
	if got := TotalChanges(groups); got != 3 {
		t.Errorf("TotalChanges = %d, want 3", got)
	}
}
