package achievement

import (
	"reflect"
	"testing"
)

func badge(id int, cat Category, ct CriteriaType, v float64) Badge {
	return Badge{ID: id, Name: "b", Category: cat, CriteriaType: ct, CriteriaValue: v, IsActive: true}
}

func TestEvaluateCountBadgeAtThreshold(t *testing.T) {
	catalog := []Badge{badge(7, CategoryTraining, CriteriaCount, 10)}
	metrics := Metrics{CategoryTraining: {Count: 10}}

	got := NewEvaluator(nil).Evaluate(metrics, catalog, nil, nil)
	if !reflect.DeepEqual(got, []int{7}) {
		t.Fatalf("earned: want=[7] got=%v", got)
	}
}

func TestEvaluateBelowThreshold(t *testing.T) {
	catalog := []Badge{
		badge(1, CategoryTraining, CriteriaCount, 10),
		badge(2, CategoryConsistency, CriteriaStreak, 5),
	}
	metrics := Metrics{
		CategoryTraining:    {Count: 9},
		CategoryConsistency: {CurrentStreak: 4},
	}
	if got := NewEvaluator(nil).Evaluate(metrics, catalog, nil, nil); len(got) != 0 {
		t.Fatalf("earned: want=[] got=%v", got)
	}
}

func TestEvaluateStreakUsesCurrentStreak(t *testing.T) {
	catalog := []Badge{badge(3, CategoryTraining, CriteriaStreak, 7)}
	metrics := Metrics{CategoryTraining: {Count: 100, CurrentStreak: 7}}
	got := NewEvaluator(nil).Evaluate(metrics, catalog, nil, nil)
	if !reflect.DeepEqual(got, []int{3}) {
		t.Fatalf("earned: want=[3] got=%v", got)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	catalog := []Badge{
		badge(1, CategoryTraining, CriteriaCount, 1),
		badge(2, CategoryTechnique, CriteriaCount, 3),
		badge(3, CategoryTraining, CriteriaStreak, 2),
	}
	metrics := Metrics{
		CategoryTraining:  {Count: 5, CurrentStreak: 2},
		CategoryTechnique: {Count: 3},
	}
	ev := NewEvaluator(nil)
	first := ev.Evaluate(metrics, catalog, nil, nil)
	if !reflect.DeepEqual(first, []int{1, 2, 3}) {
		t.Fatalf("first: want=[1 2 3] got=%v", first)
	}
	earned := map[int]bool{}
	for _, id := range first {
		earned[id] = true
	}
	if second := ev.Evaluate(metrics, catalog, earned, nil); len(second) != 0 {
		t.Fatalf("second: want=[] got=%v", second)
	}
}

func TestEvaluateSkipsInactiveAndEarned(t *testing.T) {
	inactive := badge(1, CategoryTraining, CriteriaCount, 1)
	inactive.IsActive = false
	catalog := []Badge{inactive, badge(2, CategoryTraining, CriteriaCount, 1)}
	metrics := Metrics{CategoryTraining: {Count: 10}}
	got := NewEvaluator(nil).Evaluate(metrics, catalog, map[int]bool{2: true}, nil)
	if len(got) != 0 {
		t.Fatalf("earned: want=[] got=%v", got)
	}
}

func TestEvaluateUnknownCriteriaTypeIsSkipped(t *testing.T) {
	catalog := []Badge{
		badge(1, CategoryTraining, CriteriaType("percentile"), 1),
		badge(2, CategoryTraining, CriteriaCount, 1),
	}
	metrics := Metrics{CategoryTraining: {Count: 1}}
	got := NewEvaluator(nil).Evaluate(metrics, catalog, nil, nil)
	if !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("earned: want=[2] got=%v", got)
	}
}

func TestEvaluateUnknownCategoryDefaultsToZero(t *testing.T) {
	catalog := []Badge{
		badge(1, Category("sleep"), CriteriaCount, 1),
		badge(2, Category("sleep"), CriteriaCount, 0),
	}
	got := NewEvaluator(nil).Evaluate(Metrics{}, catalog, nil, nil)
	if !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("earned: want=[2] got=%v", got)
	}
}

func TestEvaluateMilestoneNeedsSignal(t *testing.T) {
	catalog := []Badge{
		badge(1, CategoryTraining, CriteriaMilestone, 1),
		badge(2, CategoryTechnique, CriteriaAchievement, 0),
		badge(3, CategoryTraining, CriteriaMilestone, 0),
	}
	metrics := Metrics{CategoryTraining: {Count: 1000, CurrentStreak: 1000}}
	ev := NewEvaluator(nil)

	if got := ev.Evaluate(metrics, catalog, nil, nil); len(got) != 0 {
		t.Fatalf("no signal: want=[] got=%v", got)
	}
	got := ev.Evaluate(metrics, catalog, nil, SignalSet(2, 3))
	if !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("signal: want=[2 3] got=%v", got)
	}
}

func TestEvaluateDuplicateCatalogEntries(t *testing.T) {
	b := badge(4, CategoryTraining, CriteriaCount, 1)
	got := NewEvaluator(nil).Evaluate(Metrics{CategoryTraining: {Count: 1}}, []Badge{b, b}, nil, nil)
	if !reflect.DeepEqual(got, []int{4}) {
		t.Fatalf("earned: want=[4] got=%v", got)
	}
}

func TestProgress(t *testing.T) {
	cases := []struct {
		name string
		m    Metric
		b    Badge
		want float64
	}{
		{"half", Metric{Count: 5}, badge(1, CategoryTraining, CriteriaCount, 10), 0.5},
		{"capped", Metric{Count: 50}, badge(1, CategoryTraining, CriteriaCount, 10), 1},
		{"streak", Metric{CurrentStreak: 1}, badge(1, CategoryTraining, CriteriaStreak, 4), 0.25},
		{"milestone", Metric{Count: 50}, badge(1, CategoryTraining, CriteriaMilestone, 1), 0},
		{"zero threshold", Metric{}, badge(1, CategoryTraining, CriteriaCount, 0), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Progress(tc.m, tc.b); got != tc.want {
				t.Fatalf("progress: want=%v got=%v", tc.want, got)
			}
		})
	}
}
