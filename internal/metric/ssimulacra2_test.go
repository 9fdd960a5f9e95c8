package metric

import "testing"

func TestParseFrameScores(t *testing.T) {
	input := []byte("0 85.123\n1 86.400\n\nmalformed line\n2 84.900\n")
	scores, err := parseFrameScores(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{85.123, 86.400, 84.900}
	if len(scores) != len(want) {
		t.Fatalf("got %d scores, want %d: %v", len(scores), len(want), scores)
	}
	for i, s := range scores {
		if s != want[i] {
			t.Errorf("score[%d] = %v, want %v", i, s, want[i])
		}
	}
}

func TestParseFrameScoresEmpty(t *testing.T) {
	scores, err := parseFrameScores([]byte(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected no scores, got %v", scores)
	}
}

func TestAggregateMean(t *testing.T) {
	scores := []float64{80, 85, 90}
	got := aggregate(scores, "mean")
	want := 85.0
	if got != want {
		t.Errorf("aggregate mean = %v, want %v", got, want)
	}
}

func TestAggregatePercentile(t *testing.T) {
	scores := []float64{60, 70, 80, 90, 100}
	got := aggregate(scores, "p0")
	if got != 60 {
		t.Errorf("p0 = %v, want 60", got)
	}
	got = aggregate(scores, "p100")
	if got != 100 {
		t.Errorf("p100 = %v, want 100", got)
	}
}

func TestPercentileUnsorted(t *testing.T) {
	scores := []float64{90, 60, 100, 70, 80}
	got := percentile(scores, 50)
	if got != 80 {
		t.Errorf("median = %v, want 80", got)
	}
}
