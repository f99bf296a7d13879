package analyzer

import "testing"

func TestPrioritize_SeverityFirst(t *testing.T) {
	recs := []Recommendation{
		{Type: TypeHighIndexRatio, Severity: Low},
		{Type: TypeHashSpill, Severity: Medium},
		{Type: TypeTableScan, Severity: High},
	}

	out := Prioritize(recs)
	want := []Type{TypeTableScan, TypeHashSpill, TypeHighIndexRatio}
	for i := range want {
		if out[i].Type != want[i] {
			t.Fatalf("order = %v, want %v", typesOf(out), want)
		}
	}
}

func TestPrioritize_TypePriorityWithinSeverity(t *testing.T) {
	recs := []Recommendation{
		{Type: TypeJoinBuffer, Severity: Medium},
		{Type: TypeHashSpill, Severity: Medium},
		{Type: TypeFilesort, Severity: Medium},
	}

	out := Prioritize(recs)
	want := []Type{TypeHashSpill, TypeFilesort, TypeJoinBuffer}
	for i := range want {
		if out[i].Type != want[i] {
			t.Fatalf("order = %v, want %v", typesOf(out), want)
		}
	}
}

func TestPrioritize_UnlistedTypesSortLast(t *testing.T) {
	recs := []Recommendation{
		{Type: TypeEstimateMismatch, Severity: Low, Message: "first unlisted"},
		{Type: TypeSlowPlanning, Severity: Low, Message: "second unlisted"},
		{Type: TypeHighIndexRatio, Severity: Low},
	}

	out := Prioritize(recs)
	if out[0].Type != TypeHighIndexRatio {
		t.Fatalf("listed type must sort before unlisted, got %v", typesOf(out))
	}
	if out[1].Message != "first unlisted" || out[2].Message != "second unlisted" {
		t.Fatalf("unlisted types must keep input order, got %q then %q", out[1].Message, out[2].Message)
	}
}

func TestPrioritize_StableForEqualKeys(t *testing.T) {
	recs := []Recommendation{
		{Type: TypeTableScan, Severity: High, Message: "first"},
		{Type: TypeTableScan, Severity: High, Message: "second"},
	}

	out := Prioritize(recs)
	if out[0].Message != "first" || out[1].Message != "second" {
		t.Fatalf("equal keys must keep input order, got %q then %q", out[0].Message, out[1].Message)
	}
}

func TestPrioritize_DoesNotMutateInput(t *testing.T) {
	recs := []Recommendation{
		{Type: TypeHighIndexRatio, Severity: Low},
		{Type: TypeTableScan, Severity: High},
	}

	Prioritize(recs)
	if recs[0].Type != TypeHighIndexRatio {
		t.Fatal("input slice was reordered")
	}
}

func TestPrioritize_SingletonAndEmpty(t *testing.T) {
	single := []Recommendation{{Type: TypeTableScan, Severity: High}}
	out := Prioritize(single)
	if len(out) != 1 || out[0].Type != TypeTableScan {
		t.Fatalf("singleton changed: %v", out)
	}

	if out := Prioritize(nil); len(out) != 0 {
		t.Fatalf("empty input produced %v", out)
	}
}
