package notify

import "testing"

func TestErrorTrackerDedupesIdenticalMessages(t *testing.T) {
	tr := NewErrorTracker()

	if !tr.Record(ErrorTypeScan, "disk full") {
		t.Error("first occurrence should be reported as new")
	}
	if tr.Record(ErrorTypeScan, "disk full") {
		t.Error("identical repeat should not be reported as new")
	}
	if !tr.Record(ErrorTypeScan, "disk full again, different message") {
		t.Error("a changed message for the same type should be reported as new")
	}
}

func TestErrorTrackerResolve(t *testing.T) {
	tr := NewErrorTracker()
	if tr.Resolve(ErrorTypeThrottle) {
		t.Error("resolving a type with no recorded error should report false")
	}

	tr.Record(ErrorTypeThrottle, "quota exceeded")
	if !tr.Resolve(ErrorTypeThrottle) {
		t.Error("resolving a recorded error should report true")
	}
	if len(tr.Active()) != 0 {
		t.Errorf("expected no active errors after resolve, got %v", tr.Active())
	}
}
