package errors

import "testing"

func TestWithKindRoundTrip(t *testing.T) {
	err := WithKind(New("rate limited"), KindTransientIO)

	kind, ok := KindOf(err)
	if !ok || kind != KindTransientIO {
		t.Fatalf("expected KindTransientIO, got %v (ok=%v)", kind, ok)
	}
	if !IsKind(err, KindTransientIO) {
		t.Fatalf("IsKind should match KindTransientIO")
	}
	if IsKind(err, KindFatal) {
		t.Fatalf("IsKind should not match KindFatal")
	}
}

func TestWithKindNil(t *testing.T) {
	if WithKind(nil, KindFatal) != nil {
		t.Fatalf("WithKind(nil, ...) should return nil")
	}
	if _, ok := KindOf(New("plain")); ok {
		t.Fatalf("plain error should have no attached kind")
	}
}

func TestWithKindPreservesWrap(t *testing.T) {
	base := New("lease unknown")
	err := WithKind(Wrap(base, "release"), KindFatal)

	if !Is(err, base) {
		t.Fatalf("WithKind should not break Is() against the wrapped cause")
	}
}
