package host

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestKind_String(t *testing.T) {
	t.Parallel()
	tests := []struct {
		kind Kind
		want string
	}{
		{KindScavenge, "scavenge"},
		{KindMarkSweepCompact, "markSweepCompact"},
		{KindIncrementalMarking, "incrementalMarking"},
		{KindProcessWeakCallbacks, "processWeakCallbacks"},
		{KindUnknown, "unknown"},
		{KindScavenge | KindMarkSweepCompact, "unknown"},
		{Kind(0xff), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKind_ParseRoundTrip(t *testing.T) {
	t.Parallel()
	properties := gopter.NewProperties(nil)

	properties.Property("every kind maps to a name that parses back, or unknown", prop.ForAll(
		func(v uint8) bool {
			k := Kind(v)
			parsed, ok := ParseKind(k.String())
			if k.String() == "unknown" {
				return !ok && parsed == KindUnknown
			}
			return ok && parsed == k
		},
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

func TestHookSet(t *testing.T) {
	t.Parallel()
	var s HookSet
	var order []string

	s.Fire(KindScavenge) // no hooks: no-op

	removeA := s.Add(func(k Kind) { order = append(order, "a:"+k.String()) })
	s.Add(func(k Kind) { order = append(order, "b:"+k.String()) })
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	s.Fire(KindScavenge)
	removeA()
	removeA()
	s.Fire(KindMarkSweepCompact)

	want := []string{"a:scavenge", "b:scavenge", "b:markSweepCompact"}
	if len(order) != len(want) {
		t.Fatalf("fired %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("fired[%d] = %q, want %q", i, order[i], want[i])
		}
	}
	if s.Len() != 1 {
		t.Errorf("Len() after remove = %d, want 1", s.Len())
	}
}

func TestHookSet_RemoveDuringFire(t *testing.T) {
	t.Parallel()
	var s HookSet
	calls := 0
	var remove func()
	remove = s.Add(func(Kind) {
		calls++
		remove()
	})
	s.Fire(KindScavenge)
	s.Fire(KindScavenge)
	if calls != 1 {
		t.Errorf("self-removing hook ran %d times, want 1", calls)
	}
}
