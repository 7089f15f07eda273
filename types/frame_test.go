package types

import "testing"

func TestFrameRefSetAcrossDepth(t *testing.T) {
	outer := NewFrame(2, nil, nil)
	outer.Slots[0] = SmallInt(10)
	outer.Slots[1] = SmallInt(20)

	inner := NewFrame(1, outer, nil)
	inner.Slots[0] = SmallInt(99)

	if got := inner.Ref(0, 0); !got.Equal(SmallInt(99)) {
		t.Fatalf("depth 0: got %v", got)
	}
	if got := inner.Ref(1, 1); !got.Equal(SmallInt(20)) {
		t.Fatalf("depth 1 index 1: got %v", got)
	}

	inner.Set(1, 0, SmallInt(-1))
	if got := outer.Ref(0, 0); !got.Equal(SmallInt(-1)) {
		t.Fatalf("Set through depth did not mutate the outer frame: got %v", got)
	}
}
