//

package vm

import "testing"

func TestFrameCount(t *testing.T) {
	for fc, want := range map[byte]int{0: 0, 1: 1, 4: 4, 0xf: 1} {
		if got := FrameCount(fc); got != want {
			t.Errorf("FrameCount(%#x) = %d, want %d", fc, got, want)
		}
	}
}

func TestFrameConvert(t *testing.T) {
	// pad with nil
	fr := Frame{NewNum(1)}
	fr.Convert(1, 3)
	if !Equal(fr[0], NewNum(1)) || fr[1] != nil || fr[2] != nil {
		t.Errorf("pad: %v", fr)
	}

	// drop excess
	fr = Frame{NewNum(1), NewNum(2), NewNum(3)}
	fr.Convert(3, 1)
	if !Equal(fr[0], NewNum(1)) || fr[1] != nil || fr[2] != nil {
		t.Errorf("drop: %v", fr)
	}

	// box into a table
	fr = Frame{NewNum(1), NewNum(2)}
	fr.Convert(2, 0xf)
	boxed, ok := fr[0].(*Tbl)
	if !ok || boxed.Len() != 2 || !Equal(boxed.Lookup(NumFromInt(1)), NewNum(2)) {
		t.Fatalf("box: %v", fr[0])
	}

	// and unbox again
	fr[0] = boxed
	fr.Convert(0xf, 2)
	if !Equal(fr[0], NewNum(1)) || !Equal(fr[1], NewNum(2)) {
		t.Errorf("unbox: %v", fr)
	}

	// tabled to tabled is the identity
	fr = Frame{boxed}
	fr.Convert(0xf, 0xf)
	if fr[0] != Value(boxed) {
		t.Errorf("tabled identity: %v", fr[0])
	}
}
