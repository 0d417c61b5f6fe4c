package protocol

import (
	"bytes"
	"testing"
)

func framesEqual(t *testing.T, got []Frame, want ...[]byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("emitted %d frames, want %d", len(got), len(want))
	}
	for i, w := range want {
		wf, _, err := Decode(w)
		if err != nil {
			t.Fatalf("bad expectation %d: %v", i, err)
		}
		if got[i] != wf {
			t.Errorf("frame %d = %v, want %v", i, got[i], wf)
		}
	}
}

func TestScannerSingleFrame(t *testing.T) {
	sc := NewScanner()
	frame := dataFrameBytes(60, 80, 0xABAD)

	framesEqual(t, sc.Feed(frame), frame)
	if sc.Pending() != 0 {
		t.Errorf("pending = %d, want 0", sc.Pending())
	}
}

func TestScannerSkipsLeadingGarbage(t *testing.T) {
	sc := NewScanner()
	frame := ackFrameBytes(SubtypeWorkMode, 0x01, 0x01, 0x00, 0x1234)
	stream := append([]byte{0x00, 0x13, 0x37, 0xAB}, frame...)

	framesEqual(t, sc.Feed(stream), frame)
}

// A stray head byte between two valid frames must cost exactly one byte:
// both frames come out, in order, with no duplicates.
func TestScannerResynchronization(t *testing.T) {
	sc := NewScanner()
	first := dataFrameBytes(60, 80, 0xABAD)
	second := dataFrameBytes(123, 456, 0xABAD)

	stream := append(bytes.Clone(first), Head)
	stream = append(stream, second...)

	framesEqual(t, sc.Feed(stream), first, second)
}

func TestScannerDropsCorruptedFrame(t *testing.T) {
	sc := NewScanner()
	corrupted := dataFrameBytes(60, 80, 0xABAD)
	corrupted[4] ^= 0xFF // break the checksum
	valid := dataFrameBytes(11, 22, 0xABAD)

	framesEqual(t, sc.Feed(append(corrupted, valid...)), valid)
}

func TestScannerRetainsPartialFrame(t *testing.T) {
	sc := NewScanner()
	frame := dataFrameBytes(60, 80, 0xABAD)

	if got := sc.Feed(frame[:6]); len(got) != 0 {
		t.Fatalf("partial feed emitted %d frames, want 0", len(got))
	}
	if sc.Pending() != 6 {
		t.Errorf("pending = %d, want 6", sc.Pending())
	}

	framesEqual(t, sc.Feed(frame[6:]), frame)
}

// Chunk boundaries must not affect the emitted frame sequence.
func TestScannerFragmentationInvariance(t *testing.T) {
	first := dataFrameBytes(60, 80, 0xABAD)
	second := ackFrameBytes(SubtypeWorkingPeriod, 0x01, 5, 0x00, 0xABAD)
	third := dataFrameBytes(999, 1, 0xABAD)

	stream := append([]byte{0x07, Head, 0x99}, first...)
	stream = append(stream, 0xAA) // stray head
	stream = append(stream, second...)
	stream = append(stream, third...)
	stream = append(stream, 0x55)

	whole := NewScanner().Feed(stream)
	framesEqual(t, whole, first, second, third)

	for _, chunkSize := range []int{1, 2, 3, 7, 10, 13} {
		sc := NewScanner()
		var got []Frame
		for start := 0; start < len(stream); start += chunkSize {
			end := min(start+chunkSize, len(stream))
			got = append(got, sc.Feed(stream[start:end])...)
		}

		if len(got) != len(whole) {
			t.Fatalf("chunk size %d: emitted %d frames, want %d", chunkSize, len(got), len(whole))
		}
		for i := range got {
			if got[i] != whole[i] {
				t.Errorf("chunk size %d: frame %d = %v, want %v", chunkSize, i, got[i], whole[i])
			}
		}
	}
}

func TestScannerGarbageOnly(t *testing.T) {
	sc := NewScanner()
	if got := sc.Feed([]byte{0x01, 0x02, 0x03, 0xFF}); len(got) != 0 {
		t.Errorf("emitted %d frames from garbage, want 0", len(got))
	}
	if sc.Pending() != 0 {
		t.Errorf("pending = %d, want 0", sc.Pending())
	}
}
