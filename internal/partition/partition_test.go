package partition

import (
	"testing"
)

func checkCoverage(t *testing.T, ranges []Range, count int) {
	t.Helper()

	seen := make([]int, count)
	for _, r := range ranges {
		if r.Start < 0 || r.End > count || r.Start > r.End {
			t.Fatalf("range %+v outside [0,%d)", r, count)
		}
		for i := r.Start; i < r.End; i++ {
			seen[i]++
		}
	}
	for i, n := range seen {
		if n != 1 {
			t.Fatalf("index %d covered %d times", i, n)
		}
	}
}

func TestSplitCoverage(t *testing.T) {
	counts := []int{0, 1, 7, 8, 64, 100, 1000, 100003}
	for _, count := range counts {
		for workers := 1; workers <= 17; workers++ {
			ranges := Split(count, workers)
			if len(ranges) != workers {
				t.Fatalf("Split(%d,%d) returned %d ranges", count, workers, len(ranges))
			}
			checkCoverage(t, ranges, count)
		}
	}
}

func TestSplitRemainderGoesToLast(t *testing.T) {
	ranges := Split(10, 3)
	want := []Range{{0, 3}, {3, 6}, {6, 10}}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, ranges[i], want[i])
		}
	}
}

func TestSplitFewerElementsThanWorkers(t *testing.T) {
	ranges := Split(3, 8)
	for i := 0; i < 7; i++ {
		if !ranges[i].Empty() {
			t.Errorf("range %d should be empty, got %+v", i, ranges[i])
		}
	}
	if ranges[7] != (Range{0, 3}) {
		t.Errorf("last range = %+v, want {0 3}", ranges[7])
	}
}

func TestSplitZeroWorkers(t *testing.T) {
	ranges := Split(16, 0)
	if len(ranges) != 1 || ranges[0] != (Range{0, 16}) {
		t.Errorf("expected single full range, got %+v", ranges)
	}
}

func TestSplitLaneAligned(t *testing.T) {
	ranges := Split(8*1024, 4)
	for _, r := range ranges {
		if r.Len()%8 != 0 {
			t.Errorf("range %+v not lane aligned", r)
		}
	}
}

func TestRows(t *testing.T) {
	width, height := 7, 10
	bands := Rows(width, height, 3)
	checkCoverage(t, bands, width*height)
	for _, b := range bands {
		if b.Start%width != 0 || b.End%width != 0 {
			t.Errorf("band %+v not row aligned", b)
		}
	}
}

func TestAligned(t *testing.T) {
	tests := []struct {
		r          Range
		lane       int
		body, tail Range
	}{
		{Range{0, 16}, 8, Range{0, 16}, Range{16, 16}},
		{Range{3, 22}, 8, Range{3, 19}, Range{19, 22}},
		{Range{5, 9}, 8, Range{5, 5}, Range{5, 9}},
		{Range{4, 4}, 8, Range{4, 4}, Range{4, 4}},
		{Range{0, 5}, 1, Range{0, 5}, Range{5, 5}},
	}

	for _, tt := range tests {
		body, tail := Aligned(tt.r, tt.lane)
		if body != tt.body || tail != tt.tail {
			t.Errorf("Aligned(%+v,%d) = %+v,%+v want %+v,%+v", tt.r, tt.lane, body, tail, tt.body, tt.tail)
		}
	}
}
