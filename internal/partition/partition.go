// Package partition splits index ranges into disjoint contiguous chunks, one
// per worker.
//
// Every function here returns ranges that exactly cover their input: no index
// is dropped and none is visited twice. The last range absorbs the remainder
// of an uneven division.
package partition

// Range is a half-open index interval [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

func (r Range) Empty() bool { return r.End <= r.Start }

// Split divides [0, count) into exactly workers ranges. Each range except the
// last holds count/workers elements; the last extends to count.
func Split(count, workers int) []Range {
	if workers < 1 {
		workers = 1
	}
	if count < 0 {
		count = 0
	}
	return SplitInto(make([]Range, workers), count)
}

// SplitInto fills dst with len(dst) ranges covering [0, count) and returns it.
// It does not allocate, so frame loops can reuse one slice.
func SplitInto(dst []Range, count int) []Range {
	workers := len(dst)
	if workers == 0 {
		return dst
	}

	chunkSize := count / workers
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if w == workers-1 {
			end = count
		}
		dst[w] = Range{Start: start, End: end}
	}
	return dst
}

// Rows divides a width x height cell grid into row bands. Ranges are in cell
// indices, so Start and End are always multiples of width.
func Rows(width, height, workers int) []Range {
	bands := Split(height, workers)
	for i := range bands {
		bands[i].Start *= width
		bands[i].End *= width
	}
	return bands
}

// Aligned splits r into a body whose length is a multiple of lane and the
// remaining scalar tail.
func Aligned(r Range, lane int) (body, tail Range) {
	if lane <= 1 || r.Empty() {
		return r, Range{Start: r.End, End: r.End}
	}
	n := r.Len() - r.Len()%lane
	body = Range{Start: r.Start, End: r.Start + n}
	tail = Range{Start: body.End, End: r.End}
	return body, tail
}
