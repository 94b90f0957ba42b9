package particle

// maxCell keeps the float to int conversion in range.
const maxCell = float32(1 << 30)

// Cell rounds a coordinate to its nearest integer cell. Negative, huge and
// non-finite coordinates map to -1 so callers only need one range check.
func Cell(v float32) int {
	r := v + 0.5
	if !(r >= 0) || r >= maxCell {
		return -1
	}
	return int(r)
}
