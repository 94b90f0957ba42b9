// Package export writes frames and frame-time series to files: PNG for the
// full-resolution frame, SVG for braille snapshots and timing charts.
package export
