// Package viz renders engine frames for the terminal.
//
//   - [Canvas]: braille grid, 2x4 dots per character, with [Canvas.Plot]
//     downsampling a frame onto it
//   - [Theme] and [Styles]: lipgloss color schemes for the live view
//   - sparklines and bars for frame time and coverage
package viz
