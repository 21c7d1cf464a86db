// Package overlay draws HUDs, landmarks, trails and toolbars onto gocv
// frames. Colours are plain color.RGBA in RGB order; gocv swaps them into
// BGR scalars itself.
package overlay

import "image/color"

var (
	Black   = color.RGBA{0, 0, 0, 255}
	White   = color.RGBA{255, 255, 255, 255}
	Red     = color.RGBA{255, 0, 0, 255}
	Green   = color.RGBA{0, 255, 0, 255}
	Blue    = color.RGBA{0, 0, 255, 255}
	Yellow  = color.RGBA{255, 255, 0, 255}
	Magenta = color.RGBA{255, 0, 255, 255}
	Cyan    = color.RGBA{0, 255, 255, 255}
)
