// File: internal/chart/palette.go
package chart

import (
	"image/color"
)

// Corporate identity greens used across all panels.
var (
	BrandGreen    = color.RGBA{R: 0x00, G: 0x59, B: 0x53, A: 0xff}
	LightGreen    = color.RGBA{R: 0x69, G: 0xa3, B: 0xa2, A: 0xff}
	LighterGreen  = color.RGBA{R: 0xa2, G: 0xc5, B: 0xc4, A: 0xff}
	LightestGreen = color.RGBA{R: 0xe6, G: 0xef, B: 0xee, A: 0xff}
)

// AnnotationGray is used for the footer annotation text.
var AnnotationGray = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
