package render

import (
	"hash/fnv"
	"image/color"
)

// palette is the Tableau 20 color cycle used to tell rigid bodies apart
var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 174, G: 199, B: 232, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 255, G: 187, B: 120, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 152, G: 223, B: 138, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 255, G: 152, B: 150, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 197, G: 176, B: 213, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 196, G: 156, B: 148, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 247, G: 182, B: 210, A: 255},
	{R: 127, G: 127, B: 127, A: 255},
	{R: 199, G: 199, B: 199, A: 255},
	{R: 188, G: 189, B: 34, A: 255},
	{R: 219, G: 219, B: 141, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
	{R: 158, G: 218, B: 229, A: 255},
}

var (
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow  = color.RGBA{R: 255, G: 230, B: 0, A: 255}
	Magenta = color.RGBA{R: 230, G: 0, B: 230, A: 255}

	// axisColors paint the x, y and z pose axes red, green and blue
	axisColors = [3]color.RGBA{
		{R: 230, G: 25, B: 25, A: 255},
		{R: 25, G: 200, B: 25, A: 255},
		{R: 25, G: 90, B: 230, A: 255},
	}
)

// BodyColor picks a palette color from the rigid body name so a body keeps
// its color from frame to frame
func BodyColor(name string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(name))

	return palette[h.Sum32()%uint32(len(palette))]
}
