package render

import (
	"github.com/swdee/go-arucotracker/tracker"
	"gocv.io/x/gocv"
	"image/color"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same color as that of the body.  If set to false then use
	// the color specified at LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame defines if the color of the current position circle should
	// be the same color as that of the body.  If set to false then use
	// the color specified at CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
		CircleSame:    true,
		CircleColor:   Magenta,
		CircleRadius:  3,
	}
}

// Trail draws the rigid body trail lines on the source image.
func Trail(img *gocv.Mat, results []tracker.Result, trail *tracker.Trail,
	style TrailStyle) {

	for _, res := range results {

		objClr := BodyColor(res.Name)

		// determine style colors to use
		lineClr := objClr
		circleClr := objClr

		if !style.LineSame {
			lineClr = style.LineColor
		}

		if !style.CircleSame {
			circleClr = style.CircleColor
		}

		// draw trail line showing tracking history
		points := trail.GetPoints(res.Name)

		if len(points) < 2 {
			continue
		}

		for i := 1; i < len(points); i++ {
			// draw line segment of trail
			gocv.Line(img, points[i-1], points[i], lineClr, style.LineThickness)
		}

		// draw circle on the most recent position
		gocv.Circle(img, points[len(points)-1], style.CircleRadius, circleClr, -1)
	}
}
