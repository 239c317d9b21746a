package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	clipper "github.com/ctessum/go.clipper"
	"github.com/golang/geo/r2"
	"github.com/swdee/go-arucotracker/marker"
	"github.com/swdee/go-arucotracker/tracker"
	"gocv.io/x/gocv"
)

// MarkerStyle defines the parameters used for rendering detected markers
type MarkerStyle struct {
	// Offset is the distance in pixels the outline is drawn outside of the
	// detected corners so it does not cover them
	Offset        float64
	LineThickness int
	// CornerRadius is the radius of the circle marking the first corner of
	// each marker, zero disables it
	CornerRadius int
	// ShowIDs draws the marker id at the centre of each marker
	ShowIDs bool
}

// DefaultMarkerStyle returns default marker style settings
func DefaultMarkerStyle() MarkerStyle {
	return MarkerStyle{
		Offset:        3,
		LineThickness: 2,
		CornerRadius:  3,
		ShowIDs:       true,
	}
}

// bodyLabel is a precalculated body label rendered after all outlines
type bodyLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// Markers renders an outline around each observed marker and labels every
// seen rigid body with its name and tracking quality
func Markers(img *gocv.Mat, results []tracker.Result, font, idFont Font, style MarkerStyle) {

	// keep a record of all body labels for later rendering
	labels := make([]bodyLabel, 0)

	for _, res := range results {

		if len(res.Markers) == 0 {
			continue
		}

		useClr := BodyColor(res.Name)

		var pts []r2.Point

		for _, m := range res.Markers {
			outline := OffsetOutline(m.Corners, style.Offset)

			for i := range outline {
				gocv.Line(img, outline[i], outline[(i+1)%len(outline)], useClr, style.LineThickness)
			}

			corners := m.Corners.Image()

			if style.CornerRadius > 0 {
				gocv.Circle(img, corners[0], style.CornerRadius, useClr, -1)
			}

			if style.ShowIDs {
				text := fmt.Sprintf("%d", m.ID)
				size := idFont.textBox(text)
				c := m.Corners.Centre()

				idFont.put(img, text, image.Pt(int(c.X)-size.X/2, int(c.Y)+size.Y/2))
			}

			pts = append(pts, m.Corners[:]...)
		}

		bounds := r2.RectFromPoints(pts...)
		box := image.Rect(int(bounds.X.Lo), int(bounds.Y.Lo), int(bounds.X.Hi), int(bounds.Y.Hi))

		labels = append(labels, newBodyLabel(res, box, useClr, font, style.LineThickness))
	}

	// labels go on last so outlines of neighbouring bodies never cover them
	for _, lbl := range labels {
		gocv.Rectangle(img, lbl.rect, lbl.clr, -1)
		font.put(img, lbl.text, lbl.textPos)
	}
}

// newBodyLabel places a body label on top of the body's bounding box
func newBodyLabel(res tracker.Result, box image.Rectangle, clr color.RGBA,
	font Font, lineThickness int) bodyLabel {

	text := fmt.Sprintf("%s %.2f", res.Name, res.Quality)
	size := font.textBox(text)

	x := box.Min.X

	switch font.Align {
	case AlignCenter:
		x = (box.Min.X+box.Max.X)/2 - size.X/2
	case AlignRight:
		x = box.Max.X - size.X
	}

	bottom := box.Min.Y - lineThickness

	return bodyLabel{
		rect:    image.Rect(x, bottom-size.Y, x+size.X, bottom),
		clr:     clr,
		text:    text,
		textPos: image.Pt(x, bottom),
	}
}

// OffsetOutline returns the marker quad grown outward by distance pixels
// with mitred corners.  A non positive distance returns the quad corners
func OffsetOutline(q marker.Quad, distance float64) []image.Point {

	corners := q.Image()

	if distance <= 0 {
		return corners[:]
	}

	var path clipper.Path

	for _, pt := range q {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(math.Round(pt.X)),
			Y: clipper.CInt(math.Round(pt.Y)),
		})
	}

	// create a ClipperOffset object and add the path
	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtMiter, clipper.EtClosedPolygon)

	// execute the offset operation
	solution := co.Execute(distance)

	if len(solution) == 0 {
		return corners[:]
	}

	points := make([]image.Point, 0, len(solution[0]))

	for _, pt := range solution[0] {
		points = append(points, image.Pt(int(pt.X), int(pt.Y)))
	}

	return points
}
