package render

import (
	"image"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/swdee/go-arucotracker/marker"
	"github.com/swdee/go-arucotracker/pose"
	"github.com/swdee/go-arucotracker/tracker"
	"go.viam.com/test"
	"gocv.io/x/gocv"
)

func square() marker.Quad {
	return marker.Quad{
		r2.Point{X: 100, Y: 100},
		r2.Point{X: 200, Y: 100},
		r2.Point{X: 200, Y: 200},
		r2.Point{X: 100, Y: 200},
	}
}

func TestBodyColorStable(t *testing.T) {
	test.That(t, BodyColor("wand"), test.ShouldResemble, BodyColor("wand"))
}

func TestOffsetOutline(t *testing.T) {

	outline := OffsetOutline(square(), 5)
	test.That(t, len(outline), test.ShouldBeGreaterThanOrEqualTo, 4)

	bounds := image.Rectangle{Min: outline[0], Max: outline[0]}

	for _, p := range outline {
		bounds = bounds.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}

	test.That(t, bounds.Min.X, test.ShouldBeLessThan, 100)
	test.That(t, bounds.Min.Y, test.ShouldBeLessThan, 100)
	test.That(t, bounds.Max.X, test.ShouldBeGreaterThan, 200)
	test.That(t, bounds.Max.Y, test.ShouldBeGreaterThan, 200)

	// no offset keeps the detected corners
	plain := OffsetOutline(square(), 0)
	test.That(t, plain, test.ShouldResemble, []image.Point{
		{X: 100, Y: 100}, {X: 200, Y: 100}, {X: 200, Y: 200}, {X: 100, Y: 200},
	})
}

func TestAxisPoints(t *testing.T) {

	cam, err := pose.NewCamera([][]float64{
		{500, 0, 320},
		{0, 500, 240},
		{0, 0, 1},
	}, nil)
	test.That(t, err, test.ShouldBeNil)

	p := pose.Known(pose.Identity(), r3.Vector{Z: 500})

	pts, ok := AxisPoints(p, cam, 50)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pts[0], test.ShouldResemble, image.Pt(320, 240))
	test.That(t, pts[1], test.ShouldResemble, image.Pt(370, 240))
	test.That(t, pts[2], test.ShouldResemble, image.Pt(320, 290))

	_, ok = AxisPoints(pose.Unknown(), cam, 50)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestDrawOverlays(t *testing.T) {

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	defer img.Close()

	results := []tracker.Result{
		{
			Name:    "wand",
			Pose:    pose.Unknown(),
			Quality: 1,
			Markers: []marker.Detection{{ID: 3, Corners: square()}},
		},
		{Name: "hidden", Pose: pose.Unknown()},
	}

	trail := tracker.NewTrail(10)
	trail.Add(results[0])
	trail.Add(results[0])

	Markers(&img, results, LabelFont(), IDFont(), DefaultMarkerStyle())
	Trail(&img, results, trail, DefaultTrailStyle())
	Axes(&img, results, nil, 50, 2)

	test.That(t, gocv.CountNonZero(img), test.ShouldBeGreaterThan, 0)
}

func TestBodyLabelPlacement(t *testing.T) {

	box := image.Rect(100, 100, 300, 200)
	res := tracker.Result{Name: "wand", Quality: 0.5}

	font := LabelFont()
	lbl := newBodyLabel(res, box, BodyColor(res.Name), font, 2)
	test.That(t, lbl.text, test.ShouldEqual, "wand 0.50")
	test.That(t, lbl.rect.Min.X, test.ShouldEqual, 100)
	test.That(t, lbl.rect.Max.Y, test.ShouldEqual, 98)
	test.That(t, lbl.rect.Dy(), test.ShouldBeGreaterThan, 2*font.Pad.Y)

	font.Align = AlignRight
	lbl = newBodyLabel(res, box, BodyColor(res.Name), font, 2)
	test.That(t, lbl.rect.Max.X, test.ShouldEqual, 300)

	font.Align = AlignCenter
	lbl = newBodyLabel(res, box, BodyColor(res.Name), font, 2)
	test.That(t, (lbl.rect.Min.X+lbl.rect.Max.X)/2, test.ShouldAlmostEqual, 200, 1)
}
