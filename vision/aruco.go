package vision

import (
	"image"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/swdee/go-arucotracker/marker"
	"gocv.io/x/gocv"
)

// ArucoDetector finds ArUco markers using the OpenCV objdetect module.  One
// OpenCV detector is created per vocabulary on first use
type ArucoDetector struct {
	// detectors keyed by vocabulary
	detectors map[marker.Vocabulary]*gocv.ArucoDetector
	sync.Mutex
}

// NewArucoDetector returns a marker detector using the default OpenCV
// detection parameters
func NewArucoDetector() *ArucoDetector {
	return &ArucoDetector{
		detectors: make(map[marker.Vocabulary]*gocv.ArucoDetector),
	}
}

// detector returns the OpenCV detector for the vocabulary
func (d *ArucoDetector) detector(vocab marker.Vocabulary) (*gocv.ArucoDetector, error) {

	if det, ok := d.detectors[vocab]; ok {
		return det, nil
	}

	code, err := DictionaryCode(vocab)

	if err != nil {
		return nil, err
	}

	dict := gocv.GetPredefinedDictionary(code)
	params := gocv.NewArucoDetectorParameters()
	det := gocv.NewArucoDetectorWithParams(dict, params)

	d.detectors[vocab] = &det

	return &det, nil
}

// Detect returns the markers of the vocabulary found in img in detection
// order.  Finding no markers is not an error
func (d *ArucoDetector) Detect(img image.Image, vocab marker.Vocabulary) ([]marker.Detection, error) {

	d.Lock()
	defer d.Unlock()

	det, err := d.detector(vocab)

	if err != nil {
		return nil, err
	}

	mat, owned, err := ToMat(img)

	if err != nil {
		return nil, err
	}

	if owned {
		defer mat.Close()
	}

	corners, ids, _ := det.DetectMarkers(mat)

	dets := make([]marker.Detection, 0, len(ids))

	for i, id := range ids {
		if i >= len(corners) || len(corners[i]) != 4 {
			continue
		}

		var q marker.Quad

		for c, pt := range corners[i] {
			q[c] = r2.Point{X: float64(pt.X), Y: float64(pt.Y)}
		}

		dets = append(dets, marker.Detection{ID: id, Corners: q})
	}

	return dets, nil
}

// Close releases the OpenCV detectors
func (d *ArucoDetector) Close() error {
	d.Lock()
	defer d.Unlock()

	for vocab, det := range d.detectors {
		det.Close()
		delete(d.detectors, vocab)
	}

	return nil
}
