package vision

import (
	"github.com/pkg/errors"
	"github.com/swdee/go-arucotracker/marker"
	"gocv.io/x/gocv"
)

// dictionaries maps each marker vocabulary to its OpenCV predefined
// dictionary
var dictionaries = map[marker.Vocabulary]gocv.ArucoDictionaryCode{
	marker.Dict4X4_50:        gocv.ArucoDict4x4_50,
	marker.Dict4X4_100:       gocv.ArucoDict4x4_100,
	marker.Dict4X4_250:       gocv.ArucoDict4x4_250,
	marker.Dict4X4_1000:      gocv.ArucoDict4x4_1000,
	marker.Dict5X5_50:        gocv.ArucoDict5x5_50,
	marker.Dict5X5_100:       gocv.ArucoDict5x5_100,
	marker.Dict5X5_250:       gocv.ArucoDict5x5_250,
	marker.Dict5X5_1000:      gocv.ArucoDict5x5_1000,
	marker.Dict6X6_50:        gocv.ArucoDict6x6_50,
	marker.Dict6X6_100:       gocv.ArucoDict6x6_100,
	marker.Dict6X6_250:       gocv.ArucoDict6x6_250,
	marker.Dict6X6_1000:      gocv.ArucoDict6x6_1000,
	marker.Dict7X7_50:        gocv.ArucoDict7x7_50,
	marker.Dict7X7_100:       gocv.ArucoDict7x7_100,
	marker.Dict7X7_250:       gocv.ArucoDict7x7_250,
	marker.Dict7X7_1000:      gocv.ArucoDict7x7_1000,
	marker.DictArucoOriginal: gocv.ArucoDictArucoOriginal,
	marker.DictAprilTag16h5:  gocv.ArucoDictAprilTag_16h5,
	marker.DictAprilTag25h9:  gocv.ArucoDictAprilTag_25h9,
	marker.DictAprilTag36h10: gocv.ArucoDictAprilTag_36h10,
	marker.DictAprilTag36h11: gocv.ArucoDictAprilTag_36h11,
}

// DictionaryCode returns the OpenCV dictionary of the vocabulary
func DictionaryCode(vocab marker.Vocabulary) (gocv.ArucoDictionaryCode, error) {

	code, ok := dictionaries[vocab]

	if !ok {
		return 0, errors.Wrapf(marker.ErrUnknownVocabulary, "no OpenCV dictionary for %s", vocab)
	}

	return code, nil
}
