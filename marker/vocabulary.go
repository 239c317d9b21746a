package marker

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"sort"
)

// ErrUnknownVocabulary is returned when a marker vocabulary name is not one
// of the registered dictionaries
var ErrUnknownVocabulary = errors.New("unknown marker vocabulary")

// Vocabulary identifies a predefined fiducial marker dictionary.  Marker ids
// are only unique within a single Vocabulary
type Vocabulary int

const (
	Dict4X4_50 Vocabulary = iota
	Dict4X4_100
	Dict4X4_250
	Dict4X4_1000
	Dict5X5_50
	Dict5X5_100
	Dict5X5_250
	Dict5X5_1000
	Dict6X6_50
	Dict6X6_100
	Dict6X6_250
	Dict6X6_1000
	Dict7X7_50
	Dict7X7_100
	Dict7X7_250
	Dict7X7_1000
	DictArucoOriginal
	DictAprilTag16h5
	DictAprilTag25h9
	DictAprilTag36h10
	DictAprilTag36h11
)

// DefaultVocabulary is the dictionary used when none has been configured
const DefaultVocabulary = Dict4X4_50

// vocabularyNames is the registration table of canonical dictionary names,
// it is built once and never modified
var vocabularyNames = map[Vocabulary]string{
	Dict4X4_50:        "DICT_4X4_50",
	Dict4X4_100:       "DICT_4X4_100",
	Dict4X4_250:       "DICT_4X4_250",
	Dict4X4_1000:      "DICT_4X4_1000",
	Dict5X5_50:        "DICT_5X5_50",
	Dict5X5_100:       "DICT_5X5_100",
	Dict5X5_250:       "DICT_5X5_250",
	Dict5X5_1000:      "DICT_5X5_1000",
	Dict6X6_50:        "DICT_6X6_50",
	Dict6X6_100:       "DICT_6X6_100",
	Dict6X6_250:       "DICT_6X6_250",
	Dict6X6_1000:      "DICT_6X6_1000",
	Dict7X7_50:        "DICT_7X7_50",
	Dict7X7_100:       "DICT_7X7_100",
	Dict7X7_250:       "DICT_7X7_250",
	Dict7X7_1000:      "DICT_7X7_1000",
	DictArucoOriginal: "DICT_ARUCO_ORIGINAL",
	DictAprilTag16h5:  "DICT_APRILTAG_16h5",
	DictAprilTag25h9:  "DICT_APRILTAG_25h9",
	DictAprilTag36h10: "DICT_APRILTAG_36h10",
	DictAprilTag36h11: "DICT_APRILTAG_36h11",
}

// vocabularyByName is the reverse lookup of vocabularyNames
var vocabularyByName = lo.Invert(vocabularyNames)

// ParseVocabulary returns the Vocabulary registered under the given
// canonical name, eg: "DICT_4X4_50"
func ParseVocabulary(name string) (Vocabulary, error) {

	v, ok := vocabularyByName[name]

	if !ok {
		return 0, errors.Wrapf(ErrUnknownVocabulary, "%q", name)
	}

	return v, nil
}

// String returns the canonical name of the vocabulary
func (v Vocabulary) String() string {
	if name, ok := vocabularyNames[v]; ok {
		return name
	}

	return "DICT_UNKNOWN"
}

// Valid reports if the vocabulary is one of the registered dictionaries
func (v Vocabulary) Valid() bool {
	_, ok := vocabularyNames[v]
	return ok
}

// Vocabularies returns the ordered, deduplicated list of vocabularies to
// detect each frame.  The default vocabulary is always first
func Vocabularies(def Vocabulary, others ...Vocabulary) []Vocabulary {
	return lo.Uniq(append([]Vocabulary{def}, others...))
}

// Names returns the canonical names of all registered vocabularies sorted
// alphabetically
func Names() []string {
	names := lo.Values(vocabularyNames)
	sort.Strings(names)
	return names
}
