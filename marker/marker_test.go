package marker

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

// referenceGeometry is a three tag body in the 16 column format
const referenceGeometry = `
# id cx cy cz  c0x c0y c0z  c1x c1y c1z  c2x c2y c2z  c3x c3y c3z
0  0   0 0  -25  25 0   25  25 0   25 -25 0  -25 -25 0
1  100 0 0   75  25 0  125  25 0  125 -25 0   75 -25 0
2  0  80 0  -25 105 0   25 105 0   25  55 0  -25  55 0
`

func TestParseVocabulary(t *testing.T) {
	v, err := ParseVocabulary("DICT_ARUCO_ORIGINAL")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, DictArucoOriginal)
	test.That(t, v.String(), test.ShouldEqual, "DICT_ARUCO_ORIGINAL")

	_, err = ParseVocabulary("DICT_9X9_1")
	test.That(t, errors.Is(err, ErrUnknownVocabulary), test.ShouldBeTrue)

	for _, name := range Names() {
		v, err := ParseVocabulary(name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v.String(), test.ShouldEqual, name)
	}
}

func TestVocabulariesDefaultFirstAndUnique(t *testing.T) {
	vs := Vocabularies(Dict4X4_50, DictArucoOriginal, Dict4X4_50, DictArucoOriginal, Dict6X6_250)
	test.That(t, vs, test.ShouldResemble, []Vocabulary{Dict4X4_50, DictArucoOriginal, Dict6X6_250})

	vs = Vocabularies(Dict5X5_100)
	test.That(t, vs, test.ShouldResemble, []Vocabulary{Dict5X5_100})
}

func TestParseTags(t *testing.T) {
	tags, err := ParseTags(strings.NewReader(referenceGeometry))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(tags), test.ShouldEqual, 3)
	test.That(t, tags[1].ID, test.ShouldEqual, 1)
	test.That(t, tags[1].Centre, test.ShouldResemble, r3.Vector{X: 100})
	test.That(t, tags[2].Corners[0], test.ShouldResemble, r3.Vector{X: -25, Y: 105})
}

func TestParseTagsCornersOnly(t *testing.T) {
	tags, err := ParseTags(strings.NewReader("7 -10 10 0 10 10 0 10 -10 0 -10 -10 4\n"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(tags), test.ShouldEqual, 1)
	test.That(t, tags[0].ID, test.ShouldEqual, 7)
	test.That(t, tags[0].Centre.X, test.ShouldAlmostEqual, 0)
	test.That(t, tags[0].Centre.Y, test.ShouldAlmostEqual, 0)
	test.That(t, tags[0].Centre.Z, test.ShouldAlmostEqual, 1)
}

func TestParseTagsMalformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"comments only", "# nothing here\n\n"},
		{"wrong column count", "1 2 3 4 5\n"},
		{"not a number", "0 0 0 0 -25 25 0 25 25 0 25 -25 0 -25 -25 x\n"},
		{"fractional id", "0.5 -25 25 0 25 25 0 25 -25 0 -25 -25 0\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTags(strings.NewReader(tc.input))
			test.That(t, errors.Is(err, ErrMalformedGeometry), test.ShouldBeTrue)
		})
	}
}

func TestLoadTagsMissingFile(t *testing.T) {
	_, err := LoadTags("does/not/exist.txt")
	test.That(t, errors.Is(err, ErrMalformedGeometry), test.ShouldBeTrue)
}

func TestNewRigidBody(t *testing.T) {
	tags, err := ParseTags(strings.NewReader(referenceGeometry))
	test.That(t, err, test.ShouldBeNil)

	rb, err := NewRigidBody("reference", DictArucoOriginal, tags)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rb.Len(), test.ShouldEqual, 3)
	test.That(t, rb.IDs(), test.ShouldResemble, []int{0, 1, 2})
	test.That(t, rb.Has(2), test.ShouldBeTrue)
	test.That(t, rb.Has(3), test.ShouldBeFalse)
	test.That(t, rb.Width(), test.ShouldAlmostEqual, 150)

	_, err = NewRigidBody("dup", Dict4X4_50, append(tags, tags[0]))
	test.That(t, errors.Is(err, ErrMalformedGeometry), test.ShouldBeTrue)

	_, err = NewRigidBody("", Dict4X4_50, tags)
	test.That(t, errors.Is(err, ErrMalformedGeometry), test.ShouldBeTrue)

	_, err = NewRigidBody("none", Dict4X4_50, nil)
	test.That(t, errors.Is(err, ErrMalformedGeometry), test.ShouldBeTrue)

	_, err = NewRigidBody("bad vocab", Vocabulary(999), tags)
	test.That(t, errors.Is(err, ErrUnknownVocabulary), test.ShouldBeTrue)
}

func TestNewSingleTag(t *testing.T) {
	rb, err := NewSingleTag(EphemeralName(Dict4X4_50, 0), Dict4X4_50, 0, 50)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rb.Name, test.ShouldEqual, "DICT_4X4_50:0")

	tag, ok := rb.Tag(0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, tag.Corners, test.ShouldResemble, [4]r3.Vector{
		{X: -25, Y: 25}, {X: 25, Y: 25}, {X: 25, Y: -25}, {X: -25, Y: -25},
	})
	test.That(t, rb.Width(), test.ShouldAlmostEqual, 50)

	_, err = NewSingleTag("zero", Dict4X4_50, 0, 0)
	test.That(t, errors.Is(err, ErrMalformedGeometry), test.ShouldBeTrue)
}

func TestScale(t *testing.T) {
	tags, err := ParseTags(strings.NewReader(referenceGeometry))
	test.That(t, err, test.ShouldBeNil)

	rb, err := NewRigidBody("reference", DictArucoOriginal, tags)
	test.That(t, err, test.ShouldBeNil)

	scaled, err := rb.Scale(300)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scaled.Width(), test.ShouldAlmostEqual, 300)
	test.That(t, scaled.IDs(), test.ShouldResemble, rb.IDs())

	tag, _ := scaled.Tag(1)
	test.That(t, tag.Centre.X, test.ShouldAlmostEqual, 200)
	test.That(t, tag.Corners[2].Y, test.ShouldAlmostEqual, -50)

	// original is untouched
	test.That(t, rb.Width(), test.ShouldAlmostEqual, 150)

	_, err = rb.Scale(-1)
	test.That(t, errors.Is(err, ErrMalformedGeometry), test.ShouldBeTrue)
}

func TestQuad(t *testing.T) {
	q := Quad{{X: 10, Y: 10}, {X: 40, Y: 10}, {X: 40, Y: 50}, {X: 10, Y: 50}}

	test.That(t, q.Centre(), test.ShouldResemble, r2.Point{X: 25, Y: 30})
	test.That(t, q.Diagonal(), test.ShouldAlmostEqual, 50)

	b := q.Bounds()
	test.That(t, b.Lo(), test.ShouldResemble, r2.Point{X: 10, Y: 10})
	test.That(t, b.Hi(), test.ShouldResemble, r2.Point{X: 40, Y: 50})

	pts := q.Image()
	test.That(t, pts[2].X, test.ShouldEqual, 40)
	test.That(t, pts[2].Y, test.ShouldEqual, 50)
}
