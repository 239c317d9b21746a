package marker

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrMalformedGeometry is returned when rigid body geometry can not be used
// for tracking
var ErrMalformedGeometry = errors.New("malformed rigid body geometry")

// Tag is the physical geometry of a single marker on a rigid body in the
// body's own coordinate frame, units are millimetres
type Tag struct {
	// ID is the marker id within the rigid body's vocabulary
	ID int
	// Centre of the marker
	Centre r3.Vector
	// Corners of the marker in the same order the detector reports them
	Corners [4]r3.Vector
}

// scaled returns a copy of the tag with every coordinate multiplied by k
func (t Tag) scaled(k float64) Tag {
	out := Tag{
		ID:     t.ID,
		Centre: t.Centre.Mul(k),
	}

	for i, c := range t.Corners {
		out.Corners[i] = c.Mul(k)
	}

	return out
}

// RigidBody is a named object carrying one or more markers from a single
// vocabulary at known positions
type RigidBody struct {
	// Name is the handle used to report the body
	Name string
	// Vocabulary the body's markers belong to
	Vocabulary Vocabulary
	// tags in definition order
	tags []Tag
	// index maps a marker id to its position in tags
	index map[int]int
}

// NewRigidBody returns a rigid body definition for the given tags.  Marker
// ids must be unique within the body
func NewRigidBody(name string, vocab Vocabulary, tags []Tag) (*RigidBody, error) {

	if name == "" {
		return nil, errors.Wrap(ErrMalformedGeometry, "rigid body has no name")
	}

	if !vocab.Valid() {
		return nil, errors.Wrapf(ErrUnknownVocabulary, "rigid body %q", name)
	}

	if len(tags) == 0 {
		return nil, errors.Wrapf(ErrMalformedGeometry, "rigid body %q has no tags", name)
	}

	rb := &RigidBody{
		Name:       name,
		Vocabulary: vocab,
		tags:       make([]Tag, 0, len(tags)),
		index:      make(map[int]int, len(tags)),
	}

	for _, t := range tags {
		if _, dup := rb.index[t.ID]; dup {
			return nil, errors.Wrapf(ErrMalformedGeometry,
				"rigid body %q has duplicate tag id %d", name, t.ID)
		}

		if !t.finite() {
			return nil, errors.Wrapf(ErrMalformedGeometry,
				"rigid body %q tag %d has non finite coordinates", name, t.ID)
		}

		rb.index[t.ID] = len(rb.tags)
		rb.tags = append(rb.tags, t)
	}

	return rb, nil
}

// NewSingleTag returns a rigid body made of a single square marker of the
// given side length centred on the body origin
func NewSingleTag(name string, vocab Vocabulary, id int, size float64) (*RigidBody, error) {

	if size <= 0 {
		return nil, errors.Wrapf(ErrMalformedGeometry, "marker size %v must be positive", size)
	}

	h := size / 2

	tag := Tag{
		ID: id,
		Corners: [4]r3.Vector{
			{X: -h, Y: h, Z: 0},
			{X: h, Y: h, Z: 0},
			{X: h, Y: -h, Z: 0},
			{X: -h, Y: -h, Z: 0},
		},
	}

	return NewRigidBody(name, vocab, []Tag{tag})
}

// EphemeralName returns the handle given to a single marker that has not
// been claimed by any configured rigid body, eg: "DICT_4X4_50:7"
func EphemeralName(vocab Vocabulary, id int) string {
	return fmt.Sprintf("%s:%d", vocab, id)
}

// Tags returns the body's tags in definition order
func (rb *RigidBody) Tags() []Tag {
	return rb.tags
}

// Len returns the number of tags on the body
func (rb *RigidBody) Len() int {
	return len(rb.tags)
}

// Tag returns the geometry of the given marker id
func (rb *RigidBody) Tag(id int) (Tag, bool) {
	i, ok := rb.index[id]

	if !ok {
		return Tag{}, false
	}

	return rb.tags[i], true
}

// Has reports if the marker id belongs to the body
func (rb *RigidBody) Has(id int) bool {
	_, ok := rb.index[id]
	return ok
}

// IDs returns the marker ids in definition order
func (rb *RigidBody) IDs() []int {
	ids := make([]int, len(rb.tags))

	for i, t := range rb.tags {
		ids[i] = t.ID
	}

	return ids
}

// Width returns the extent of the body's corners along the x axis
func (rb *RigidBody) Width() float64 {

	lo, hi := math.Inf(1), math.Inf(-1)

	for _, t := range rb.tags {
		for _, c := range t.Corners {
			lo = math.Min(lo, c.X)
			hi = math.Max(hi, c.X)
		}
	}

	return hi - lo
}

// Scale returns a copy of the body resized so that its x extent matches the
// measured width of the physical pattern.  Marker ids are unchanged
func (rb *RigidBody) Scale(measuredWidth float64) (*RigidBody, error) {

	if measuredWidth <= 0 || math.IsNaN(measuredWidth) || math.IsInf(measuredWidth, 0) {
		return nil, errors.Wrapf(ErrMalformedGeometry,
			"rigid body %q measured width %v must be positive", rb.Name, measuredWidth)
	}

	width := rb.Width()

	if width <= 0 {
		return nil, errors.Wrapf(ErrMalformedGeometry,
			"rigid body %q has zero width and can not be scaled", rb.Name)
	}

	return rb.ScaleBy(measuredWidth / width)
}

// ScaleBy returns a copy of the body with every coordinate multiplied by k
func (rb *RigidBody) ScaleBy(k float64) (*RigidBody, error) {

	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return nil, errors.Wrapf(ErrMalformedGeometry,
			"rigid body %q scale factor %v must be positive", rb.Name, k)
	}

	tags := make([]Tag, len(rb.tags))

	for i, t := range rb.tags {
		tags[i] = t.scaled(k)
	}

	return NewRigidBody(rb.Name, rb.Vocabulary, tags)
}

// finite reports if every coordinate of the tag is a finite number
func (t Tag) finite() bool {
	vs := append([]r3.Vector{t.Centre}, t.Corners[:]...)

	for _, v := range vs {
		for _, f := range []float64{v.X, v.Y, v.Z} {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
		}
	}

	return true
}
