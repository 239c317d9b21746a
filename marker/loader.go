package marker

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

const (
	// rowWithCentre is the column count of a geometry row carrying the id,
	// centre and four corners
	rowWithCentre = 16
	// rowCornersOnly is the column count of a geometry row carrying the id
	// and four corners, the centre is the mean of the corners
	rowCornersOnly = 13
)

// LoadTags reads rigid body tag geometry from the given text file.  Each
// non blank line holds whitespace separated numbers for a single tag, lines
// starting with '#' are ignored
func LoadTags(file string) ([]Tag, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, errors.Wrapf(ErrMalformedGeometry, "error opening geometry file: %v", err)
	}

	defer f.Close()

	tags, err := ParseTags(f)

	if err != nil {
		return nil, errors.Wrapf(err, "geometry file %s", file)
	}

	return tags, nil
}

// ParseTags reads rigid body tag geometry from r, see LoadTags for the format
func ParseTags(r io.Reader) ([]Tag, error) {

	scanner := bufio.NewScanner(r)

	var rows [][]float64
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
		row := make([]float64, len(fields))

		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)

			if err != nil {
				return nil, errors.Wrapf(ErrMalformedGeometry,
					"line %d column %d: %v", lineNo, i+1, err)
			}

			row[i] = v
		}

		rows = append(rows, row)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(ErrMalformedGeometry, "error reading geometry: %v", err)
	}

	return TagsFromRows(rows)
}

// TagsFromRows converts numeric rows of 16 (id, centre, corners) or 13
// (id, corners) values into tag geometry
func TagsFromRows(rows [][]float64) ([]Tag, error) {

	if len(rows) == 0 {
		return nil, errors.Wrap(ErrMalformedGeometry, "no tags defined")
	}

	tags := make([]Tag, 0, len(rows))

	for i, row := range rows {
		tag, err := tagFromRow(row)

		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}

		tags = append(tags, tag)
	}

	return tags, nil
}

// tagFromRow converts a single geometry row to a Tag
func tagFromRow(row []float64) (Tag, error) {

	var tag Tag
	var offset int

	switch len(row) {
	case rowWithCentre:
		offset = 4
	case rowCornersOnly:
		offset = 1
	default:
		return tag, errors.Wrapf(ErrMalformedGeometry,
			"expected %d or %d columns, got %d", rowWithCentre, rowCornersOnly, len(row))
	}

	id := row[0]

	if id != float64(int(id)) || id < 0 {
		return tag, errors.Wrapf(ErrMalformedGeometry, "tag id %v is not a non negative integer", id)
	}

	tag.ID = int(id)

	for c := 0; c < 4; c++ {
		p := row[offset+c*3 : offset+c*3+3]
		tag.Corners[c] = r3.Vector{X: p[0], Y: p[1], Z: p[2]}
	}

	if offset == 4 {
		tag.Centre = r3.Vector{X: row[1], Y: row[2], Z: row[3]}
	} else {
		tag.Centre = cornerMean(tag.Corners)
	}

	return tag, nil
}

// cornerMean returns the mean of the four corners
func cornerMean(corners [4]r3.Vector) r3.Vector {
	var sum r3.Vector

	for _, c := range corners {
		sum = sum.Add(c)
	}

	return sum.Mul(0.25)
}
