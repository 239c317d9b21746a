package pose

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LoadCamera reads a camera calibration text file.  The first three non
// blank lines hold the rows of the intrinsic matrix, an optional fourth line
// holds the distortion coefficients
func LoadCamera(file string) (*Camera, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, errors.Wrap(err, "error opening calibration file")
	}

	defer f.Close()

	cam, err := ParseCamera(f)

	if err != nil {
		return nil, errors.Wrapf(err, "calibration file %s", file)
	}

	return cam, nil
}

// ParseCamera reads a camera calibration from r, see LoadCamera for the
// format
func ParseCamera(r io.Reader) (*Camera, error) {

	scanner := bufio.NewScanner(r)

	var rows [][]float64

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var row []float64

		for _, field := range strings.Fields(strings.ReplaceAll(line, ",", " ")) {
			v, err := strconv.ParseFloat(field, 64)

			if err != nil {
				return nil, errors.Wrapf(ErrCalibrationShape, "row %d: %v", len(rows)+1, err)
			}

			row = append(row, v)
		}

		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading calibration")
	}

	switch len(rows) {
	case 3:
		return NewCamera(rows, nil)
	case 4:
		return NewCamera(rows[:3], rows[3])
	default:
		return nil, errors.Wrapf(ErrCalibrationShape,
			"expected 3 matrix rows and an optional distortion row, got %d rows", len(rows))
	}
}
