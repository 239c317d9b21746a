package arucotracker

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/swdee/go-arucotracker/marker"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMarkerSize is the side length in millimetres of ephemeral single
	// tag bodies
	DefaultMarkerSize = 50.0
	// DefaultSmoothingBuffer is the number of poses averaged per body, one
	// disables smoothing
	DefaultSmoothingBuffer = 1
	// NoVideoSource disables frame capture, images must then be passed to
	// GetFrame
	NoVideoSource = "none"
)

// RigidBodyConfig describes a configured rigid body
type RigidBodyConfig struct {
	// Name is the handle the body is reported under
	Name string `yaml:"name" validate:"required"`
	// Filename of the tag geometry, see marker.LoadTags
	Filename string `yaml:"filename" validate:"required_without=Tags"`
	// Tags is inline tag geometry in the same row format as the geometry
	// file, used when Filename is empty
	Tags [][]float64 `yaml:"tags" validate:"required_without=Filename"`
	// ArucoDictionary the body's markers belong to, defaults to the
	// tracker's dictionary
	ArucoDictionary string `yaml:"aruco_dictionary"`
	// TagWidth is the measured width of the printed pattern in millimetres.
	// When set the geometry is rescaled to match
	TagWidth float64 `yaml:"tag_width" validate:"gte=0"`
}

// Config is the tracker configuration
type Config struct {
	// VideoSource is a camera index, file or stream url.  Empty or "none"
	// disables capture
	VideoSource string `yaml:"video_source"`
	// ArucoDictionary is the default marker vocabulary
	ArucoDictionary string `yaml:"aruco_dictionary"`
	// MarkerSize is the side length in millimetres of ephemeral single tag
	// bodies
	MarkerSize float64 `yaml:"marker_size" validate:"gte=0"`
	// SmoothingBuffer is the number of poses averaged per body
	SmoothingBuffer int `yaml:"smoothing_buffer" validate:"gte=0"`
	// Calibration is a camera calibration file, it takes precedence over
	// CameraProjection and CameraDistortion
	Calibration string `yaml:"calibration"`
	// CameraProjection is the 3x3 camera intrinsic matrix.  Without it poses
	// are estimated in pixel space
	CameraProjection [][]float64 `yaml:"camera_projection"`
	// CameraDistortion holds up to five coefficients k1, k2, p1, p2, k3
	CameraDistortion []float64 `yaml:"camera_distortion"`
	// CaptureProperties are applied to the video source after opening, keyed
	// by property name eg: CAP_PROP_FRAME_WIDTH
	CaptureProperties map[string]float64 `yaml:"capture_properties"`
	// RigidBodies to track
	RigidBodies []RigidBodyConfig `yaml:"rigid_bodies" validate:"dive"`
}

// SetDefaults fills unset fields with their default values
func (c *Config) SetDefaults() {

	if c.ArucoDictionary == "" {
		c.ArucoDictionary = marker.DefaultVocabulary.String()
	}

	if c.MarkerSize == 0 {
		c.MarkerSize = DefaultMarkerSize
	}

	if c.SmoothingBuffer == 0 {
		c.SmoothingBuffer = DefaultSmoothingBuffer
	}

	for i := range c.RigidBodies {
		if c.RigidBodies[i].ArucoDictionary == "" {
			c.RigidBodies[i].ArucoDictionary = c.ArucoDictionary
		}
	}
}

// Validate checks the configuration's field constraints
func (c *Config) Validate() error {

	v := validator.New()

	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return nil
}

// HasVideoSource reports if a capture device should be opened
func (c *Config) HasVideoSource() bool {
	return c.VideoSource != "" && c.VideoSource != NoVideoSource
}

// ParseConfig decodes a YAML configuration, applies defaults and validates it
func ParseConfig(data []byte) (Config, error) {

	var cfg Config

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfig reads and parses a YAML configuration file
func LoadConfig(file string) (Config, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return Config{}, errors.Wrapf(ErrConfiguration, "error reading config file: %v", err)
	}

	return ParseConfig(data)
}
