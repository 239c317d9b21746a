// Package main is the arucotrack command which prints the pose of each
// configured rigid body as frames are read from a video source or image
// files.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/swdee/go-arucotracker"
	"github.com/swdee/go-arucotracker/render"
	"github.com/swdee/go-arucotracker/tracker"
	"github.com/swdee/go-arucotracker/vision"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const (
	// Flags.
	flagConfig   = "config"
	flagSource   = "source"
	flagFrames   = "frames"
	flagAnnotate = "annotate"
	flagLogLevel = "log-level"
	flagAxis     = "axis-length"
)

func main() {

	app := &cli.App{
		Name:      "arucotrack",
		Usage:     "track ArUco marker rigid bodies",
		ArgsUsage: "[image files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagConfig,
				Aliases:  []string{"c"},
				Usage:    "YAML tracker configuration file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  flagSource,
				Usage: "override the configured video source, device number or file/stream url",
			},
			&cli.IntFlag{
				Name:  flagFrames,
				Usage: "number of frames to read from the video source, 0 runs until the source ends",
				Value: 0,
			},
			&cli.StringFlag{
				Name:  flagAnnotate,
				Usage: "directory to save annotated frames to",
			},
			&cli.Float64Flag{
				Name:  flagAxis,
				Usage: "length of rendered pose axes in body geometry units",
				Value: 50,
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "logging level, debug, info, warn or error",
				Value: "info",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newLogger builds a development logger at the requested level
func newLogger(level string) (*zap.SugaredLogger, error) {

	lvl, err := zap.ParseAtomicLevel(level)

	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl

	logger, err := cfg.Build()

	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

func run(c *cli.Context) error {

	logger, err := newLogger(c.String(flagLogLevel))

	if err != nil {
		return err
	}

	defer logger.Sync()

	cfg, err := arucotracker.LoadConfig(c.String(flagConfig))

	if err != nil {
		return err
	}

	images := c.Args().Slice()

	if c.IsSet(flagSource) {
		cfg.VideoSource = c.String(flagSource)
	}

	// image files are processed without opening the video source
	if len(images) > 0 {
		cfg.VideoSource = arucotracker.NoVideoSource
	}

	detector := vision.NewArucoDetector()
	defer detector.Close()

	var capture arucotracker.Capture

	if cfg.HasVideoSource() {
		capture = vision.NewVideoSource()
	}

	trk, err := arucotracker.New(cfg, detector, capture, arucotracker.WithLogger(logger))

	if err != nil {
		return err
	}

	defer trk.Close()

	if err := trk.StartTracking(); err != nil {
		return err
	}

	ann := newAnnotator(c.String(flagAnnotate), trk, c.Float64(flagAxis))

	if len(images) > 0 {
		for _, file := range images {
			if err := processImage(trk, ann, file); err != nil {
				return err
			}
		}

		return nil
	}

	if !cfg.HasVideoSource() {
		return errors.New("no video source configured and no image files given")
	}

	limit := c.Int(flagFrames)

	for limit <= 0 || trk.FrameCount() < limit {

		frame, err := trk.GetFrame(nil)

		if err != nil {
			if errors.Is(err, arucotracker.ErrFrameAcquisition) {
				logger.Infow("video source ended", "frames", trk.FrameCount())
				return nil
			}
			return err
		}

		printFrame(frame)

		if err := ann.save(frame, nil); err != nil {
			return err
		}
	}

	return nil
}

// processImage tracks the bodies in a single image file
func processImage(trk *arucotracker.Tracker, ann *annotator, file string) error {

	img := gocv.IMRead(file, gocv.IMReadColor)

	if img.Empty() {
		return fmt.Errorf("error reading image file %s", file)
	}

	defer img.Close()

	frame, err := trk.GetFrame(vision.NewFrame(img))

	if err != nil {
		return err
	}

	printFrame(frame)

	return ann.save(frame, &img)
}

// printFrame writes the pose of every body to stdout
func printFrame(frame *arucotracker.Frame) {

	for i := 0; i < frame.Len(); i++ {
		fmt.Printf("%d %s quality=%.3f %s\n", frame.FrameNumbers[i],
			frame.Handles[i], frame.Quality[i], frame.Bodies[i].Pose)
	}
}

// annotator renders tracking results on to frames and saves them
type annotator struct {
	dir   string
	trk   *arucotracker.Tracker
	trail *tracker.Trail
	axis  float64
}

func newAnnotator(dir string, trk *arucotracker.Tracker, axis float64) *annotator {
	return &annotator{
		dir:   dir,
		trk:   trk,
		trail: tracker.NewTrail(90),
		axis:  axis,
	}
}

// save renders frame results on to img and writes it as a PNG file.  When
// img is nil the frame's source image is used
func (a *annotator) save(frame *arucotracker.Frame, img *gocv.Mat) error {

	if a.dir == "" {
		return nil
	}

	if img == nil {
		src, ok := frame.Image.(*vision.Frame)

		if !ok {
			return nil
		}

		img = &src.Mat
	}

	out := img.Clone()
	defer out.Close()

	for _, res := range frame.Bodies {
		a.trail.Add(res)
	}

	render.Trail(&out, frame.Bodies, a.trail, render.DefaultTrailStyle())
	render.Markers(&out, frame.Bodies, render.LabelFont(), render.IDFont(),
		render.DefaultMarkerStyle())
	render.Axes(&out, frame.Bodies, a.trk.Camera(), a.axis, 2)

	name := fmt.Sprintf("frame-%06d.png", a.trk.FrameCount()-1)

	if !gocv.IMWrite(filepath.Join(a.dir, name), out) {
		return fmt.Errorf("error writing annotated frame %s", name)
	}

	return nil
}
