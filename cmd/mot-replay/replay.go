package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/LdDl/bytetrack-go/mot"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// frameInput is a single line of the detections stream
type frameInput struct {
	Frame      int              `json:"frame"`
	Detections []detectionInput `json:"detections"`
}

type detectionInput struct {
	BBox       [4]float64 `json:"bbox"`
	Score      float64    `json:"score"`
	ClassID    int        `json:"class_id"`
	ClassName  string     `json:"class"`
	Descriptor []float64  `json:"descriptor,omitempty"`
}

// frameOutput is a single line of the tracks stream
type frameOutput struct {
	Frame  int           `json:"frame"`
	Tracks []trackOutput `json:"tracks"`
}

type trackOutput struct {
	ID                int64          `json:"id"`
	BBox              [4]float64     `json:"bbox"`
	ClassID           int            `json:"class_id"`
	ClassName         string         `json:"class,omitempty"`
	Score             float64        `json:"score"`
	Age               int            `json:"age"`
	Hits              int            `json:"hits"`
	FramesSinceUpdate int            `json:"frames_since_update"`
	State             mot.TrackState `json:"state"`
}

func (d detectionInput) toDetection() mot.Detection {
	det := mot.NewDetection(mot.NewRect(d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]), d.Score, d.ClassID, d.ClassName)
	det.Descriptor = d.Descriptor
	return det
}

func newTrackOutput(s mot.TrackSnapshot) trackOutput {
	return trackOutput{
		ID:                s.ID,
		BBox:              [4]float64{s.BBox.X, s.BBox.Y, s.BBox.Width, s.BBox.Height},
		ClassID:           s.ClassID,
		ClassName:         s.ClassName,
		Score:             s.Score,
		Age:               s.Age,
		Hits:              s.Hits,
		FramesSinceUpdate: s.FramesSinceUpdate,
		State:             s.State,
	}
}

// replayer feeds recorded detections through the tracker
type replayer struct {
	tracker *mot.Tracker
	log     logrus.FieldLogger
	// Directory with frames named <frame>.png. Empty disables frame loading
	framesDir string
	// Accumulated center histories of every emitted track
	trajectories map[int64]*trajectory
}

type trajectory struct {
	className string
	points    []mot.Point
}

func newReplayer(tracker *mot.Tracker, log logrus.FieldLogger, framesDir string) *replayer {
	return &replayer{
		tracker:      tracker,
		log:          log,
		framesDir:    framesDir,
		trajectories: make(map[int64]*trajectory),
	}
}

// run reads JSON lines from in and writes tracks of every frame to out.
// Missing frame numbers are replayed as cycles without detections. Returns number of processed frames.
// Tracks of frames processed before a failure are still flushed to out.
func (r *replayer) run(ctx context.Context, in io.Reader, out io.Writer) (int, error) {
	writer := bufio.NewWriter(out)
	processed, err := r.replay(ctx, in, writer)
	if flushErr := writer.Flush(); flushErr != nil && err == nil {
		err = errors.Wrap(flushErr, "Can't flush tracks")
	}
	return processed, err
}

func (r *replayer) replay(ctx context.Context, in io.Reader, writer io.Writer) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	processed := 0
	nextFrame := -1
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var input frameInput
		if err := json.Unmarshal([]byte(line), &input); err != nil {
			return processed, errors.Wrapf(err, "Can't parse line %d", lineNo)
		}
		if nextFrame >= 0 && input.Frame < nextFrame {
			return processed, errors.Errorf("frame %d on line %d goes back in time (expected >= %d)", input.Frame, lineNo, nextFrame)
		}
		for nextFrame >= 0 && nextFrame < input.Frame {
			if err := r.step(writer, nextFrame, nil, nil); err != nil {
				return processed, err
			}
			processed++
			nextFrame++
		}

		detections := make([]mot.Detection, len(input.Detections))
		for i, d := range input.Detections {
			detections[i] = d.toDetection()
		}
		frame, err := r.loadFrame(input.Frame)
		if err != nil {
			r.log.WithError(err).WithField("frame", input.Frame).Warn("Frame image skipped")
		}
		if err := r.step(writer, input.Frame, detections, frame); err != nil {
			return processed, err
		}
		processed++
		nextFrame = input.Frame + 1
	}
	if err := scanner.Err(); err != nil {
		return processed, errors.Wrap(err, "Can't read detections")
	}
	return processed, nil
}

func (r *replayer) step(w io.Writer, frameNo int, detections []mot.Detection, frame image.Image) error {
	snapshots := r.tracker.Update(detections, frame)
	output := frameOutput{
		Frame:  frameNo,
		Tracks: make([]trackOutput, len(snapshots)),
	}
	for i, s := range snapshots {
		output.Tracks[i] = newTrackOutput(s)
		traj, ok := r.trajectories[s.ID]
		if !ok {
			traj = &trajectory{className: classLabel(s)}
			r.trajectories[s.ID] = traj
		}
		traj.points = append(traj.points, s.BBox.Center())
	}
	data, err := json.Marshal(output)
	if err != nil {
		return errors.Wrapf(err, "Can't encode tracks of frame %d", frameNo)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return errors.Wrapf(err, "Can't write tracks of frame %d", frameNo)
	}
	r.log.WithFields(logrus.Fields{"frame": frameNo, "detections": len(detections), "tracks": len(snapshots)}).Trace("Frame processed")
	return nil
}

// loadFrame returns nil image when frames are not configured or the file does not exist
func (r *replayer) loadFrame(frameNo int) (image.Image, error) {
	if r.framesDir == "" {
		return nil, nil
	}
	path := filepath.Join(r.framesDir, fmt.Sprintf("%d.png", frameNo))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "Can't open frame '%s'", path)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't decode frame '%s'", path)
	}
	return img, nil
}

// writeTrajectories writes one row per track: id;class;cx,cy|cx,cy|...
func (r *replayer) writeTrajectories(w io.Writer) error {
	ids := make([]int64, 0, len(r.trajectories))
	for id := range r.trajectories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	writer := csv.NewWriter(w)
	writer.Comma = ';'
	if err := writer.Write([]string{"id", "class", "track"}); err != nil {
		return errors.Wrap(err, "Can't write trajectories header")
	}
	for _, id := range ids {
		traj := r.trajectories[id]
		points := make([]string, len(traj.points))
		for i, p := range traj.points {
			points[i] = strconv.FormatFloat(p.X, 'f', 2, 64) + "," + strconv.FormatFloat(p.Y, 'f', 2, 64)
		}
		row := []string{strconv.FormatInt(id, 10), traj.className, strings.Join(points, "|")}
		if err := writer.Write(row); err != nil {
			return errors.Wrapf(err, "Can't write trajectory of track %d", id)
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "Can't flush trajectories")
}

func classLabel(s mot.TrackSnapshot) string {
	if s.ClassName != "" {
		return s.ClassName
	}
	return strconv.Itoa(s.ClassID)
}
