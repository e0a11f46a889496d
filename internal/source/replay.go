package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/banshee-data/handosc/internal/frame"
	"github.com/banshee-data/handosc/internal/timeutil"
)

const maxRecordLine = 1 << 20

// Replay delivers the frames of a recording made by Recorder.
type Replay struct {
	Path  string
	Clock timeutil.Clock
	// Paced sleeps between frames for the recorded interval.
	Paced bool
}

// Run replays the file once and returns when it is exhausted.
func (r *Replay) Run(ctx context.Context, l Listener) error {
	f, err := os.Open(r.Path)
	if err != nil {
		return fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxRecordLine)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read recording: %w", err)
		}
		return fmt.Errorf("%w: %s is empty", ErrBadRecording, r.Path)
	}
	var header Header
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return fmt.Errorf("%w: header: %v", ErrBadRecording, err)
	}
	if header.Format != RecordingFormat {
		return fmt.Errorf("%w: unsupported format %d", ErrBadRecording, header.Format)
	}

	return session(ctx, l, func(ctx context.Context) error {
		var last int64
		line := 1
		for scanner.Scan() {
			line++
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec frame.FrameRecord
			if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
				return fmt.Errorf("%w: line %d: %v", ErrBadRecording, line, err)
			}
			if r.Paced && last != 0 && rec.TimestampNanos > last {
				r.Clock.Sleep(time.Duration(rec.TimestampNanos - last))
			}
			last = rec.TimestampNanos
			if err := l.Tick(rec); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read recording: %w", err)
		}
		return nil
	})
}
