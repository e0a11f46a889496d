package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/banshee-data/handosc/internal/frame"
	"github.com/banshee-data/handosc/internal/timeutil"
)

// RecordingFormat is the header format version written by Recorder.
const RecordingFormat = 1

// ErrBadRecording is returned when a recording cannot be replayed.
var ErrBadRecording = errors.New("bad recording")

// Header is the first line of a recording.
type Header struct {
	Format  int       `json:"format"`
	Session uuid.UUID `json:"session"`
	Started time.Time `json:"started"`
}

// Recorder tees every frame into a JSON-lines recording before passing it
// on. The first line is a Header.
type Recorder struct {
	next    Listener
	enc     *json.Encoder
	clock   timeutil.Clock
	logger  zerolog.Logger
	session uuid.UUID
	frames  int
}

// NewRecorder records the frames delivered to next into w.
func NewRecorder(w io.Writer, next Listener, clock timeutil.Clock, logger zerolog.Logger) *Recorder {
	return &Recorder{
		next:    next,
		enc:     json.NewEncoder(w),
		clock:   clock,
		logger:  logger,
		session: uuid.New(),
	}
}

// Session identifies this recording.
func (r *Recorder) Session() uuid.UUID { return r.session }

func (r *Recorder) Init() error {
	h := Header{Format: RecordingFormat, Session: r.session, Started: r.clock.Now().UTC()}
	if err := r.enc.Encode(h); err != nil {
		return fmt.Errorf("failed to write recording header: %w", err)
	}
	r.logger.Info().Stringer("session", r.session).Msg("recording frames")
	return r.next.Init()
}

func (r *Recorder) Tick(f frame.Frame) error {
	if err := r.enc.Encode(frame.Capture(f, r.clock.Now().UnixNano())); err != nil {
		return fmt.Errorf("failed to record frame %d: %w", f.Sequence(), err)
	}
	r.frames++
	return r.next.Tick(f)
}

func (r *Recorder) Quit() {
	r.next.Quit()
	r.logger.Info().Stringer("session", r.session).Int("frames", r.frames).Msg("recording closed")
}
