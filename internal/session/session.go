// Package session coordinates one client's board with its local persistence
// and the shared remote store.
//
// Local edits apply to the in-memory board synchronously. Persistence and
// publishing run afterwards on a single worker, in completion order, with
// persist before publish. I/O failures are logged and reported through the
// returned Pending; they never roll back the board.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"LocalSketch/internal/state"
	"LocalSketch/internal/storage"
)

// DefaultRemotePath is the slot every client publishes its latest stroke to.
const DefaultRemotePath = "strokes/current"

// DefaultIOTimeout bounds each persistence or publish stage.
const DefaultIOTimeout = 5 * time.Second

// Store is the string-valued key/value persistence a session writes its
// snapshots to.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Remote is the shared store. Write replaces the single value at path.
// Subscribe calls fn with the current value, if any, and then on every write
// by any client, this one included.
type Remote interface {
	Write(ctx context.Context, path string, value []byte) error
	Subscribe(ctx context.Context, path string, fn func([]byte)) (func(), error)
}

// Renderer repaints the board. It may be called from any goroutine.
type Renderer interface {
	Redraw(strokes []state.Stroke, shapes []state.Shape, background string)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(strokes []state.Stroke, shapes []state.Shape, background string)

func (f RendererFunc) Redraw(strokes []state.Stroke, shapes []state.Shape, background string) {
	f(strokes, shapes, background)
}

// Options configures a Session. Only Store is required.
type Options struct {
	// ClientID tags published envelopes. Generated when empty.
	ClientID string
	Store    Store
	// Remote may be nil for an offline board.
	Remote   Remote
	Renderer Renderer
	// Classifier decides circle promotion. Nil uses the default tolerance.
	Classifier *state.Classifier
	// DedupOnReceive merges remote strokes into the persisted snapshot
	// instead of appending them.
	DedupOnReceive bool
	RemotePath     string
	IOTimeout      time.Duration
	Logger         *slog.Logger
}

// Session owns one board and its synchronization pipeline.
type Session struct {
	id         string
	store      Store
	remote     Remote
	renderer   Renderer
	remotePath string
	ioTimeout  time.Duration
	log        *slog.Logger

	board      *state.Board
	classifier atomic.Pointer[state.Classifier]
	dedup      atomic.Bool

	q         *queue
	closeOnce sync.Once
}

// New creates a session and starts its worker.
func New(opts Options) (*Session, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	id := opts.ClientID
	if id == "" {
		id = state.NewClientID()
	}
	path := opts.RemotePath
	if path == "" {
		path = DefaultRemotePath
	}
	timeout := opts.IOTimeout
	if timeout <= 0 {
		timeout = DefaultIOTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = state.Logger()
	}

	s := &Session{
		id:         id,
		store:      opts.Store,
		remote:     opts.Remote,
		renderer:   opts.Renderer,
		remotePath: path,
		ioTimeout:  timeout,
		log:        logger.With("component", "session", "client", id),
		board:      state.NewBoard(),
		q:          newQueue(),
	}
	s.SetClassifier(opts.Classifier)
	s.dedup.Store(opts.DedupOnReceive)

	go s.q.run(s.stageContext, func(name string, err error) {
		s.log.Warn("sync stage failed", "stage", name, "err", err)
	})
	return s, nil
}

func (s *Session) stageContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.ioTimeout)
}

// ClientID returns the identifier this session publishes under.
func (s *Session) ClientID() string { return s.id }

// Strokes returns the in-memory stroke collection.
func (s *Session) Strokes() []state.Stroke { return s.board.Strokes() }

// Shapes returns the in-memory shape collection.
func (s *Session) Shapes() []state.Shape { return s.board.Shapes() }

// Background returns the current background color.
func (s *Session) Background() string { return s.board.Background() }

// SetClassifier replaces the circle classifier. Nil restores the default.
func (s *Session) SetClassifier(c *state.Classifier) {
	if c == nil {
		def := state.NewClassifier(state.DefaultCircleTolerance)
		c = &def
	}
	s.classifier.Store(c)
}

// SetDedupOnReceive toggles merging of received strokes against the
// persisted snapshot.
func (s *Session) SetDedupOnReceive(on bool) { s.dedup.Store(on) }

func (s *Session) redraw() {
	if s.renderer == nil {
		return
	}
	s.renderer.Redraw(s.board.Strokes(), s.board.Shapes(), s.board.Background())
}

// Hydrate loads the persisted strokes, shapes and background into the board
// and redraws. Missing keys leave empty collections; malformed values are
// logged and treated as empty.
func (s *Session) Hydrate(ctx context.Context) error {
	strokes, err := s.loadStrokes(ctx)
	if err != nil {
		return fmt.Errorf("hydrate strokes: %w", err)
	}
	raw, ok, err := s.store.Get(ctx, storage.KeyShapes)
	if err != nil {
		return fmt.Errorf("hydrate shapes: %w", err)
	}
	var shapes []state.Shape
	if ok {
		shapes = state.DecodeShapes([]byte(raw))
	}
	bg, ok, err := s.store.Get(ctx, storage.KeyBackground)
	if err != nil {
		return fmt.Errorf("hydrate background: %w", err)
	}

	s.board.SetStrokes(strokes)
	s.board.SetShapes(shapes)
	if ok {
		s.board.SetBackground(decodeBackground(bg))
	}
	s.log.Info("hydrated", "strokes", len(strokes), "shapes", len(shapes))
	s.redraw()
	return nil
}

func (s *Session) loadStrokes(ctx context.Context) ([]state.Stroke, error) {
	raw, ok, err := s.store.Get(ctx, storage.KeyStrokes)
	if err != nil || !ok {
		return nil, err
	}
	return state.DecodeStrokes([]byte(raw)), nil
}

// FinishStroke records a completed freehand stroke. The board is updated
// and redrawn before it returns; the stroke is then persisted, published,
// and, if it is pure pen ink that classifies as a circle, replaced by a
// circle shape. Gap strokes are persisted but neither published nor
// classified.
func (s *Session) FinishStroke(stroke state.Stroke) *Pending {
	stroke = stroke.Clone()
	if stroke == nil {
		stroke = state.Stroke{}
	}
	all := s.board.AppendStroke(stroke)
	stages := []stage{{"persist", func(ctx context.Context) error {
		return s.persistMerged(ctx, all)
	}}}

	if stroke.IsGap() {
		s.redraw()
		return s.q.push(stages...)
	}
	if s.remote != nil {
		stages = append(stages, stage{"publish", func(ctx context.Context) error {
			return s.publish(ctx, stroke)
		}})
	}

	if penOnly(stroke) {
		if fit, ok := s.classifier.Load().Classify(stroke); ok {
			shape := state.CircleShape(fit, state.PenColorFor(s.board.Background()))
			if s.board.ReplaceStrokeWithShape(stroke, shape) {
				s.log.Debug("stroke classified as circle", "radius", fit.AvgRadius)
				strokes, shapes := s.board.Strokes(), s.board.Shapes()
				stages = append(stages, stage{"persist reclassified", func(ctx context.Context) error {
					return s.persistVerbatim(ctx, strokes, shapes)
				}})
			}
		}
	}
	s.redraw()
	return s.q.push(stages...)
}

// penOnly reports whether every point was drawn with the pen. Eraser and
// mixed strokes are never promoted to shapes.
func penOnly(stroke state.Stroke) bool {
	for _, p := range stroke {
		if p.Tool != state.ToolPen {
			return false
		}
	}
	return true
}

// persistMerged merges the in-memory collection into the persisted snapshot,
// or writes it verbatim when nothing is persisted yet.
func (s *Session) persistMerged(ctx context.Context, memory []state.Stroke) error {
	raw, ok, err := s.store.Get(ctx, storage.KeyStrokes)
	if err != nil {
		return err
	}
	out := memory
	if ok {
		out = state.MergeAny(memory, raw)
	}
	return s.store.Set(ctx, storage.KeyStrokes, state.EncodeStrokes(out))
}

func (s *Session) persistVerbatim(ctx context.Context, strokes []state.Stroke, shapes []state.Shape) error {
	if err := s.store.Set(ctx, storage.KeyStrokes, state.EncodeStrokes(strokes)); err != nil {
		return err
	}
	return s.store.Set(ctx, storage.KeyShapes, state.EncodeShapes(shapes))
}

func (s *Session) publish(ctx context.Context, stroke state.Stroke) error {
	data, err := json.Marshal(state.Envelope{Points: stroke, ClientID: s.id})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return s.remote.Write(ctx, s.remotePath, data)
}

// AddShape records a shape dragged out with a shape tool, redraws, and
// persists the shape collection.
func (s *Session) AddShape(shape state.Shape) *Pending {
	shapes := s.board.AddShape(shape)
	s.redraw()
	return s.q.push(stage{"persist shapes", func(ctx context.Context) error {
		return s.store.Set(ctx, storage.KeyShapes, state.EncodeShapes(shapes))
	}})
}

// HandleRemote processes one value from the remote slot. Malformed
// envelopes, this session's own echoes and empty strokes are ignored.
// Anything else is appended to the board and the persisted snapshot.
func (s *Session) HandleRemote(raw []byte) *Pending {
	var env state.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.log.Warn("ignoring malformed remote envelope", "err", err)
		return resolved(nil)
	}
	if env.ClientID == s.id {
		return resolved(nil)
	}
	if env.Points.IsGap() {
		return resolved(nil)
	}

	stroke := env.Points
	s.board.AppendStroke(stroke)
	s.log.Debug("remote stroke", "from", env.ClientID, "points", len(stroke))
	s.redraw()

	dedup := s.dedup.Load()
	return s.q.push(stage{"persist remote", func(ctx context.Context) error {
		persisted, err := s.loadStrokes(ctx)
		if err != nil {
			return err
		}
		var out []state.Stroke
		if dedup {
			out = state.Merge([]state.Stroke{stroke}, persisted)
		} else {
			out = append(persisted, stroke)
		}
		return s.store.Set(ctx, storage.KeyStrokes, state.EncodeStrokes(out))
	}})
}

// Subscribe starts receiving remote strokes. The returned function stops it.
func (s *Session) Subscribe(ctx context.Context) (func(), error) {
	if s.remote == nil {
		return func() {}, nil
	}
	cancel, err := s.remote.Subscribe(ctx, s.remotePath, func(v []byte) {
		s.HandleRemote(v)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", s.remotePath, err)
	}
	s.log.Info("subscribed", "path", s.remotePath)
	return cancel, nil
}

// Clear empties the board and removes both persisted collections. The
// background is kept. It waits for the removal, which is queued behind any
// earlier persistence so nothing older can restore the cleared strokes.
func (s *Session) Clear(ctx context.Context) error {
	s.board.Clear()
	s.redraw()
	p := s.q.push(
		stage{"remove strokes", func(ctx context.Context) error {
			return s.store.Remove(ctx, storage.KeyStrokes)
		}},
		stage{"remove shapes", func(ctx context.Context) error {
			return s.store.Remove(ctx, storage.KeyShapes)
		}},
	)
	return p.Wait(ctx)
}

// SetBackground changes and persists the background color.
func (s *Session) SetBackground(color string) *Pending {
	s.board.SetBackground(color)
	s.redraw()
	return s.q.push(stage{"persist background", func(ctx context.Context) error {
		data, err := json.Marshal(color)
		if err != nil {
			return err
		}
		return s.store.Set(ctx, storage.KeyBackground, string(data))
	}})
}

// decodeBackground accepts a JSON string or a bare color.
func decodeBackground(raw string) string {
	var color string
	if err := json.Unmarshal([]byte(raw), &color); err == nil {
		return color
	}
	return raw
}

// Snapshot is a self-contained copy of a board, used for save files.
type Snapshot struct {
	Background string         `json:"background"`
	Strokes    []state.Stroke `json:"strokes"`
	Shapes     []state.Shape  `json:"shapes"`
}

// Snapshot returns the current board.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Background: s.board.Background(),
		Strokes:    s.board.Strokes(),
		Shapes:     s.board.Shapes(),
	}
}

// Restore replaces the board with snap and persists it verbatim. Restored
// strokes are not published.
func (s *Session) Restore(snap Snapshot) *Pending {
	s.board.SetStrokes(snap.Strokes)
	s.board.SetShapes(snap.Shapes)
	if snap.Background != "" {
		s.board.SetBackground(snap.Background)
	}
	s.redraw()

	strokes, shapes, bg := s.board.Strokes(), s.board.Shapes(), s.board.Background()
	return s.q.push(
		stage{"persist restored", func(ctx context.Context) error {
			return s.persistVerbatim(ctx, strokes, shapes)
		}},
		stage{"persist background", func(ctx context.Context) error {
			data, _ := json.Marshal(bg)
			return s.store.Set(ctx, storage.KeyBackground, string(data))
		}},
	)
}

// Flush waits until every job queued before the call has run.
func (s *Session) Flush(ctx context.Context) error {
	err := s.q.push().Wait(ctx)
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// Close stops accepting work and waits for the queue to drain.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.q.close()
		<-s.q.exited
		s.log.Info("session closed")
	})
	return nil
}
