package studio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Controller owns the state of one session. All mutation goes through its
// methods, which are safe for concurrent use.
type Controller struct {
	service  Transformer
	observer Observer
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
	runs     sync.WaitGroup

	mu         sync.Mutex
	view       View
	mode       Mode
	source     Image
	result     Image
	resultMode Mode
	options    Options
	busy       bool
	err        string
	seq        uint64
	cancel     context.CancelFunc
	touched    time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithObserver registers fn to receive every transformation Outcome.
func WithObserver(fn Observer) ControllerOption {
	return func(c *Controller) { c.observer = fn }
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// WithTimeout bounds each transformation call. Zero waits indefinitely.
func WithTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) { c.timeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// New creates a Controller in the HOME view with default options.
func New(service Transformer, opts ...ControllerOption) *Controller {
	c := &Controller{
		service: service,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		view:    ViewHome,
		options: DefaultOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.touched = c.now()
	return c
}

// SelectMode sets the output mode.
func (c *Controller) SelectMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	c.mode = m
}

// SetSourceImage stores a decoded source image and clears any error.
// The view is left unchanged.
func (c *Controller) SetSourceImage(img Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	c.source = img
	c.err = ""
}

// ClearSourceImage discards the source image.
func (c *Controller) ClearSourceImage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	c.source = Image{}
}

// SetCustomization updates the background or attire descriptor.
func (c *Controller) SetCustomization(field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	switch field {
	case FieldBackground:
		c.options.Background = value
	case FieldAttire:
		c.options.Attire = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Submit starts a transformation of the current source image. It returns
// ErrNotReady without touching state when the source image or mode is
// missing, and ErrBusy while another request is in flight.
//
// The returned channel yields exactly one value once the outcome has been
// applied: nil on success, an error wrapping ErrTransformFailed on failure,
// or ErrSuperseded when a Reset discarded the outcome.
func (c *Controller) Submit() (<-chan error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.source.Empty() || c.mode == "" {
		return nil, ErrNotReady
	}
	if c.busy {
		return nil, ErrBusy
	}

	c.busy = true
	c.view = ViewProcessing
	c.err = ""
	c.seq++

	req := Request{
		Source:  c.source,
		Mode:    c.mode,
		Options: c.options,
	}

	ctx, cancel := c.requestContext()
	c.cancel = cancel

	done := make(chan error, 1)
	seq := c.seq
	c.runs.Go(func() { c.run(ctx, cancel, seq, req, done) })

	c.logger.Info(
		"transformation submitted",
		"mode", req.Mode,
		"background", req.Options.Background,
		"attire", req.Options.Attire,
	)

	return done, nil
}

// Reset clears mode, source, result, and error and returns to HOME.
// A request still in flight is cancelled and its outcome discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++

	c.view = ViewHome
	c.mode = ""
	c.source = Image{}
	c.result = Image{}
	c.resultMode = ""
	c.busy = false
	c.err = ""
}

// Close resets the controller and waits until an in-flight transformation
// has returned and its observer has been called.
func (c *Controller) Close() {
	c.Reset()
	c.runs.Wait()
}

// ShowHome leaves the RESULT view for HOME while keeping the result.
func (c *Controller) ShowHome() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.view == ViewResult {
		c.view = ViewHome
	}
}

// Download exports the current result. ok is false when there is none.
func (c *Controller) Download() (Export, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.result.Empty() {
		return Export{}, false
	}

	return Export{
		Filename: ExportFilename(c.resultMode, c.now()),
		MIMEType: c.result.MIMEType,
		Data:     c.result.Data,
	}, true
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	return Snapshot{
		View:    c.view,
		Mode:    c.mode,
		Source:  c.source,
		Result:  c.result,
		Options: c.options,
		Busy:    c.busy,
		Error:   c.err,
	}
}

// LastActive returns the time of the most recent operation.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched
}

func (c *Controller) touch() {
	c.touched = c.now()
}

func (c *Controller) requestContext() (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(context.Background(), c.timeout)
	}
	return context.WithCancel(context.Background())
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, seq uint64, req Request, done chan<- error) {
	defer close(done)
	defer cancel()

	started := c.now()
	img, err := c.service.Transform(ctx, req)
	if err == nil && img.Empty() {
		err = ErrEmptyResult
	}

	outcome := Outcome{
		Request:   req,
		Result:    img,
		Err:       err,
		StartedAt: started,
		Duration:  c.now().Sub(started),
	}
	outcome.Superseded = !c.apply(seq, outcome)

	if c.observer != nil {
		c.observer(outcome)
	}

	switch {
	case outcome.Superseded:
		done <- ErrSuperseded
	case err != nil:
		done <- fmt.Errorf("%w: %w", ErrTransformFailed, err)
	default:
		done <- nil
	}
}

func (c *Controller) apply(seq uint64, o Outcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Info("transformation outcome discarded", "mode", o.Request.Mode)
		return false
	}

	c.busy = false
	c.cancel = nil

	if o.Err != nil {
		c.logger.Error(
			"transformation failed",
			"mode", o.Request.Mode,
			"duration", o.Duration,
			"error", o.Err,
		)
		c.err = FailureMessage
		c.view = ViewHome
		return true
	}

	c.result = o.Result
	c.resultMode = o.Request.Mode
	c.view = ViewResult

	c.logger.Info(
		"transformation complete",
		"mode", o.Request.Mode,
		"duration", o.Duration,
		"bytes", len(o.Result.Data),
	)
	return true
}
