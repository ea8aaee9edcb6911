// Package intake implements the dual-file intake workflow: two file slots,
// readiness, and the submission state machine that hands a finished result
// to the results view.
package intake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotor-modal/client/internal/analysis"
	"github.com/rotor-modal/client/internal/models"
	"golang.org/x/sync/errgroup"
)

// State is the workflow state of a Controller.
type State string

const (
	StateIdle       State = "IDLE"
	StateReady      State = "READY"
	StateSubmitting State = "SUBMITTING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// FileSource reads and releases the bytes behind slot selections.
type FileSource interface {
	ReadAll(id string) ([]byte, error)
	Delete(id string) error
}

// Analyzer performs the remote analysis call.
type Analyzer interface {
	Analyze(ctx context.Context, req *analysis.SubmissionRequest) (*models.AnalysisResult, error)
}

// Handoff receives finished results for the results view.
type Handoff interface {
	Put(owner string, result *models.AnalysisResult) string
	Discard(id string)
}

// Completion describes a successful submission.
type Completion struct {
	Owner        string
	ResultID     string
	Displacement string
	Position     string
	Result       *models.AnalysisResult
	Duration     time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithCompletionHook registers fn to run after every successful submission.
func WithCompletionHook(fn func(Completion)) Option {
	return func(c *Controller) { c.onComplete = fn }
}

// WithTimeout bounds each analysis call.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	ID         string     `json:"id"`
	State      State      `json:"state"`
	Ready      bool       `json:"ready"`
	Processing bool       `json:"processing"`
	CanSubmit  bool       `json:"canSubmit"`
	Slots      []SlotView `json:"slots"`
	Notice     string     `json:"notice,omitempty"`
	ResultID   string     `json:"resultId,omitempty"`
	ErrorKind  string     `json:"errorKind,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Slot returns the view of the slot with the given role.
func (s Snapshot) Slot(role Role) SlotView {
	for _, v := range s.Slots {
		if v.Role == role {
			return v
		}
	}
	return SlotView{Role: role}
}

// Controller owns the two slots of one browser session and drives
// submission. All methods are safe for concurrent use; transitions are
// serialised by the controller's lock.
type Controller struct {
	id       string
	files    FileSource
	analyzer Analyzer
	handoff  Handoff

	onComplete func(Completion)
	timeout    time.Duration

	mu        sync.Mutex
	state     State
	slots     map[Role]*Slot
	notice    string
	resultID  string
	lastErr   error
	updatedAt time.Time
	done      chan struct{}
	closed    bool
	subs      map[int]chan Snapshot
	nextSub   int
}

// NewController creates a controller with two empty slots in IDLE.
func NewController(id string, files FileSource, analyzer Analyzer, handoff Handoff, opts ...Option) *Controller {
	c := &Controller{
		id:       id,
		files:    files,
		analyzer: analyzer,
		handoff:  handoff,
		state:    StateIdle,
		slots: map[Role]*Slot{
			RoleDisplacement: NewSlot(RoleDisplacement),
			RolePosition:     NewSlot(RolePosition),
		},
		updatedAt: time.Now(),
		subs:      make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the owning session ID.
func (c *Controller) ID() string { return c.id }

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsReady reports whether both slots hold a file.
func (c *Controller) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isReadyLocked()
}

// LastError returns the error of the most recent failed submission.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Select replaces the file in the role's slot.
func (c *Controller) Select(role Role, file *models.FileInfo) error {
	return c.mutateSlot(role, func(s *Slot) (*models.FileInfo, bool) {
		return s.Select(file), true
	})
}

// Drop applies a drop of files onto the role's slot. Only the first file is
// used; an empty drop is a no-op.
func (c *Controller) Drop(role Role, files []*models.FileInfo) error {
	return c.mutateSlot(role, func(s *Slot) (*models.FileInfo, bool) {
		return s.Drop(files)
	})
}

// Clear empties the role's slot.
func (c *Controller) Clear(role Role) error {
	return c.mutateSlot(role, func(s *Slot) (*models.FileInfo, bool) {
		return s.Clear(), true
	})
}

// SetDragActive updates the drag-over indicator of the role's slot.
func (c *Controller) SetDragActive(role Role, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	slot, ok := c.slots[role]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if slot.DragActive() == active {
		return nil
	}
	slot.SetDragActive(active)
	c.touchLocked()
	return nil
}

func (c *Controller) mutateSlot(role Role, fn func(*Slot) (*models.FileInfo, bool)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	slot, ok := c.slots[role]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	replaced, changed := fn(slot)
	if changed {
		switch c.state {
		case StateDone:
			// a new selection starts a new workflow
			c.resetLocked()
		case StateIdle, StateReady, StateFailed:
			c.notice = ""
			c.lastErr = nil
			c.state = c.restingStateLocked()
		}
		c.touchLocked()
	}
	c.mu.Unlock()

	c.release(replaced)
	return nil
}

// Submit validates readiness, captures both files and starts the analysis
// in the background. It returns ErrValidation when a slot is empty and
// ErrSubmissionInFlight while a previous submission is still running;
// neither performs a network call.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state == StateSubmitting {
		return ErrSubmissionInFlight
	}
	if !c.isReadyLocked() {
		c.notice = NoticeBothFilesRequired
		c.touchLocked()
		return ErrValidation
	}

	datInfo := c.slots[RoleDisplacement].File()
	inpInfo := c.slots[RolePosition].File()

	req, err := c.capture(ctx, datInfo, inpInfo)
	if err != nil {
		fmt.Printf("[Intake %s] ERROR capturing files: %v\n", shortID(c.id), err)
		c.state = StateFailed
		c.notice = NoticeSubmissionFailed
		c.lastErr = err
		c.touchLocked()
		return fmt.Errorf("capturing submission: %w", err)
	}

	c.state = StateSubmitting
	c.notice = ""
	c.lastErr = nil
	c.resultID = ""
	done := make(chan struct{})
	c.done = done
	c.touchLocked()

	fmt.Printf("[Intake %s] Submitting %s + %s\n", shortID(c.id), datInfo.Name, inpInfo.Name)
	go c.run(context.WithoutCancel(ctx), req, done)
	return nil
}

// capture copies both files out of storage so later slot changes cannot
// affect the request body.
func (c *Controller) capture(ctx context.Context, dat, inp *models.FileInfo) (*analysis.SubmissionRequest, error) {
	var datFile, inpFile analysis.File
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := c.files.ReadAll(dat.ID)
		if err != nil {
			return fmt.Errorf("reading %s: %w", dat.Name, err)
		}
		datFile = analysis.File{Name: dat.Name, Data: data}
		return nil
	})
	g.Go(func() error {
		data, err := c.files.ReadAll(inp.ID)
		if err != nil {
			return fmt.Errorf("reading %s: %w", inp.Name, err)
		}
		inpFile = analysis.File{Name: inp.Name, Data: data}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return analysis.NewSubmissionRequest(&datFile, &inpFile)
}

func (c *Controller) run(ctx context.Context, req *analysis.SubmissionRequest, done chan struct{}) {
	start := time.Now()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.analyze(ctx, req)
	c.finish(req, result, err, time.Since(start), done)
}

func (c *Controller) analyze(ctx context.Context, req *analysis.SubmissionRequest) (result *models.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()
	return c.analyzer.Analyze(ctx, req)
}

func (c *Controller) finish(req *analysis.SubmissionRequest, result *models.AnalysisResult, err error, elapsed time.Duration, done chan struct{}) {
	var (
		released   []*models.FileInfo
		completion *Completion
	)

	c.mu.Lock()
	switch {
	case c.closed:
		fmt.Printf("[Intake %s] Submission finished after close, dropping result\n", shortID(c.id))
	case err != nil:
		fmt.Printf("[Intake %s] Submission failed after %dms: %v\n", shortID(c.id), elapsed.Milliseconds(), err)
		c.state = StateFailed
		c.notice = NoticeSubmissionFailed
		c.lastErr = err
	default:
		c.resultID = c.handoff.Put(c.id, result)
		c.state = StateDone
		c.notice = ""
		for _, role := range Roles {
			if f := c.slots[role].Clear(); f != nil {
				released = append(released, f)
			}
			c.slots[role].SetDragActive(false)
		}
		completion = &Completion{
			Owner:        c.id,
			ResultID:     c.resultID,
			Displacement: req.Displacement().Name,
			Position:     req.Position().Name,
			Result:       result,
			Duration:     elapsed,
		}
		fmt.Printf("[Intake %s] Submission complete in %dms, result %s\n", shortID(c.id), elapsed.Milliseconds(), shortID(c.resultID))
	}
	c.touchLocked()
	c.mu.Unlock()

	c.release(released...)
	if completion != nil && c.onComplete != nil {
		c.onComplete(*completion)
	}
	close(done)
}

// Wait blocks until no submission is in flight or ctx is done, and returns
// the resulting snapshot.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
	return c.Snapshot(), nil
}

// Reset returns a finished workflow to IDLE, discarding the handed-off
// result. It returns the discarded result ID, if any.
func (c *Controller) Reset() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateDone {
		return ""
	}
	id := c.resultID
	c.resetLocked()
	c.touchLocked()
	return id
}

// Subscribe returns a channel receiving a snapshot after every change,
// starting with the current state. The cancel func must be called to
// release the subscription.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close releases stored files and the handed-off result and ends all
// subscriptions. A submission still in flight finishes without effect.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	var released []*models.FileInfo
	for _, role := range Roles {
		if f := c.slots[role].Clear(); f != nil {
			released = append(released, f)
		}
	}
	if c.resultID != "" {
		c.handoff.Discard(c.resultID)
		c.resultID = ""
	}
	c.closed = true
	for id, sub := range c.subs {
		delete(c.subs, id)
		close(sub)
	}
	c.mu.Unlock()

	c.release(released...)
}

func (c *Controller) isReadyLocked() bool {
	return !c.slots[RoleDisplacement].Empty() && !c.slots[RolePosition].Empty()
}

func (c *Controller) restingStateLocked() State {
	if c.isReadyLocked() {
		return StateReady
	}
	return StateIdle
}

func (c *Controller) resetLocked() {
	if c.resultID != "" {
		c.handoff.Discard(c.resultID)
	}
	c.resultID = ""
	c.notice = ""
	c.lastErr = nil
	c.state = c.restingStateLocked()
}

// touchLocked stamps the state and publishes it to subscribers.
func (c *Controller) touchLocked() {
	c.updatedAt = time.Now()
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// keep the newest state when a subscriber lags
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         c.id,
		State:      c.state,
		Ready:      c.isReadyLocked(),
		Processing: c.state == StateSubmitting,
		Notice:     c.notice,
		ResultID:   c.resultID,
		UpdatedAt:  c.updatedAt,
	}
	snap.CanSubmit = snap.Ready && !snap.Processing
	for _, role := range Roles {
		snap.Slots = append(snap.Slots, c.slots[role].View())
	}
	if kind, ok := analysis.KindOf(c.lastErr); ok {
		snap.ErrorKind = string(kind)
	}
	return snap
}

func (c *Controller) release(files ...*models.FileInfo) {
	for _, f := range files {
		if f == nil {
			continue
		}
		if err := c.files.Delete(f.ID); err != nil {
			fmt.Printf("[Intake %s] Warning: failed to release %s: %v\n", shortID(c.id), f.Name, err)
		}
	}
}

// shortID safely truncates an ID for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
