package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/fitcoach/internal/notify"
	"github.com/2beens/fitcoach/internal/profile"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultDelay       = 800 * time.Millisecond
	DefaultSaveTimeout = 15 * time.Second
)

type State int

const (
	// StateIdle means nothing is buffered and no timer is armed.
	StateIdle State = iota
	// StatePending means edits are buffered, waiting for the timer or for a retry.
	StatePending
	// StateSaving means a save request is outstanding.
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSaving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=autosave_test

type Saver interface {
	SaveProfile(ctx context.Context, id int, input profile.Input) (*profile.Profile, error)
}

// Invalidator drops any cached copy of a profile after it was saved.
type Invalidator interface {
	InvalidateProfile(id int)
}

type Options struct {
	// Delay is the quiet period after the last edit before a save is sent.
	Delay time.Duration
	// RequiredFields are taken from the baseline and sent with every save.
	RequiredFields []profile.Field
	// SaveTimeout bounds a single save request.
	SaveTimeout time.Duration
	// NotifyOnSuccess raises a toast after every successful save.
	NotifyOnSuccess bool
	Clock           Clock
}

// Coordinator turns a stream of field edits into debounced, batched saves.
// The draft always reflects the latest edit, whatever the state of the saves.
type Coordinator struct {
	saver           Saver
	invalidator     Invalidator
	notifier        notify.Notifier
	clock           Clock
	delay           time.Duration
	saveTimeout     time.Duration
	requiredFields  []profile.Field
	notifyOnSuccess bool

	mu       sync.Mutex
	baseline *profile.Profile
	draft    *profile.Profile
	pending  profile.Input
	// inFlight holds the edits carried by the outstanding save, nil when
	// there is none.
	inFlight    profile.Input
	timer       Timer
	generation  uint64
	flushQueued bool
	closed      bool
}

func New(saver Saver, invalidator Invalidator, notifier notify.Notifier, opts Options) *Coordinator {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	if opts.RequiredFields == nil {
		opts.RequiredFields = profile.RequiredFields()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}

	return &Coordinator{
		saver:           saver,
		invalidator:     invalidator,
		notifier:        notifier,
		clock:           opts.Clock,
		delay:           opts.Delay,
		saveTimeout:     opts.SaveTimeout,
		requiredFields:  opts.RequiredFields,
		notifyOnSuccess: opts.NotifyOnSuccess,
		pending:         profile.Input{},
	}
}

// Load sets the baseline from fresh server data. The draft is replaced too,
// unless local edits are still waiting to be saved.
func (c *Coordinator) Load(p *profile.Profile) {
	if p == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.baseline = p.Clone()
	if c.draft == nil || (len(c.pending) == 0 && c.inFlight == nil) {
		c.draft = p.Clone()
	}
}

// Edit updates the draft right away and schedules a save. Edits of unknown
// or verification-only fields are dropped with a warning.
func (c *Coordinator) Edit(field profile.Field, value profile.Value) {
	if err := profile.CheckKind(field, value); err != nil {
		log.Warnf("autosave: edit ignored: %s", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		log.Warnf("autosave: edit of [%s] ignored: coordinator closed", field)
		return
	}
	if c.draft == nil {
		log.Warnf("autosave: edit of [%s] ignored: profile not loaded", field)
		return
	}

	if err := c.draft.Set(field, value); err != nil {
		log.Warnf("autosave: edit ignored: %s", err)
		return
	}
	c.pending[field] = value
	c.armLocked(c.delay)
}

// Retry schedules an immediate save of whatever is pending.
func (c *Coordinator) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || len(c.pending) == 0 {
		return
	}
	c.armLocked(0)
}

// Close stops the timer and returns the edits the server has not confirmed:
// the pending ones, laid over the edits of a save still in flight. The result
// of that save is discarded and later calls are ignored.
func (c *Coordinator) Close() profile.Input {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return profile.Input{}
	}
	c.closed = true
	c.stopTimerLocked()

	unsent := c.pending
	if c.inFlight != nil {
		unsent = c.inFlight.Clone()
		unsent.Merge(c.pending)
	}
	c.pending = profile.Input{}
	return unsent
}

// Draft returns a copy of the local draft. It is the zero Profile until the
// baseline is loaded.
func (c *Coordinator) Draft() profile.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draft == nil {
		return profile.Profile{}
	}
	return *c.draft.Clone()
}

func (c *Coordinator) IsLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseline != nil
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.inFlight != nil:
		return StateSaving
	case len(c.pending) > 0:
		return StatePending
	default:
		return StateIdle
	}
}

// Pending returns a copy of the edits not yet sent.
func (c *Coordinator) Pending() profile.Input {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.Clone()
}

func (c *Coordinator) armLocked(d time.Duration) {
	c.stopTimerLocked()
	gen := c.generation
	c.timer = c.clock.AfterFunc(d, func() {
		c.flush(gen)
	})
}

// stopTimerLocked also bumps the generation, so a callback that already
// started firing finds itself stale.
func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
}

func (c *Coordinator) flush(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.timer = nil

	if c.inFlight != nil {
		c.flushQueued = true
		c.mu.Unlock()
		return
	}
	if len(c.pending) == 0 || c.baseline == nil {
		c.mu.Unlock()
		return
	}

	id := c.baseline.ID
	payload := make(profile.Input, len(c.requiredFields)+len(c.pending))
	for _, field := range c.requiredFields {
		payload[field] = c.baseline.Get(field)
	}
	payload.Merge(c.pending)

	c.inFlight = c.pending
	c.pending = profile.Input{}
	c.mu.Unlock()

	saved, err := c.save(id, payload)
	c.finish(id, saved, err)
}

func (c *Coordinator) save(id int, payload profile.Input) (_ *profile.Profile, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.saveTimeout)
	defer cancel()

	ctx, span := tracing.GlobalEditorTracer.Start(ctx, "autosave.flush")
	span.SetAttributes(
		attribute.Int("profile.id", id),
		attribute.Int("payload.fields", len(payload)),
	)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	log.Debugf("autosave: saving profile [%d], fields: %v", id, payload.Fields())
	return c.saver.SaveProfile(ctx, id, payload)
}

func (c *Coordinator) finish(id int, saved *profile.Profile, saveErr error) {
	c.mu.Lock()
	sent := c.inFlight
	c.inFlight = nil
	queued := c.flushQueued
	c.flushQueued = false

	if c.closed {
		c.mu.Unlock()
		log.Debugf("autosave: result of saving profile [%d] discarded, coordinator closed", id)
		return
	}

	if saveErr != nil {
		// edits made during the flight are newer and win
		sent.Merge(c.pending)
		c.pending = sent
		if queued {
			c.armLocked(0)
		}
		c.mu.Unlock()

		log.Errorf("autosave: save profile [%d]: %s", id, saveErr)
		c.notifier.Notify(notify.Error(
			"Profile not saved",
			"Your changes are kept and will be sent again with your next edit.",
		))
		return
	}

	if saved != nil {
		c.baseline = saved.Clone()
		if len(c.pending) == 0 {
			c.draft = saved.Clone()
		}
	}
	if queued && len(c.pending) > 0 {
		c.armLocked(0)
	}
	c.mu.Unlock()

	if c.invalidator != nil {
		c.invalidator.InvalidateProfile(id)
	}
	if c.notifyOnSuccess {
		c.notifier.Notify(notify.Success("Profile saved", "Your changes were saved."))
	}
}
