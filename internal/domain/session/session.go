// Package session implements the task session state machine. A session
// orchestrates one assessment attempt: model readiness, countdown,
// active tracking, and completion. It owns the sample buffer, the
// scorers, and (for ocular tasks) the target tracker for that attempt.
//
// The engine itself is synchronous: one frame in, one live readout out.
// The timers around it (countdown, task duration, target relocation)
// run as driver goroutines bound to a stop channel that the session
// closes on any terminal or restart transition, so no driver keeps
// mutating an attempt the caller believes is over.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/steadilab/steadi/internal/domain/buffer"
	"github.com/steadilab/steadi/internal/domain/gaze"
	"github.com/steadilab/steadi/internal/domain/model"
	"github.com/steadilab/steadi/internal/domain/scoring"
	"github.com/steadilab/steadi/internal/domain/types"
	"github.com/steadilab/steadi/pkg/logger"
	"github.com/steadilab/steadi/pkg/metrics"
)

// Default session timing.
const (
	defaultDuration       = 30 * time.Second
	defaultCountdown      = 3 * time.Second
	defaultTargetInterval = 2 * time.Second
)

// Command is a session-host action applied to a running session.
type Command string

// Commands accepted by Apply.
const (
	CommandModelReady  Command = "model_ready"
	CommandStart       Command = "start"
	CommandRestart     Command = "restart"
	CommandSkip        Command = "skip"
	CommandFinishEarly Command = "finish_early"
)

// Status is the per-frame readout handed back to the session host.
// Remaining is kept as a Duration for Go callers; on the wire it is
// reported as whole milliseconds, which is what a host rendering a
// countdown wants rather than raw nanoseconds.
type Status struct {
	State        types.SessionState `json:"state"`
	LiveScore    float64            `json:"live_score"`
	SampleCount  int                `json:"sample_count"`
	Remaining    time.Duration      `json:"-"`
	RemainingMS  int64              `json:"remaining_ms"`
	RestartCount int                `json:"restart_count"`
}

// Session runs one assessment attempt for one task kind. All methods
// are safe for concurrent use; internally a single mutex serializes
// state transitions and frame processing.
type Session struct {
	id   string
	task types.TaskKind

	mu    sync.Mutex
	state types.SessionState

	// Attempt-scoped data, reset on every entry into tracking.
	points   *buffer.PointBuffer
	deltas   *buffer.DeltaBuffer
	tracker  *gaze.TargetTracker
	lastGaze *types.Point

	liveScore    float64
	restartCount int
	startedAt    time.Time

	motor  *scoring.MotorScorer
	ocular *scoring.OcularScorer

	// Driver lifecycle. stop is re-created on every arm (Start after
	// Ready) and closed exactly once per arming by halt.
	stop    chan struct{}
	stopped bool
	drivers sync.WaitGroup

	finalized bool
	result    *model.Result
	onDone    func(model.Result)

	duration       time.Duration
	countdown      time.Duration
	targetInterval time.Duration
	scoringOpts    []scoring.Option
	trackerOpts    []gaze.TrackerOption

	logger logger.Logger
}

// New creates a session in the loading state for the given task kind.
func New(id string, task types.TaskKind, opts ...Option) *Session {
	s := &Session{
		id:             id,
		task:           task,
		state:          types.StateLoading,
		duration:       defaultDuration,
		countdown:      defaultCountdown,
		targetInterval: defaultTargetInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Resolve the logger after options so construction never depends on
	// global logger initialization.
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	switch task {
	case types.TaskMotor:
		s.motor = scoring.NewMotorScorer(s.scoringOpts...)
	case types.TaskOcular:
		s.ocular = scoring.NewOcularScorer(s.scoringOpts...)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Task returns the session's task kind.
func (s *Session) Task() types.TaskKind { return s.task }

// State returns the current lifecycle state.
func (s *Session) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the current readout without processing a frame.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Apply dispatches a host command to the matching transition method.
func (s *Session) Apply(ctx context.Context, cmd Command) error {
	switch cmd {
	case CommandModelReady:
		return s.ModelReady(ctx)
	case CommandStart:
		return s.Start(ctx)
	case CommandRestart:
		return s.Restart(ctx)
	case CommandSkip:
		return s.Skip(ctx)
	case CommandFinishEarly:
		return s.FinishEarly(ctx)
	default:
		return ErrUnknownCommand
	}
}

// ModelReady signals that the external landmark source is producing
// detections and the session may be started.
func (s *Session) ModelReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case types.StateLoading:
		s.state = types.StateReady
		s.logger.Debug(ctx, "model ready", logger.String("session_id", s.id))
		return nil
	case types.StateReady:
		return nil // duplicate readiness signal is harmless
	case types.StateDone:
		return ErrSessionDone
	default:
		return ErrInvalidTransition
	}
}

// Start begins the attempt. With a countdown configured it enters the
// countdown state and a timer driver promotes it to tracking; with a
// zero countdown it enters tracking directly.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == types.StateDone {
		return ErrSessionDone
	}
	if s.state != types.StateReady {
		return ErrInvalidTransition
	}

	s.armLocked()
	if s.countdown <= 0 {
		s.enterTrackingLocked(ctx)
		return nil
	}

	s.state = types.StateCountdown
	s.drivers.Add(1)
	go s.runCountdown(s.stop, s.countdown)
	s.logger.Info(ctx, "countdown started",
		logger.String("session_id", s.id),
		logger.Duration("countdown", s.countdown))
	return nil
}

// Restart discards the current attempt's buffer, counters, and timers
// and returns the session to ready. The produced result, if the attempt
// had already finished, is unaffected; a finished session cannot restart.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case types.StateDone:
		return ErrSessionDone
	case types.StateCountdown, types.StateTracking:
		s.haltLocked()
		s.discardAttemptLocked()
		s.restartCount++
		s.state = types.StateReady
		metrics.RecordSessionRestarted(string(s.task))
		s.logger.Info(ctx, "session restarted",
			logger.String("session_id", s.id),
			logger.Int("restart_count", s.restartCount))
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Skip terminates the attempt without scoring. A skip is an absence of
// data, not perfect stillness: the result carries a score of exactly 0
// and no statistics.
func (s *Session) Skip(ctx context.Context) error {
	s.mu.Lock()
	if s.state == types.StateDone {
		s.mu.Unlock()
		return ErrSessionDone
	}
	res, ok := s.finalizeLocked(ctx, true)
	s.mu.Unlock()
	if ok {
		metrics.RecordSessionSkipped(string(s.task))
		s.dispatch(res)
	}
	return nil
}

// FinishEarly ends tracking immediately and runs the normal final
// scoring over whatever was collected.
func (s *Session) FinishEarly(ctx context.Context) error {
	s.mu.Lock()
	if s.state == types.StateDone {
		s.mu.Unlock()
		return ErrSessionDone
	}
	if s.state != types.StateTracking {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	res, ok := s.finalizeLocked(ctx, false)
	s.mu.Unlock()
	if ok {
		metrics.RecordSessionCompleted(string(s.task))
		s.dispatch(res)
	}
	return nil
}

// ProcessFrame ingests one landmark frame and returns the updated live
// readout. Frames arriving outside the tracking state, and frames the
// landmark source could not populate, are dropped rather than treated
// as zero-motion samples.
func (s *Session) ProcessFrame(ctx context.Context, frame model.Frame) (Status, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != types.StateTracking {
		metrics.RecordFrameDropped()
		return s.statusLocked(), nil
	}

	switch s.task {
	case types.TaskMotor:
		s.processMotorFrameLocked(frame)
	case types.TaskOcular:
		s.processOcularFrameLocked(frame)
	}

	metrics.RecordFrameLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	return s.statusLocked(), nil
}

func (s *Session) processMotorFrameLocked(frame model.Frame) {
	if frame.Hand == nil {
		metrics.RecordFrameDropped()
		return
	}
	s.points.Append(*frame.Hand)
	p := s.motor.Policy()
	s.liveScore = s.motor.LiveScore(s.points.TrailingWindow(p.LiveWindow))
	metrics.RecordFrameProcessed(string(s.task))
	metrics.UpdateLiveScore(string(s.task), s.liveScore)
}

func (s *Session) processOcularFrameLocked(frame model.Frame) {
	point, _, ok := gaze.DerivePoint(frame.Face)
	if !ok {
		metrics.RecordFrameDropped()
		return
	}
	s.tracker.Observe(point)
	if s.lastGaze != nil {
		s.deltas.Append(point.Dist(*s.lastGaze))
		s.liveScore = s.ocular.LiveScore(s.deltas.TrailingWindow(s.deltas.Len()))
	}
	last := point
	s.lastGaze = &last
	metrics.RecordFrameProcessed(string(s.task))
	metrics.UpdateLiveScore(string(s.task), s.liveScore)
}

// Result returns the immutable result record, or ErrNotFinished while
// the session is still in progress.
func (s *Session) Result(ctx context.Context) (model.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return model.Result{}, ErrNotFinished
	}
	return *s.result, nil
}

// Shutdown cancels the session: all drivers are stopped and the attempt
// is terminated without producing a result. It waits for the drivers to
// exit or for ctx to expire.
func (s *Session) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.haltLocked()
	if !s.finalized {
		s.finalized = true
		s.state = types.StateDone
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.drivers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// armLocked prepares a fresh stop channel for a new countdown/tracking
// phase. Callers must hold s.mu.
func (s *Session) armLocked() {
	s.stop = make(chan struct{})
	s.stopped = false
}

// haltLocked closes the current stop channel, if any, exactly once.
func (s *Session) haltLocked() {
	if s.stop != nil && !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

func (s *Session) discardAttemptLocked() {
	s.points = nil
	s.deltas = nil
	s.tracker = nil
	s.lastGaze = nil
	s.liveScore = 0
}

// enterTrackingLocked resets the attempt-scoped buffers, target state,
// and timers, then starts the tracking drivers on the current stop
// channel.
func (s *Session) enterTrackingLocked(ctx context.Context) {
	s.points = buffer.NewPointBuffer()
	s.deltas = buffer.NewDeltaBuffer()
	s.lastGaze = nil
	s.liveScore = scoring.NeutralScore
	s.startedAt = time.Now()
	s.state = types.StateTracking

	s.drivers.Add(1)
	go s.runDurationTimer(s.stop, s.duration)

	if s.task == types.TaskOcular {
		s.tracker = gaze.NewTargetTracker(s.trackerOpts...)
		s.drivers.Add(1)
		go s.runTargetRelocator(s.stop, s.tracker, s.targetInterval)
	}

	s.logger.Info(ctx, "tracking started",
		logger.String("session_id", s.id),
		logger.String("task", string(s.task)),
		logger.Duration("duration", s.duration))
}

func (s *Session) runCountdown(stop chan struct{}, d time.Duration) {
	defer s.drivers.Done()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
	case <-t.C:
		s.mu.Lock()
		if s.state == types.StateCountdown {
			s.enterTrackingLocked(context.Background())
		}
		s.mu.Unlock()
	}
}

func (s *Session) runDurationTimer(stop chan struct{}, d time.Duration) {
	defer s.drivers.Done()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
	case <-t.C:
		s.expire()
	}
}

// runTargetRelocator re-randomizes the target on a fixed interval. The
// tracker's target cell is written only here and read atomically by the
// frame path, so the proximity check never sees a torn position.
func (s *Session) runTargetRelocator(stop chan struct{}, tr *gaze.TargetTracker, interval time.Duration) {
	defer s.drivers.Done()
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tick.C:
			tr.Relocate()
		}
	}
}

// expire handles the duration timer firing. The attempt may already
// have been finished, skipped, or restarted; finalizeLocked's guard
// ensures the timer and an explicit finish cannot both score it.
func (s *Session) expire() {
	ctx := context.Background()
	s.mu.Lock()
	if s.state != types.StateTracking {
		s.mu.Unlock()
		return
	}
	res, ok := s.finalizeLocked(ctx, false)
	s.mu.Unlock()
	if ok {
		metrics.RecordSessionCompleted(string(s.task))
		s.dispatch(res)
	}
}

// finalizeLocked computes the result record exactly once, stops the
// drivers, and moves the session to done. It reports false if another
// path already finalized this attempt.
func (s *Session) finalizeLocked(ctx context.Context, skipped bool) (model.Result, bool) {
	if s.finalized {
		return model.Result{}, false
	}
	s.finalized = true
	s.haltLocked()

	res := s.buildResultLocked(skipped)
	s.result = &res
	s.state = types.StateDone

	metrics.RecordFinalScore(string(s.task), res.Score)
	s.logger.Info(ctx, "session finalized",
		logger.String("session_id", s.id),
		logger.String("task", string(s.task)),
		logger.Float64("score", res.Score),
		logger.Int("sample_count", res.SampleCount),
		logger.Bool("was_skipped", res.WasSkipped))
	return res, true
}

func (s *Session) buildResultLocked(skipped bool) model.Result {
	res := model.Result{
		SessionID:    s.id,
		Task:         s.task,
		WasSkipped:   skipped,
		RestartCount: s.restartCount,
		CompletedAt:  time.Now().UTC(),
	}
	if skipped {
		return res
	}

	switch s.task {
	case types.TaskMotor:
		samples := s.samplesLocked()
		fin := s.motor.FinalScore(samples)
		res.Score = fin.Score
		res.SampleCount = fin.SampleCount
		res.Aux.VarianceX = fin.VarianceX
		res.Aux.VarianceY = fin.VarianceY
		res.Series = trailingPoints(samples)
	case types.TaskOcular:
		deltas := s.deltasLocked()
		fin := s.ocular.FinalScore(deltas)
		pct := s.tracker.Percent()
		res.Score = s.ocular.DiscountForTargetMiss(fin.Score, pct)
		res.SampleCount = fin.DeltaCount
		res.Aux.MeanDelta = fin.MeanDelta
		res.Aux.RMSDelta = fin.RMSDelta
		res.OnTargetPercent = &pct
		res.Series = deltaSeries(deltas)
		metrics.RecordOnTargetPercent(float64(pct))
	}
	return res
}

func (s *Session) samplesLocked() []types.Point {
	if s.points == nil {
		return nil
	}
	return s.points.Snapshot()
}

func (s *Session) deltasLocked() []float64 {
	if s.deltas == nil {
		return nil
	}
	return s.deltas.Snapshot()
}

func (s *Session) statusLocked() Status {
	remaining := s.remainingLocked()
	return Status{
		State:        s.state,
		LiveScore:    s.liveScore,
		SampleCount:  s.sampleCountLocked(),
		Remaining:    remaining,
		RemainingMS:  remaining.Milliseconds(),
		RestartCount: s.restartCount,
	}
}

func (s *Session) sampleCountLocked() int {
	switch s.task {
	case types.TaskOcular:
		if s.deltas != nil {
			return s.deltas.Len()
		}
	default:
		if s.points != nil {
			return s.points.Len()
		}
	}
	return 0
}

func (s *Session) remainingLocked() time.Duration {
	if s.state != types.StateTracking {
		return 0
	}
	left := s.duration - time.Since(s.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (s *Session) dispatch(res model.Result) {
	if s.onDone != nil {
		s.onDone(res)
	}
}

// trailingPoints copies the trailing charting slice so the result stays
// immutable history once the buffer is released.
func trailingPoints(samples []types.Point) []types.Point {
	n := len(samples)
	if n > model.SeriesLimit {
		samples = samples[n-model.SeriesLimit:]
	}
	out := make([]types.Point, len(samples))
	copy(out, samples)
	return out
}

// deltaSeries folds delta magnitudes into the X component of the
// charting series.
func deltaSeries(deltas []float64) []types.Point {
	n := len(deltas)
	if n > model.SeriesLimit {
		deltas = deltas[n-model.SeriesLimit:]
	}
	out := make([]types.Point, len(deltas))
	for i, d := range deltas {
		out[i] = types.Point{X: d}
	}
	return out
}
