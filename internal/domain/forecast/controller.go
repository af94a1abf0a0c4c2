package forecast

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/branch-forecast/pkg/errors"
	"github.com/yanqian/branch-forecast/pkg/metrics"
	"github.com/yanqian/branch-forecast/pkg/util"
)

// ErrControllerClosed is returned once the controller has been shut down.
var ErrControllerClosed = errors.New("prediction controller closed")

// Fetcher calls the external prediction endpoint and returns the decoded body.
type Fetcher interface {
	FetchPredictions(ctx context.Context, req PredictionRequest) (any, error)
}

// AnomalyRecorder keeps dropped points for diagnostics.
type AnomalyRecorder interface {
	Record(ctx context.Context, anomalies []PointAnomaly) error
	Recent(ctx context.Context, limit int) ([]PointAnomaly, error)
}

// ticket tags an issued request. A response is applied only while its ticket
// is still the active one.
type ticket struct {
	branch    BranchID
	requestID string
}

// Controller owns the prediction state of the selected branch. Requests run
// concurrently, transitions are serialized by mu and the last selection wins.
type Controller struct {
	cfg      Config
	fetcher  Fetcher
	recorder AnomalyRecorder
	counters *metrics.FetchCounters
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	selected BranchID
	active   ticket
	state    RequestState
	subs     map[int]chan RequestState
	nextSub  int
}

// NewController builds a controller in the Idle state.
func NewController(cfg Config, fetcher Fetcher, recorder AnomalyRecorder, counters *metrics.FetchCounters, logger *slog.Logger) *Controller {
	defaults := DefaultConfig()
	if cfg.Periods <= 0 {
		cfg.Periods = defaults.Periods
	}
	if cfg.Frequency == "" {
		cfg.Frequency = defaults.Frequency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if counters == nil {
		counters = &metrics.FetchCounters{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:      cfg,
		fetcher:  fetcher,
		recorder: recorder,
		counters: counters,
		logger:   logger.With("component", "forecast.controller"),
		now:      util.NowUTC,
		newID:    uuid.NewString,
		baseCtx:  ctx,
		cancel:   cancel,
		subs:     make(map[int]chan RequestState),
	}
	c.state = RequestState{Status: StatusIdle, Result: emptyResult(), UpdatedAt: c.now()}
	return c
}

// SelectBranch switches to branch and issues a fresh request. Selecting the
// branch that is already selected does nothing.
func (c *Controller) SelectBranch(branch BranchID) error {
	if !branch.Valid() {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "branch id cannot be empty", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrControllerClosed
	}
	if branch == c.selected {
		return nil
	}
	c.selected = branch
	c.issueLocked()
	return nil
}

// Refresh re-issues the request for the selected branch, e.g. after a failure.
func (c *Controller) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrControllerClosed
	}
	if c.selected == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "no branch selected", nil)
	}
	c.issueLocked()
	return nil
}

// CurrentState returns a copy of the current state.
func (c *Controller) CurrentState() RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selected returns the selected branch, empty before the first selection.
func (c *Controller) Selected() BranchID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Stats exposes request counters.
func (c *Controller) Stats() metrics.FetchSnapshot {
	return c.counters.Snapshot()
}

// Subscribe delivers a snapshot after every transition, starting with the
// current state. A slow reader only sees the latest snapshot.
func (c *Controller) Subscribe() (<-chan RequestState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan RequestState, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.state

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

// Wait blocks until every issued request has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight requests and ends all subscriptions.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) issueLocked() {
	t := ticket{branch: c.selected, requestID: c.newID()}
	c.active = t
	c.state = RequestState{
		Status:    StatusLoading,
		Branch:    t.branch,
		RequestID: t.requestID,
		Result:    emptyResult(),
		UpdatedAt: c.now(),
	}
	c.publishLocked()

	req := PredictionRequest{Branch: t.branch, Periods: c.cfg.Periods, Frequency: c.cfg.Frequency}
	c.counters.Issued()
	c.logger.Info("prediction request issued", "branch", t.branch, "request_id", t.requestID, "periods", req.Periods, "frequency", req.Frequency)

	c.wg.Add(1)
	go c.run(t, req)
}

func (c *Controller) run(t ticket, req PredictionRequest) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(c.baseCtx, c.cfg.Timeout)
	defer cancel()
	payload, err := c.fetcher.FetchPredictions(ctx, req)

	if !c.isActive(t) {
		c.discard(t)
		return
	}

	var (
		result    PredictionResult
		anomalies []PointAnomaly
	)
	if err == nil {
		result, anomalies, err = Normalize(payload)
	}
	if !c.apply(t, result, err) {
		return
	}
	c.recordAnomalies(t, anomalies)
}

func (c *Controller) isActive(t ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.active == t
}

func (c *Controller) discard(t ticket) {
	c.counters.Discarded()
	c.logger.Debug("stale prediction response discarded", "branch", t.branch, "request_id", t.requestID)
}

func (c *Controller) apply(t ticket, result PredictionResult, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.active != t {
		c.discard(t)
		return false
	}

	next := RequestState{Branch: t.branch, RequestID: t.requestID, UpdatedAt: c.now()}
	if err != nil {
		info := describeFailure(err)
		next.Status = StatusFailed
		next.Result = emptyResult()
		next.Error = info
		c.counters.Failed()
		c.logger.Warn("prediction request failed", "branch", t.branch, "request_id", t.requestID, "kind", info.Kind, "error", err)
	} else {
		next.Status = StatusSuccess
		next.Result = result
		c.counters.Applied()
		c.logger.Info("prediction request completed", "branch", t.branch, "request_id", t.requestID, "points", len(result.Points))
	}
	c.state = next
	c.publishLocked()
	return true
}

func (c *Controller) recordAnomalies(t ticket, anomalies []PointAnomaly) {
	if len(anomalies) == 0 {
		return
	}
	observed := c.now()
	for i := range anomalies {
		anomalies[i].Branch = t.branch
		anomalies[i].RequestID = t.requestID
		anomalies[i].ObservedAt = observed
		c.logger.Warn("prediction point dropped", "branch", t.branch, "request_id", t.requestID, "index", anomalies[i].Index, "reason", anomalies[i].Reason)
	}
	if c.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.recorder.Record(ctx, anomalies); err != nil {
		c.logger.Error("record point anomalies failed", "branch", t.branch, "error", err)
	}
}

func (c *Controller) publishLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- c.state:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c.state:
			default:
			}
		}
	}
}
