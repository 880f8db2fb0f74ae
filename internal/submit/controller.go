// Package submit sends the upload queue to the processing endpoint and owns
// the submission state machine.
package submit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/journal-ai/uploader/internal/models"
	"github.com/journal-ai/uploader/pkg/logger"
)

// State is the submission lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Guard errors returned synchronously by Submit.
var (
	ErrEmptyQueue           = errors.New("nothing to submit")
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// SettleFunc runs while the controller is in Succeeded or Failed, before it
// returns to Idle. Exactly one of resp and err is non-nil.
type SettleFunc func(resp *models.ProcessResponse, err *models.WidgetError)

// Options configures a Controller.
type Options struct {
	Endpoint      string
	HTTPClient    *http.Client
	OnStateChange func(from, to State)
	Now           func() time.Time
}

// OnStateChange is called with the controller's lock held and must not call
// back into the Controller.

// Controller posts one multipart request at a time.
type Controller struct {
	mu    sync.Mutex
	state State
	opts  Options
}

// NewController creates a Controller in the Idle state.
func NewController(opts Options) *Controller {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{state: StateIdle, opts: opts}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Endpoint returns the URL submissions are posted to.
func (c *Controller) Endpoint() string {
	return c.opts.Endpoint
}

// Begin performs the Idle -> Submitting transition. It fails without side
// effects when files is empty or a submission is already in flight.
func (c *Controller) Begin(files []models.PendingFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrSubmissionInProgress
	}
	if len(files) == 0 {
		return ErrEmptyQueue
	}
	c.transition(StateSubmitting)
	return nil
}

// Submit sends files and settles the request. Guard failures are returned as
// plain errors; request failures are returned as *models.WidgetError after
// the controller is back in Idle.
func (c *Controller) Submit(ctx context.Context, files []models.PendingFile, settle SettleFunc) (*models.ProcessResponse, error) {
	if err := c.Begin(files); err != nil {
		return nil, err
	}
	return c.Run(ctx, files, settle)
}

// Run sends files for a submission already started with Begin.
func (c *Controller) Run(ctx context.Context, files []models.PendingFile, settle SettleFunc) (*models.ProcessResponse, error) {
	resp, werr := c.send(ctx, files)

	c.mu.Lock()
	if werr != nil {
		c.transition(StateFailed)
	} else {
		c.transition(StateSucceeded)
	}
	c.mu.Unlock()

	if settle != nil {
		settle(resp, werr)
	}

	c.mu.Lock()
	c.transition(StateIdle)
	c.mu.Unlock()

	if werr != nil {
		return nil, werr
	}
	return resp, nil
}

func (c *Controller) send(ctx context.Context, files []models.PendingFile) (*models.ProcessResponse, *models.WidgetError) {
	timestamp := c.opts.Now()
	req, err := NewRequest(ctx, c.opts.Endpoint, files, timestamp)
	if err != nil {
		return nil, &models.WidgetError{Kind: models.ErrNetworkFailure, Message: err.Error(), Cause: err}
	}

	logger.Info(ctx, "submitting journal pages", "endpoint", c.opts.Endpoint, "pages", len(files))

	res, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, &models.WidgetError{Kind: models.ErrNetworkFailure, Message: err.Error(), Cause: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, &models.WidgetError{Kind: models.ErrNetworkFailure, Message: fmt.Sprintf("reading response: %v", err), Cause: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg := fmt.Sprintf("server responded %d %s", res.StatusCode, http.StatusText(res.StatusCode))
		if detail := errorMessage(body); detail != "" {
			msg += ": " + detail
		}
		logger.Warn(ctx, "submission rejected", "status", res.StatusCode, "reason", msg)
		return nil, &models.WidgetError{Kind: models.ErrServerError, Message: msg}
	}

	resp, err := DecodeResponse(body)
	if err != nil {
		return nil, &models.WidgetError{Kind: models.ErrServerError, Message: err.Error(), Cause: err}
	}
	logger.Info(ctx, "submission complete", "processedPages", resp.ProcessedPages)
	return resp, nil
}

// transition must be called with the lock held.
func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(from, to)
	}
}
