package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/user/crawler-panel/internal/catalog"
	"github.com/user/crawler-panel/internal/entity"
	"github.com/user/crawler-panel/internal/repository"
	"github.com/user/crawler-panel/pkg/metrics"
	"github.com/user/crawler-panel/pkg/utils"
)

var (
	// ErrValidation means the primary field was blank; nothing was sent.
	ErrValidation = errors.New("validation failed")
	// ErrBusy means the page already has a submission outstanding.
	ErrBusy = errors.New("submission already in progress")
	// ErrUnknownOperation is returned for anything but search, detail and creator.
	ErrUnknownOperation = errors.New("unknown operation")
)

const busyNotice = "任务正在执行中，请等待当前请求完成"

// JobSubmitter drives the form pages: it opens them with their defaults and
// relays submissions to the crawler API.
type JobSubmitter interface {
	// Open returns the page state of op for a session, seeding a new page
	// when none exists or a different platform was chosen.
	Open(ctx context.Context, sessionID string, op entity.Operation, platform string) (*entity.PageState, error)
	// Submit validates form and, if valid, calls the sync or async endpoint.
	// Upstream failures are folded into an error-status result; the returned
	// error is only set for validation, busy and storage problems, and the
	// returned state is always renderable.
	Submit(ctx context.Context, sessionID string, op entity.Operation, form entity.FormState, async bool) (*entity.PageState, error)
}

// SubmitterConfig holds the lifetimes of stored page state and submission locks.
type SubmitterConfig struct {
	StateTTL    time.Duration
	InFlightTTL time.Duration
}

type jobSubmitter struct {
	api      repository.CrawlerAPI
	pages    repository.PageStateRepository
	inFlight repository.InFlightRepository
	catalog  *catalog.Catalog
	cfg      SubmitterConfig
}

// NewJobSubmitter creates the submission use case.
func NewJobSubmitter(
	api repository.CrawlerAPI,
	pages repository.PageStateRepository,
	inFlight repository.InFlightRepository,
	cat *catalog.Catalog,
	cfg SubmitterConfig,
) JobSubmitter {
	return &jobSubmitter{
		api:      api,
		pages:    pages,
		inFlight: inFlight,
		catalog:  cat,
		cfg:      cfg,
	}
}

func lockKey(sessionID string, op entity.Operation) string {
	return sessionID + ":" + string(op)
}

func (uc *jobSubmitter) Open(ctx context.Context, sessionID string, op entity.Operation, platform string) (*entity.PageState, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	platform = strings.TrimSpace(platform)

	state, err := uc.pages.Get(ctx, sessionID, op)
	switch {
	case errors.Is(err, repository.ErrPageStateNotFound):
		state = nil
	case err != nil:
		return nil, fmt.Errorf("load page state: %w", err)
	}

	if state != nil && state.Loading {
		uc.reconcile(ctx, sessionID, state)
	}

	if state == nil || (platform != "" && platform != state.Form.Platform && !state.Loading) {
		state = entity.NewPageState(op, platform)
		if err := uc.pages.Save(ctx, sessionID, state, uc.cfg.StateTTL); err != nil {
			return nil, fmt.Errorf("save page state: %w", err)
		}
	}
	return state, nil
}

// reconcile clears a loading flag whose submission lock has expired, which
// happens when the process handling it went away mid-request.
func (uc *jobSubmitter) reconcile(ctx context.Context, sessionID string, state *entity.PageState) {
	key := lockKey(sessionID, state.Operation)
	acquired, err := uc.inFlight.Acquire(ctx, key, uc.cfg.InFlightTTL)
	if err != nil || !acquired {
		return
	}
	defer func() {
		if err := uc.inFlight.Release(ctx, key); err != nil {
			slog.Warn("Failed to release submission lock", "key", key, "error", err)
		}
	}()

	slog.Warn("Clearing stale loading flag", "operation", state.Operation)
	state.Loading = false
	if err := uc.pages.Save(ctx, sessionID, state, uc.cfg.StateTTL); err != nil {
		slog.Warn("Failed to save reconciled page state", "operation", state.Operation, "error", err)
	}
}

func (uc *jobSubmitter) Submit(ctx context.Context, sessionID string, op entity.Operation, form entity.FormState, async bool) (*entity.PageState, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	form = PrepareForm(op, form)

	state, err := uc.pages.Get(ctx, sessionID, op)
	if err != nil {
		if !errors.Is(err, repository.ErrPageStateNotFound) {
			slog.Warn("Failed to load page state, starting fresh", "operation", op, "error", err)
		}
		state = entity.NewPageState(op, form.Platform)
	}

	if err := Validate(uc.catalog, op, form); err != nil {
		metrics.ValidationRejectionsTotal.WithLabelValues(string(op)).Inc()
		if !state.Loading {
			state.Form = form
		}
		state.Notice = uc.catalog.EmptyNotice(op)
		uc.save(ctx, sessionID, state)
		return state, err
	}

	key := lockKey(sessionID, op)
	acquired, err := uc.inFlight.Acquire(ctx, key, uc.cfg.InFlightTTL)
	if err != nil {
		state.Notice = "无法提交任务，请稍后重试"
		return state, fmt.Errorf("acquire submission lock: %w", err)
	}
	if !acquired {
		state.Notice = busyNotice
		return state, ErrBusy
	}

	// The crawl keeps running if the browser goes away.
	runCtx := context.WithoutCancel(ctx)
	defer func() {
		if err := uc.inFlight.Release(runCtx, key); err != nil {
			slog.Warn("Failed to release submission lock", "key", key, "error", err)
		}
	}()

	state.Form = form
	state.Loading = true
	state.IsAsync = async
	state.Result = nil
	state.Notice = ""
	uc.save(runCtx, sessionID, state)

	mode := modeLabel(async)
	slog.Info("Submitting crawl job",
		"operation", op,
		"mode", mode,
		"platform", form.Platform,
		"login_type", form.LoginType,
		"save_data_option", form.SaveDataOption,
	)

	resp, err := Dispatch(runCtx, uc.api, op, form, async)
	if err != nil {
		slog.Warn("Crawl job submission failed", "operation", op, "mode", mode, "error", err)
		resp = entity.NewErrorResponse(err.Error())
	}

	state.Loading = false
	state.Result = resp
	uc.save(runCtx, sessionID, state)

	metrics.SubmissionsTotal.WithLabelValues(string(op), mode, string(resp.Status)).Inc()
	slog.Info("Crawl job finished", "operation", op, "mode", mode, "status", resp.Status, "pid", resp.PID)
	return state, nil
}

// save stores state without its notice: notices belong to the response they
// were raised on, not to later reloads.
func (uc *jobSubmitter) save(ctx context.Context, sessionID string, state *entity.PageState) {
	state.UpdatedAt = time.Now()
	stored := *state
	stored.Notice = ""
	if err := uc.pages.Save(ctx, sessionID, &stored, uc.cfg.StateTTL); err != nil {
		// The caller still renders the state it holds; only other tabs miss it.
		slog.Warn("Failed to save page state", "operation", state.Operation, "error", err)
	}
}

func modeLabel(async bool) string {
	if async {
		return "async"
	}
	return "sync"
}

// PrepareForm sanitizes form input and tidies ID lists.
func PrepareForm(op entity.Operation, form entity.FormState) entity.FormState {
	form.Sanitize()
	if op != entity.OperationSearch && strings.TrimSpace(form.Target) != "" {
		form.Target = strings.Join(utils.SplitIDs(form.Target), ",")
	}
	return form
}

// Validate rejects a form whose primary field is empty or only whitespace.
func Validate(cat *catalog.Catalog, op entity.Operation, form entity.FormState) error {
	if strings.TrimSpace(form.Target) == "" {
		return fmt.Errorf("%w: %s", ErrValidation, cat.EmptyNotice(op))
	}
	return nil
}

// Dispatch sends form to the endpoint of op; async selects the /async variant.
func Dispatch(ctx context.Context, api repository.CrawlerAPI, op entity.Operation, form entity.FormState, async bool) (*entity.APIResponse, error) {
	switch op {
	case entity.OperationSearch:
		req := form.SearchRequest()
		if async {
			return api.SearchAsync(ctx, req)
		}
		return api.Search(ctx, req)
	case entity.OperationDetail:
		req := form.DetailRequest()
		if async {
			return api.GetDetailAsync(ctx, req)
		}
		return api.GetDetail(ctx, req)
	case entity.OperationCreator:
		req := form.CreatorRequest()
		if async {
			return api.GetCreatorAsync(ctx, req)
		}
		return api.GetCreator(ctx, req)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
}
