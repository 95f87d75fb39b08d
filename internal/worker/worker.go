// Package worker implements the harvest pipeline execution loop: fetch,
// extract, assemble, persist, and schedule follow-up work.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/assemble"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/extract"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/fetch"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/flow"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/metrics"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/paginate"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// TaskBoard is the scheduling surface workers use to submit follow-up tasks
// and report completion. Implemented by the dispatcher's coordinator.
type TaskBoard interface {
	Submit(ctx context.Context, task scrape.Task) bool
	TaskDone()
	// FirstVisit reports whether url has not been scheduled before in this
	// run, recording it as visited.
	FirstVisit(url string) bool
}

// Config controls Worker behavior.
type Config struct {
	// MaxAttempts bounds fetch attempts per task, first try included.
	MaxAttempts int
	// Topic, when set, receives one event per persisted record.
	Topic string
	// BlobPrefix roots archived page snapshots; empty disables archiving
	// unless a blob store is still wired.
	BlobPrefix string
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	return c
}

// Worker consumes tasks from the queue and executes the two-stage pipeline.
type Worker struct {
	queue      scrape.Queue
	board      TaskBoard
	fetcher    scrape.Fetcher
	cascade    *extract.Cascade
	resolver   *paginate.Resolver
	controller *flow.Controller
	assembler  *assemble.Assembler
	sink       scrape.RecordSink
	blobStore  scrape.BlobStore
	publisher  scrape.Publisher
	hasher     scrape.Hasher
	clock      scrape.Clock
	ids        scrape.IDGenerator
	cfg        Config
	logger     *zap.Logger
}

// New constructs a Worker. The blob store and publisher are optional; nil
// disables snapshot archiving and record events respectively.
func New(
	queue scrape.Queue,
	board TaskBoard,
	fetcher scrape.Fetcher,
	cascade *extract.Cascade,
	resolver *paginate.Resolver,
	controller *flow.Controller,
	assembler *assemble.Assembler,
	sink scrape.RecordSink,
	blobStore scrape.BlobStore,
	publisher scrape.Publisher,
	hasher scrape.Hasher,
	clock scrape.Clock,
	ids scrape.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:      queue,
		board:      board,
		fetcher:    fetcher,
		cascade:    cascade,
		resolver:   resolver,
		controller: controller,
		assembler:  assembler,
		sink:       sink,
		blobStore:  blobStore,
		publisher:  publisher,
		hasher:     hasher,
		clock:      clock,
		ids:        ids,
		cfg:        cfg.withDefaults(),
		logger:     logger,
	}
}

// Run blocks, consuming tasks until the queue closes or the context ends.
func (w *Worker) Run(ctx context.Context) {
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, scrape.ErrQueueClosed) {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}

		metrics.IncActiveWorkers()
		switch task.Kind {
		case scrape.TaskListing:
			w.processListing(ctx, task)
		case scrape.TaskDetail:
			w.processDetail(ctx, task)
		default:
			w.logger.Error("unknown task kind", zap.String("task_id", task.ID), zap.String("kind", string(task.Kind)))
			w.board.TaskDone()
		}
		metrics.DecActiveWorkers()
	}
}

// processListing fetches one search results page, admits its listings as
// detail tasks against remaining capacity, and schedules the successor page.
func (w *Worker) processListing(ctx context.Context, task scrape.Task) {
	defer w.board.TaskDone()

	if w.controller.Terminal() || w.controller.PagesExhausted() {
		return
	}

	result, err := w.fetcher.Fetch(ctx, task.URL, scrape.StageListing, task.Attempt)
	if err != nil {
		w.retryOrDrop(ctx, task, err)
		return
	}

	// Count the visit only for pages actually retrieved, so retries do not
	// burn the budget. Budget exhaustion between fetch and count drops the
	// page rather than overshooting.
	if !w.controller.RegisterPageVisited() {
		w.logger.Info("page budget spent, dropping fetched page", zap.String("url", task.URL))
		return
	}

	w.archiveSnapshot(ctx, scrape.StageListing, result)

	out := w.cascade.ExtractListing(result.Body, w.pageBase(result, task))
	if len(out.Listings) == 0 {
		w.logger.Info("listing page yielded no records",
			zap.String("url", task.URL),
			zap.Int("page_index", task.PageIndex),
		)
		return
	}
	w.logger.Debug("listing page extracted",
		zap.String("url", task.URL),
		zap.String("strategy", out.Strategy),
		zap.Int("records", len(out.Listings)),
	)

	w.admitDetails(ctx, out.Listings)
	w.scheduleNextPage(ctx, task, out, result)
}

// admitDetails reserves capacity for the page's unseen listings and submits
// one detail task per granted reservation. Listings repeating a detail URL
// already scheduled this run are skipped before admission so duplicates never
// consume capacity.
func (w *Worker) admitDetails(ctx context.Context, listings []scrape.ListingRecord) {
	fresh := make([]scrape.ListingRecord, 0, len(listings))
	for _, listing := range listings {
		if listing.DetailURL == "" || !w.board.FirstVisit(listing.DetailURL) {
			continue
		}
		fresh = append(fresh, listing)
	}

	granted := w.controller.Admit(len(fresh))
	for i := 0; i < granted; i++ {
		listing := fresh[i]
		id, err := w.ids.NewID()
		if err != nil {
			w.controller.ReleaseInFlight(granted - i)
			w.logger.Error("task id generation failed", zap.Error(err))
			return
		}
		submitted := w.board.Submit(ctx, scrape.Task{
			ID:      id,
			Kind:    scrape.TaskDetail,
			URL:     listing.DetailURL,
			Listing: &listing,
		})
		if !submitted {
			w.controller.ReleaseInFlight(granted - i)
			return
		}
	}
}

func (w *Worker) scheduleNextPage(ctx context.Context, task scrape.Task, out extract.ListingOutput, result scrape.FetchResult) {
	if w.controller.Terminal() || w.controller.PagesExhausted() {
		return
	}
	current := result.FinalURL
	if current == "" {
		current = task.URL
	}
	next, ok := w.resolver.ResolveNext(out, current)
	if !ok {
		w.logger.Info("pagination chain ended", zap.String("url", current), zap.Int("page_index", task.PageIndex))
		return
	}
	id, err := w.ids.NewID()
	if err != nil {
		w.logger.Error("task id generation failed", zap.Error(err))
		return
	}
	w.board.Submit(ctx, scrape.Task{
		ID:        id,
		Kind:      scrape.TaskListing,
		URL:       next,
		PageIndex: task.PageIndex + 1,
	})
}

// processDetail fetches one job page, merges it with the listing fields and
// persists the result. A detail task that exhausts its retries still yields
// a listing-only record; its reservation is spent either way.
func (w *Worker) processDetail(ctx context.Context, task scrape.Task) {
	defer w.board.TaskDone()

	if task.Listing == nil {
		w.controller.ReleaseInFlight(1)
		w.logger.Error("detail task without listing", zap.String("task_id", task.ID))
		return
	}
	if w.controller.Terminal() {
		w.controller.ReleaseInFlight(1)
		return
	}

	result, err := w.fetcher.Fetch(ctx, task.URL, scrape.StageDetail, task.Attempt)
	if err != nil {
		if scrape.Retryable(err) && task.Attempt+1 < w.cfg.MaxAttempts {
			w.retryOrDrop(ctx, task, err)
			return
		}
		w.logger.Warn("detail abandoned, persisting listing fields only",
			zap.String("url", task.URL),
			zap.Int("attempt", task.Attempt),
			zap.Error(err),
		)
		w.persistRecord(ctx, w.assembler.Assemble(*task.Listing, nil))
		return
	}

	w.archiveSnapshot(ctx, scrape.StageDetail, result)

	detail := w.cascade.ExtractDetail(result.Body, w.pageBase(result, task))
	w.persistRecord(ctx, w.assembler.Assemble(*task.Listing, detail))
}

// retryOrDrop re-queues a retryable failure with the attempt counter bumped.
// Listing tasks past the ceiling are dropped; detail drops are handled by
// the caller so the listing fields still get persisted.
func (w *Worker) retryOrDrop(ctx context.Context, task scrape.Task, cause error) {
	if !scrape.Retryable(cause) || task.Attempt+1 >= w.cfg.MaxAttempts {
		if task.Kind == scrape.TaskDetail {
			w.controller.ReleaseInFlight(1)
		}
		w.logger.Warn("task dropped",
			zap.String("task_id", task.ID),
			zap.String("kind", string(task.Kind)),
			zap.String("url", task.URL),
			zap.Int("attempt", task.Attempt),
			zap.Error(cause),
		)
		return
	}

	retry := task
	retry.Attempt++
	metrics.ObserveTaskRetry(string(task.Kind))
	if !w.board.Submit(ctx, retry) {
		if task.Kind == scrape.TaskDetail {
			w.controller.ReleaseInFlight(1)
		}
		w.logger.Warn("retry rejected, dropping task", zap.String("task_id", task.ID), zap.Error(cause))
		return
	}
	w.logger.Info("task re-queued",
		zap.String("task_id", task.ID),
		zap.String("kind", string(task.Kind)),
		zap.Int("attempt", retry.Attempt),
		zap.Error(cause),
	)
}

// persistRecord writes one assembled record, converting its reservation into
// persisted capacity on success and releasing it on failure.
func (w *Worker) persistRecord(ctx context.Context, record scrape.JobRecord) {
	if err := w.sink.Persist(ctx, record); err != nil {
		w.controller.ReleaseInFlight(1)
		w.logger.Error("record persist failed", zap.String("url", record.URL), zap.Error(err))
		return
	}
	w.controller.RegisterPersisted(1)
	metrics.ObservePersisted(1)
	w.publishRecord(ctx, record)
}

func (w *Worker) publishRecord(ctx context.Context, record scrape.JobRecord) {
	if w.publisher == nil || w.cfg.Topic == "" {
		return
	}
	if _, err := w.publisher.Publish(ctx, w.cfg.Topic, record); err != nil {
		w.logger.Warn("record event publish failed", zap.String("url", record.URL), zap.Error(err))
		return
	}
	w.logger.Debug("record event published", zap.String("url", record.URL))
}

// archiveSnapshot stores the raw payload under a content-addressed path.
// Best-effort: archive failures never fail the task.
func (w *Worker) archiveSnapshot(ctx context.Context, stage scrape.Stage, result scrape.FetchResult) {
	if w.blobStore == nil || len(result.Body) == 0 {
		return
	}
	hash, err := w.hasher.Hash(result.Body)
	if err != nil {
		w.logger.Warn("snapshot hash failed", zap.Error(err))
		return
	}
	contentType := snapshotContentType(result.FinalURL)
	uri, err := w.blobStore.PutObject(ctx, w.snapshotPath(stage, hash, contentType), contentType, result.Body)
	if err != nil {
		w.logger.Warn("snapshot archive failed", zap.String("url", result.FinalURL), zap.Error(err))
		return
	}
	w.logger.Debug("snapshot archived",
		zap.String("stage", string(stage)),
		zap.String("blob_uri", uri),
		zap.Duration("fetch_duration", result.Duration),
	)
}

func (w *Worker) snapshotPath(stage scrape.Stage, hash, contentType string) string {
	ext := ".html"
	if contentType == "application/json" {
		ext = ".json"
	}
	day := w.clock.Now().UTC().Format(time.DateOnly)
	prefix := strings.Trim(w.cfg.BlobPrefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s/%s%s", day, stage, hash, ext)
	}
	return fmt.Sprintf("%s/%s/%s/%s%s", prefix, day, stage, hash, ext)
}

func snapshotContentType(finalURL string) string {
	if fetch.IsDataRequest(finalURL) {
		return "application/json"
	}
	return "text/html; charset=utf-8"
}

// pageBase resolves the base URL extraction should resolve hrefs against,
// preferring the post-redirect final URL.
func (w *Worker) pageBase(result scrape.FetchResult, task scrape.Task) *url.URL {
	raw := result.FinalURL
	if raw == "" {
		raw = task.URL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return base
}
