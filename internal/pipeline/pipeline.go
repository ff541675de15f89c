package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/opendata-catalog-etl/internal/domain"
	"github.com/couchcryptid/opendata-catalog-etl/internal/observability"
)

// Stop reasons reported in Summary.StopReason.
const (
	StopPageLimit = "page-limit"
	StopExhausted = "exhausted"
)

// previewTitles is how many titles of each page are logged at debug level.
const previewTitles = 3

// PageFetcher returns the catalog items of one 0-based page. An empty result
// means the catalog is exhausted.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]domain.CatalogItem, error)
}

// RecordLoader upserts one page of records as a single commit.
type RecordLoader interface {
	LoadBatch(ctx context.Context, records []domain.Record) error
}

// RecordPublisher forwards committed records downstream.
type RecordPublisher interface {
	PublishBatch(ctx context.Context, records []domain.Record) error
}

// Summary reports what one ingestion run did.
type Summary struct {
	Pages                  int       `json:"pages"`
	Datasets               int       `json:"datasets"`
	Distributions          int       `json:"distributions"`
	DistributionsWithoutID int       `json:"distributions_without_id"`
	Skipped                int       `json:"skipped"`
	StopReason             string    `json:"stop_reason,omitempty"`
	StartedAt              time.Time `json:"started_at"`
	FinishedAt             time.Time `json:"finished_at"`
}

// Pipeline pulls catalog pages one at a time, extracts records and upserts
// them until the catalog runs dry or the page cap is reached.
type Pipeline struct {
	fetcher   PageFetcher
	loader    RecordLoader
	publisher RecordPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	maxPages  int
	ready     atomic.Bool

	mu       sync.Mutex
	progress Summary
}

// New creates a Pipeline. publisher may be nil. maxPages of zero disables
// the page cap.
func New(f PageFetcher, l RecordLoader, pub RecordPublisher, logger *slog.Logger, metrics *observability.Metrics, maxPages int) *Pipeline {
	return &Pipeline{
		fetcher:   f,
		loader:    l,
		publisher: pub,
		logger:    logger,
		metrics:   metrics,
		maxPages:  maxPages,
	}
}

// CheckReadiness returns nil once at least one page has been committed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not committed any page yet")
	}
	return nil
}

// Progress returns a snapshot of the current run's counters.
func (p *Pipeline) Progress() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// Run ingests pages sequentially starting at page 0. Any fetch or load error
// aborts the run; rows committed by earlier pages stay in place. The summary
// is returned in both cases.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	p.logger.Info("ingestion started", "max_pages", p.maxPages)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	sum := Summary{StartedAt: domain.Now()}
	p.setProgress(sum)

	for page := 0; ; page++ {
		if p.maxPages > 0 && page >= p.maxPages {
			sum.StopReason = StopPageLimit
			break
		}

		more, err := p.processPage(ctx, page, &sum)
		p.setProgress(sum)
		if err != nil {
			sum.FinishedAt = domain.Now()
			p.setProgress(sum)
			p.logger.Error("ingestion aborted", "page", page, "error", err)
			return sum, err
		}
		if !more {
			sum.StopReason = StopExhausted
			break
		}
	}

	sum.FinishedAt = domain.Now()
	p.setProgress(sum)
	p.logger.Info("ingestion finished",
		"pages", sum.Pages,
		"datasets", sum.Datasets,
		"distributions", sum.Distributions,
		"distributions_without_id", sum.DistributionsWithoutID,
		"skipped", sum.Skipped,
		"stop_reason", sum.StopReason,
		"duration", sum.FinishedAt.Sub(sum.StartedAt),
	)
	return sum, nil
}

// processPage fetches, extracts and commits one page. It returns false when
// the page was empty.
func (p *Pipeline) processPage(ctx context.Context, page int, sum *Summary) (bool, error) {
	start := time.Now()
	items, err := p.fetcher.FetchPage(ctx, page)
	if err != nil {
		return false, fmt.Errorf("fetch page %d: %w", page, err)
	}
	p.metrics.PageFetchDuration.Observe(time.Since(start).Seconds())

	if len(items) == 0 {
		p.logger.Info("empty page, catalog exhausted", "page", page)
		return false, nil
	}

	p.metrics.PagesFetched.Inc()
	p.metrics.ItemsReceived.Add(float64(len(items)))
	p.metrics.PageSize.Observe(float64(len(items)))

	records := make([]domain.Record, 0, len(items))
	skipped := 0
	for _, item := range items {
		rec, ok := domain.ExtractRecord(item)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	p.logPreview(page, len(items), records)

	loadStart := time.Now()
	if err := p.loader.LoadBatch(ctx, records); err != nil {
		return false, fmt.Errorf("load page %d: %w", page, err)
	}
	p.metrics.PageLoadDuration.Observe(time.Since(loadStart).Seconds())
	p.ready.Store(true)

	dists, missing := 0, 0
	for i := range records {
		dists += len(records[i].Distributions)
		if n := records[i].DistributionsWithoutID(); n > 0 {
			missing += n
			p.logger.Debug("distributions without identifier kept",
				"dataset_id", records[i].Dataset.ID, "count", n)
		}
	}

	sum.Pages++
	sum.Datasets += len(records)
	sum.Distributions += dists
	sum.DistributionsWithoutID += missing
	sum.Skipped += skipped

	p.metrics.DatasetsUpserted.Add(float64(len(records)))
	p.metrics.DatasetsSkipped.Add(float64(skipped))
	p.metrics.DistributionsUpserted.Add(float64(dists))
	p.metrics.DistributionsMissingID.Add(float64(missing))

	p.forward(ctx, page, records)
	return true, nil
}

// forward hands committed records to the publisher. Failures are logged and
// counted; the rows are already stored.
func (p *Pipeline) forward(ctx context.Context, page int, records []domain.Record) {
	if p.publisher == nil || len(records) == 0 {
		return
	}
	if err := p.publisher.PublishBatch(ctx, records); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Warn("publish page failed", "page", page, "records", len(records), "error", err)
	}
}

func (p *Pipeline) logPreview(page, items int, records []domain.Record) {
	if !p.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	n := min(previewTitles, len(records))
	titles := make([]string, 0, n)
	for _, rec := range records[:n] {
		if rec.Dataset.Title != nil {
			titles = append(titles, *rec.Dataset.Title)
		} else {
			titles = append(titles, "")
		}
	}
	p.logger.Debug("page received", "page", page, "items", items, "accepted", len(records), "titles", titles)
}

func (p *Pipeline) setProgress(sum Summary) {
	p.mu.Lock()
	p.progress = sum
	p.mu.Unlock()
}
