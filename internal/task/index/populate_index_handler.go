package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/bornholm/corpus-indexer/internal/core/model"
	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/metrics"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

type PopulateIndexHandler struct {
	corpora port.CorpusStore
	engines port.EngineProvider
	readers port.ReaderProvider
}

func NewPopulateIndexHandler(corpora port.CorpusStore, engines port.EngineProvider, readers port.ReaderProvider) *PopulateIndexHandler {
	return &PopulateIndexHandler{
		corpora: corpora,
		engines: engines,
		readers: readers,
	}
}

// Handle implements [port.TaskHandler].
func (h *PopulateIndexHandler) Handle(ctx context.Context, task *model.IndexTask, events chan port.TaskEvent) error {
	params, err := taskParams[model.PopulateIndexParams](task)
	if err != nil {
		return errors.WithStack(err)
	}

	corpus, err := h.corpora.GetCorpus(ctx, task.Corpus)
	if err != nil {
		return errors.WithStack(err)
	}

	server, engine, err := h.engines.Engine(ctx, task.Index.Server)
	if err != nil {
		return errors.WithStack(err)
	}

	reader, err := h.readers.Reader(ctx, corpus)
	if err != nil {
		return errors.Wrapf(err, "could not open reader of corpus '%s'", corpus.Name)
	}

	dates := newDateRange(corpus, params.StartDate, params.EndDate)

	sources, err := reader.Sources(ctx, dates.start, dates.end)
	if err != nil {
		return errors.Wrap(err, "could not list corpus sources")
	}

	slog.InfoContext(ctx, "populating index",
		slog.Int("sources", len(sources)),
		slog.Time("start", dates.start),
		slog.Time("end", dates.end),
	)

	b := &bulkIndexer{
		engine:    engine,
		index:     task.Index.Name,
		corpus:    corpus.Name,
		chunkSize: server.ChunkSize,
		maxBytes:  server.MaxChunkBytes,
		events:    events,
	}

	if server.MaxChunksPerSecond > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(server.MaxChunksPerSecond), 1)
	}

	for doc, err := range reader.Documents(ctx, sources) {
		if err != nil {
			var docErr *port.DocumentError
			if !errors.As(err, &docErr) {
				return errors.Wrap(err, "could not read corpus documents")
			}

			b.fail(ctx, err)

			continue
		}

		if !dates.contains(doc.Date) {
			continue
		}

		if err := b.add(ctx, doc); err != nil {
			return errors.WithStack(err)
		}
	}

	if err := b.flush(ctx); err != nil {
		return errors.WithStack(err)
	}

	notify(ctx, events, port.WithTaskStats(b.stats))

	slog.InfoContext(ctx, "index populated",
		slog.Int64("indexed", b.stats.DocumentsIndexed),
		slog.Int64("failed", b.stats.DocumentsFailed),
		slog.String("sent", humanize.Bytes(b.sent)),
	)

	return nil
}

type dateRange struct {
	start time.Time
	end   time.Time
}

func newDateRange(corpus *model.Corpus, start *time.Time, end *time.Time) dateRange {
	r := dateRange{
		start: corpus.MinDate,
		end:   corpus.MaxDate,
	}

	if start != nil {
		r.start = *start
	}

	if end != nil {
		r.end = *end
	}

	return r
}

// contains reports whether date is in the range, the end day included. Undated
// documents always are.
func (r dateRange) contains(date time.Time) bool {
	if date.IsZero() {
		return true
	}

	if !r.start.IsZero() && date.Before(r.start) {
		return false
	}

	if !r.end.IsZero() && !date.Before(r.end.AddDate(0, 0, 1)) {
		return false
	}

	return true
}

// bulkIndexer groups documents into chunks bounded by count and size.
type bulkIndexer struct {
	engine    port.SearchEngine
	index     string
	corpus    model.CorpusName
	chunkSize int
	maxBytes  int
	limiter   *rate.Limiter
	events    chan port.TaskEvent

	chunk     []model.Document
	chunkSent int
	sent      uint64
	stats     model.TaskStats
}

func (b *bulkIndexer) add(ctx context.Context, doc model.Document) error {
	size := doc.Size()

	full := len(b.chunk) > 0 && ((b.chunkSize > 0 && len(b.chunk) >= b.chunkSize) || (b.maxBytes > 0 && b.chunkSent+size > b.maxBytes))
	if full {
		if err := b.flush(ctx); err != nil {
			return errors.WithStack(err)
		}
	}

	b.chunk = append(b.chunk, doc)
	b.chunkSent += size

	return nil
}

func (b *bulkIndexer) flush(ctx context.Context) error {
	if len(b.chunk) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return errors.WithStack(err)
		}
	}

	results, err := b.engine.Bulk(ctx, b.index, b.chunk)
	if err != nil {
		return errors.Wrapf(err, "bulk request of %d documents failed", len(b.chunk))
	}

	metrics.BulkChunks.WithLabelValues(string(b.corpus)).Inc()

	var indexed, failed int64
	for _, r := range results {
		if r.Success {
			indexed++
			continue
		}

		failed++
		slog.WarnContext(ctx, "document rejected by engine", slog.String("documentID", r.DocumentID), slog.String("reason", r.Reason))
	}

	b.stats.DocumentsIndexed += indexed
	b.stats.DocumentsFailed += failed
	b.sent += uint64(b.chunkSent)

	metrics.DocumentsIndexed.WithLabelValues(string(b.corpus)).Add(float64(indexed))
	metrics.DocumentsFailed.WithLabelValues(string(b.corpus)).Add(float64(failed))

	slog.DebugContext(ctx, "chunk indexed", slog.Int("documents", len(b.chunk)), slog.String("size", humanize.Bytes(uint64(b.chunkSent))))

	b.chunk = b.chunk[:0]
	b.chunkSent = 0

	notify(ctx, b.events, port.WithTaskStats(b.stats))

	return nil
}

func (b *bulkIndexer) fail(ctx context.Context, err error) {
	b.stats.DocumentsFailed++
	metrics.DocumentsFailed.WithLabelValues(string(b.corpus)).Inc()
	slog.WarnContext(ctx, "skipping invalid document", slog.Any("error", err))
}

var _ port.TaskHandler = &PopulateIndexHandler{}
