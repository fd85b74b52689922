package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/pgvector/pgvector-go"
)

const embedBatchSize = 500

// embeddedRow is the GORM-mapped row shape for both T and T_TMP.
type embeddedRow struct {
	ID        string `gorm:"column:id;primaryKey"`
	Content   string `gorm:"column:content"`
	Metadata  string `gorm:"column:metadata"` // JSON
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector"`
}

// IngestOptions parameterises one ingest run.
type IngestOptions struct {
	VectorStore model.VectorStore
	Embedder    Embedder
	RateLimit   int // requests/minute; 0 disables throttling
}

// Ingest runs the full load -> split -> two-phase merge pipeline for a
// batch of source files (§4.2 "Ingest pipeline", "Two-phase merge").
// Per-file load/split errors are aggregated with go-multierror rather than
// aborting the whole run, mirroring §4.2/§7's per-run "errors list".
func (e *Engine) Ingest(ctx context.Context, opts IngestOptions, files []SourceFile) error {
	var merr *multierror.Error
	var allChunks []model.Chunk

	for _, f := range files {
		doc, err := loadSource(f)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", f.Filename, err))
			continue
		}
		allChunks = append(allChunks, buildChunks(f, doc, opts.VectorStore.ChunkSize, opts.VectorStore.ChunkOverlap)...)
	}

	unique := dedupeByContent(allChunks)

	if err := e.mergeIntoLiveTable(ctx, opts, unique); err != nil {
		merr = multierror.Append(merr, err)
	}

	return merr.ErrorOrNil()
}

// dedupeByContent removes chunks with exactly equal page content (§4.2 step
// 3, "deduplication is by exact page-content equality"), keeping the first
// occurrence (and its id) for each distinct text.
func dedupeByContent(chunks []model.Chunk) []model.Chunk {
	seen := make(map[string]bool, len(chunks))
	out := make([]model.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if seen[c.Text] {
			continue
		}
		seen[c.Text] = true
		out = append(out, c)
	}
	return out
}

// mergeIntoLiveTable implements §4.2's eight-step two-phase merge.
func (e *Engine) mergeIntoLiveTable(ctx context.Context, opts IngestOptions, chunks []model.Chunk) error {
	table := opts.VectorStore.TableName
	if err := validIdentifier(table); err != nil {
		return err
	}
	tmpTable := table + "_TMP"
	if err := validIdentifier(tmpTable); err != nil {
		return err
	}

	if err := e.ensureLiveTable(ctx, table); err != nil {
		return err
	}
	if err := e.createTempTable(ctx, table, tmpTable); err != nil {
		return err
	}

	if err := e.embedIntoTempTable(ctx, tmpTable, chunks, opts.Embedder, opts.RateLimit); err != nil {
		return err
	}

	if err := e.dropIndexIfPresent(ctx, table, opts.VectorStore.IndexType); err != nil {
		return err
	}

	if err := e.antiJoinMerge(ctx, table, tmpTable); err != nil {
		return err
	}

	if err := e.dropTable(ctx, tmpTable); err != nil {
		return err
	}

	if err := e.createIndex(ctx, table, opts.VectorStore); err != nil {
		return err
	}

	comment, err := encodeComment(opts.VectorStore)
	if err != nil {
		return err
	}
	return e.db.WithContext(ctx).Exec(
		fmt.Sprintf(`COMMENT ON TABLE %s IS ?`, quoteIdent(table)), comment,
	).Error
}

func (e *Engine) ensureLiveTable(ctx context.Context, table string) error {
	return e.db.WithContext(ctx).Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT,
			metadata JSONB,
			embedding vector
		)`, quoteIdent(table))).Error
}

func (e *Engine) createTempTable(ctx context.Context, table, tmpTable string) error {
	if err := e.dropTable(ctx, tmpTable); err != nil {
		return err
	}
	return e.db.WithContext(ctx).Exec(fmt.Sprintf(
		`CREATE TABLE %s (LIKE %s INCLUDING ALL)`, quoteIdent(tmpTable), quoteIdent(table),
	)).Error
}

func (e *Engine) dropTable(ctx context.Context, table string) error {
	return e.db.WithContext(ctx).Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(table))).Error
}

// embedIntoTempTable embeds chunks in batches of 500, sleeping 60/rateLimit
// seconds between batches when a rate limit is configured (§4.2 step 3).
// This is a plain time.Sleep, not golang.org/x/time/rate's token bucket —
// see DESIGN.md and SPEC_FULL.md's DOMAIN STACK for why: the spec mandates
// this exact inter-batch delay with no adaptive back-off or jitter.
func (e *Engine) embedIntoTempTable(ctx context.Context, tmpTable string, chunks []model.Chunk, embedder Embedder, rateLimit int) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch [%d:%d]: %w", start, end, err)
		}

		rows := make([]embeddedRow, len(batch))
		for i, c := range batch {
			metaJSON, err := encodeMetadata(c.Metadata)
			if err != nil {
				return err
			}
			rows[i] = embeddedRow{ID: c.ID, Content: c.Text, Metadata: metaJSON, Embedding: pgvector.NewVector(vectors[i])}
		}
		if err := e.db.WithContext(ctx).Table(tmpTable).Create(&rows).Error; err != nil {
			return fmt.Errorf("writing batch [%d:%d] to %s: %w", start, end, tmpTable, err)
		}

		if rateLimit > 0 && end < len(chunks) {
			time.Sleep(time.Duration(60.0/float64(rateLimit)*float64(time.Second)))
		}
	}
	return nil
}

func (e *Engine) dropIndexIfPresent(ctx context.Context, table string, indexType model.IndexType) error {
	if indexType != model.IndexHNSW {
		return nil
	}
	indexName := table + "_embedding_hnsw"
	if err := validIdentifier(indexName); err != nil {
		return err
	}
	return e.db.WithContext(ctx).Exec(fmt.Sprintf(`DROP INDEX IF EXISTS %s`, quoteIdent(indexName))).Error
}

// antiJoinMerge inserts rows from tmpTable into table, skipping ids already
// present (§4.2 step 5, "idempotent").
func (e *Engine) antiJoinMerge(ctx context.Context, table, tmpTable string) error {
	return e.db.WithContext(ctx).Exec(fmt.Sprintf(
		`INSERT INTO %[1]s (id, content, metadata, embedding)
		 SELECT tmp.id, tmp.content, tmp.metadata, tmp.embedding
		 FROM %[2]s tmp
		 WHERE NOT EXISTS (SELECT 1 FROM %[1]s live WHERE live.id = tmp.id)`,
		quoteIdent(table), quoteIdent(tmpTable),
	)).Error
}

func (e *Engine) createIndex(ctx context.Context, table string, vs model.VectorStore) error {
	if vs.IndexType != model.IndexHNSW {
		return nil
	}
	indexName := table + "_embedding_hnsw"
	opClass := distanceOpClass(vs.DistanceMetric)
	return e.db.WithContext(ctx).Exec(fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding %s)`,
		quoteIdent(indexName), quoteIdent(table), opClass,
	)).Error
}

func distanceOpClass(d model.DistanceMetric) string {
	switch d {
	case model.DistanceDot:
		return "vector_ip_ops"
	case model.DistanceEuclidean:
		return "vector_l2_ops"
	default:
		return "vector_cosine_ops"
	}
}
