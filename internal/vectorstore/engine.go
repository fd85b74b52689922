// Package vectorstore implements the Vector Store Engine (§4.2): document
// load/split, batched embedding, temp-table staging, two-phase merge, index
// build, metadata comment write, and change-detection refresh. Table names
// are data, not Go identifiers, so the dynamic per-VectorStore operations go
// through raw parameterised-where-possible SQL rather than GORM's struct
// mapping; GORM itself is opened once per request by
// `internal/database.Connect` and handed in here already connected.
package vectorstore

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-logr/logr"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"gorm.io/gorm"
)

// metadataSentinel prefixes the table comment that marks a table as a live
// VectorStore (§3 VectorStore, §4.2 step 8): "GENAI: <structured-payload>".
const metadataSentinel = "GENAI: "

// Embedder produces embeddings for a batch of texts, backed by one of the
// Model Registry's embedding-kind ModelDescriptors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Engine is the Vector Store Engine, bound to one live database connection.
type Engine struct {
	db  *gorm.DB
	log logr.Logger
}

// New builds an Engine over an already-connected GORM handle (typically
// resolved from the Database Connection Pool Registry for one request).
func New(db *gorm.DB, log logr.Logger) *Engine {
	return &Engine{db: db, log: log}
}

// identifierPattern restricts table/column identifiers accepted from
// configuration to a safe subset, since Postgres does not support bind
// parameters for identifiers and these names are assembled into raw SQL.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return apierrors.Validation(fmt.Sprintf("invalid table identifier %q", name), nil)
	}
	return nil
}

// quoteIdent double-quotes a validated identifier for safe interpolation.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

// EnsureVectorExtension creates the pgvector extension if not already
// present. Safe to call on every boot.
func (e *Engine) EnsureVectorExtension(ctx context.Context) error {
	return e.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error
}

// Discovery lists every live VectorStore table: columns include a
// vector-typed column, the comment begins with the sentinel, and the table
// is non-empty (§4.2 "Discovery"). filterEnabledModels restricts the result
// to stores whose embedding model is currently enabled in the Model
// Registry (§4.2 "those whose embedding model is not enabled are filtered
// when filter_enabled_models=true").
func (e *Engine) Discovery(ctx context.Context, enabledModelIDs map[string]bool, filterEnabledModels bool) ([]model.VectorStore, error) {
	rows, err := e.candidateTables(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.VectorStore, 0, len(rows))
	for _, tableName := range rows {
		vs, ok, err := e.describeTable(ctx, tableName)
		if err != nil {
			e.log.Info("skipping table during discovery", "table", tableName, "reason", err.Error())
			continue
		}
		if !ok {
			continue
		}
		if filterEnabledModels && !enabledModelIDs[vs.EmbeddingModelID] {
			continue
		}
		out = append(out, vs)
	}
	return out, nil
}

// candidateTables returns every table with at least one vector-typed column.
func (e *Engine) candidateTables(ctx context.Context) ([]string, error) {
	var names []string
	err := e.db.WithContext(ctx).
		Raw(`SELECT DISTINCT c.table_name FROM information_schema.columns c
		     JOIN pg_type t ON t.typname = 'vector'
		     WHERE c.udt_name = 'vector'`).
		Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("listing vector-typed tables: %w", err)
	}
	return names, nil
}

// describeTable reads a table's sentinel comment and row count, returning
// ok=false when the table is not a live VectorStore (no sentinel comment,
// or empty).
func (e *Engine) describeTable(ctx context.Context, tableName string) (model.VectorStore, bool, error) {
	if err := validIdentifier(tableName); err != nil {
		return model.VectorStore{}, false, err
	}

	var comment string
	err := e.db.WithContext(ctx).
		Raw(`SELECT obj_description(($1)::regclass, 'pg_class')`, tableName).
		Scan(&comment).Error
	if err != nil || comment == "" || len(comment) < len(metadataSentinel) || comment[:len(metadataSentinel)] != metadataSentinel {
		return model.VectorStore{}, false, nil
	}

	var count int64
	if err := e.db.WithContext(ctx).Table(tableName).Count(&count).Error; err != nil {
		return model.VectorStore{}, false, fmt.Errorf("counting rows of %s: %w", tableName, err)
	}
	if count == 0 {
		return model.VectorStore{}, false, nil
	}

	vs, err := parseComment(tableName, comment[len(metadataSentinel):])
	if err != nil {
		return model.VectorStore{}, false, err
	}
	return vs, true, nil
}

// DropStore removes a live VectorStore table entirely (§6 "DELETE
// /v1/embed/{vs} — drop a VectorStore").
func (e *Engine) DropStore(ctx context.Context, tableName string) error {
	return e.dropTable(ctx, tableName)
}

// FileSummary is one source file's chunk count within a VectorStore,
// grouped by the "filename" metadata key every chunk carries (§4.2 step 3).
type FileSummary struct {
	Filename   string
	ChunkCount int
}

// ListFiles groups a VectorStore's rows by source filename (§6 "GET
// /v1/embed/{vs}/files — list files in a VectorStore with chunk counts").
func (e *Engine) ListFiles(ctx context.Context, tableName string) ([]FileSummary, error) {
	if err := validIdentifier(tableName); err != nil {
		return nil, err
	}

	var rows []struct {
		Filename   string
		ChunkCount int
	}
	query := fmt.Sprintf(`SELECT metadata::json->>'filename' AS filename, COUNT(*) AS chunk_count
		FROM %s GROUP BY metadata::json->>'filename' ORDER BY filename`, quoteIdent(tableName))
	if err := e.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing files for %s: %w", tableName, err)
	}

	out := make([]FileSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, FileSummary{Filename: r.Filename, ChunkCount: r.ChunkCount})
	}
	return out, nil
}
