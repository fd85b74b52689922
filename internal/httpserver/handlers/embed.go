package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/httpserver/auth"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/scratch"
	"github.com/oracle/ai-optimizer-server/internal/vectorstore"
)

// EmbedHandler serves the Vector Store Engine's HTTP surface (§6
// "/v1/embed/..."): the three scratch-dir staging routes, the ingest and
// refresh operations, and VectorStore drop/list-files. It replaces the
// teacher's pgvector-backed agent-memory handler (MemoryHandler), which had
// no equivalent here — see DESIGN.md.
const embedFunction = "embed"

type EmbedHandler struct {
	*Base
}

// RegisterRoutes wires EmbedHandler's routes onto r.
func (h *EmbedHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/embed/local/store", WrapError(h.StoreLocal)).Methods(http.MethodPost)
	r.HandleFunc("/v1/embed/web/store", WrapError(h.StoreWeb)).Methods(http.MethodPost)
	r.HandleFunc("/v1/embed/sql/store", WrapError(h.StoreSQL)).Methods(http.MethodPost)
	r.HandleFunc("/v1/embed/", WrapError(h.Ingest)).Methods(http.MethodPost)
	r.HandleFunc("/v1/embed/refresh", WrapError(h.Refresh)).Methods(http.MethodPost)
	r.HandleFunc("/v1/embed/{vs}", WrapError(h.Drop)).Methods(http.MethodDelete)
	r.HandleFunc("/v1/embed/{vs}/files", WrapError(h.ListFiles)).Methods(http.MethodGet)
}

func (h *EmbedHandler) scratchDir(r *http.Request) (string, func(), error) {
	return scratch.Dir(string(h.Scratch), auth.ClientIDFrom(r), embedFunction)
}

// StoreLocal accepts a multipart upload and writes every file part into
// the client's ingest scratch dir (§6 "upload files to scratch dir").
func (h *EmbedHandler) StoreLocal(w ErrorResponseWriter, r *http.Request) {
	dir, cleanupOnErr, err := h.scratchDir(r)
	if err != nil {
		w.RespondWithError(apierrors.Internal("preparing scratch directory", err))
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		cleanupOnErr()
		w.RespondWithError(apierrors.Validation("invalid multipart upload", err))
		return
	}

	var stored []string
	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			if err := saveUploadedPart(dir, fh); err != nil {
				cleanupOnErr()
				w.RespondWithError(apierrors.Validation("saving uploaded file "+fh.Filename, err))
				return
			}
			stored = append(stored, fh.Filename)
		}
	}

	RespondWithJSON(w, http.StatusOK, struct {
		Files []string `json:"files"`
	}{Files: stored})
}

func saveUploadedPart(dir string, fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, filepath.Base(fh.Filename)))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// storeWebRequest is the JSON body of POST /v1/embed/web/store.
type storeWebRequest struct {
	URL string `json:"url"`
}

// StoreWeb fetches a URL's body into the client's scratch dir, named after
// the URL's final path segment (§6 "fetch URL into scratch dir").
func (h *EmbedHandler) StoreWeb(w ErrorResponseWriter, r *http.Request) {
	var req storeWebRequest
	if err := DecodeJSON(r, &req); err != nil {
		w.RespondWithError(err)
		return
	}
	if req.URL == "" {
		w.RespondWithError(apierrors.Validation("url must not be empty", nil))
		return
	}

	dir, cleanupOnErr, err := h.scratchDir(r)
	if err != nil {
		w.RespondWithError(apierrors.Internal("preparing scratch directory", err))
		return
	}

	resp, err := http.Get(req.URL)
	if err != nil {
		cleanupOnErr()
		w.RespondWithError(apierrors.UpstreamError("fetching "+req.URL, err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		cleanupOnErr()
		w.RespondWithError(apierrors.UpstreamError(fmt.Sprintf("fetching %s: status %d", req.URL, resp.StatusCode), nil))
		return
	}

	name := filepath.Base(req.URL)
	if name == "" || name == "." || name == "/" {
		name = "page.html"
	}
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		cleanupOnErr()
		w.RespondWithError(apierrors.Internal("writing fetched page", err))
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, resp.Body); err != nil {
		cleanupOnErr()
		w.RespondWithError(apierrors.Internal("writing fetched page", err))
		return
	}

	RespondWithJSON(w, http.StatusOK, struct {
		File string `json:"file"`
	}{File: name})
}

// storeSQLRequest is the JSON body of POST /v1/embed/sql/store.
type storeSQLRequest struct {
	Database string `json:"database"`
	Query    string `json:"query"`
	Filename string `json:"filename"`
}

// StoreSQL runs a read query against a named database and writes the
// result as CSV into the client's scratch dir (§6 "extract SQL result to
// scratch CSV").
func (h *EmbedHandler) StoreSQL(w ErrorResponseWriter, r *http.Request) {
	var req storeSQLRequest
	if err := DecodeJSON(r, &req); err != nil {
		w.RespondWithError(err)
		return
	}
	if req.Query == "" || req.Database == "" {
		w.RespondWithError(apierrors.Validation("database and query must not be empty", nil))
		return
	}

	engine, err := h.Engines(r.Context(), req.Database)
	if err != nil {
		w.RespondWithError(err)
		return
	}

	rows, err := engine.RawQuery(r.Context(), req.Query)
	if err != nil {
		w.RespondWithError(err)
		return
	}

	dir, cleanupOnErr, err := h.scratchDir(r)
	if err != nil {
		w.RespondWithError(apierrors.Internal("preparing scratch directory", err))
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = "query_result.csv"
	}
	f, err := os.Create(filepath.Join(dir, filepath.Base(filename)))
	if err != nil {
		cleanupOnErr()
		w.RespondWithError(apierrors.Internal("writing scratch CSV", err))
		return
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if len(rows) > 0 {
		_ = cw.Write(rows[0].Columns)
		for _, row := range rows {
			_ = cw.Write(row.Values)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		cleanupOnErr()
		w.RespondWithError(apierrors.Internal("writing scratch CSV", err))
		return
	}

	RespondWithJSON(w, http.StatusOK, struct {
		File string `json:"file"`
	}{File: filename})
}

// ingestRequest is the JSON body of POST /v1/embed/.
type ingestRequest struct {
	Database    string            `json:"database"`
	VectorStore model.VectorStore `json:"vector_store"`
	RateLimit   int               `json:"rate_limit"`
}

// Ingest reads every file from the client's scratch dir, runs the Vector
// Store Engine's load/split/embed/merge pipeline, and removes the scratch
// dir on every exit path (§6 step 5, "absent afterward" whether the call
// succeeds or raises).
func (h *EmbedHandler) Ingest(w ErrorResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := DecodeJSON(r, &req); err != nil {
		w.RespondWithError(err)
		return
	}

	dir, cleanup, err := h.scratchDir(r)
	if err != nil {
		w.RespondWithError(apierrors.Internal("preparing scratch directory", err))
		return
	}
	defer cleanup()

	files, err := readScratchFiles(dir)
	if err != nil {
		w.RespondWithError(apierrors.Internal("reading scratch directory", err))
		return
	}
	if len(files) == 0 {
		w.RespondWithError(apierrors.Validation("no staged files to ingest", nil))
		return
	}

	engine, err := h.Engines(r.Context(), req.Database)
	if err != nil {
		w.RespondWithError(err)
		return
	}

	req.VectorStore.TableName = vectorstore.DeriveTableName(req.VectorStore)
	opts := vectorstore.IngestOptions{
		VectorStore: req.VectorStore,
		Embedder:    h.Graph.Retriever,
		RateLimit:   req.RateLimit,
	}
	if err := engine.Ingest(r.Context(), opts, files); err != nil {
		w.RespondWithError(apierrors.Integrity(err.Error(), err))
		return
	}

	RespondWithJSON(w, http.StatusCreated, req.VectorStore)
}

// refreshRequest is the JSON body of POST /v1/embed/refresh. Objects is
// the caller-supplied bucket listing: the low-level object-storage driver
// is an external collaborator this system only states a contract for (§2
// "Out of scope / external collaborators"), so the route accepts an
// already-listed object set rather than listing a bucket itself.
type refreshRequest struct {
	Database    string                   `json:"database"`
	VectorStore model.VectorStore        `json:"vector_store"`
	RateLimit   int                      `json:"rate_limit"`
	Objects     []vectorstore.BucketObject `json:"objects"`
}

// refreshFunction names the Refresh route's own scratch-dir slot, kept
// distinct from embedFunction so a client's in-flight ingest staging and
// refresh staging never collide (§4.2 step 4, "scratch directory keyed by
// client-id + 'refresh'").
const refreshFunction = "refresh"

// Refresh re-ingests only the objects whose ETag/mtime changed, fetching
// each by treating its Name as a retrievable URL (§4.2 "Refresh by change
// detection"). Downloaded bytes are staged through the client's refresh
// scratch dir before reaching the engine, and that directory is removed on
// every exit path (§5, §9).
func (h *EmbedHandler) Refresh(w ErrorResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := DecodeJSON(r, &req); err != nil {
		w.RespondWithError(err)
		return
	}

	engine, err := h.Engines(r.Context(), req.Database)
	if err != nil {
		w.RespondWithError(err)
		return
	}

	dir, cleanup, err := scratch.Dir(string(h.Scratch), auth.ClientIDFrom(r), refreshFunction)
	if err != nil {
		w.RespondWithError(apierrors.Internal("preparing scratch directory", err))
		return
	}
	defer cleanup()

	opts := vectorstore.IngestOptions{
		VectorStore: req.VectorStore,
		Embedder:    h.Graph.Retriever,
		RateLimit:   req.RateLimit,
	}
	result, err := engine.Refresh(r.Context(), opts, req.Objects, scratchDownloader(dir))
	if err != nil {
		w.RespondWithError(apierrors.Integrity(err.Error(), err))
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

// scratchDownloader stages each downloaded object under dir before handing
// its bytes back to Engine.Refresh, so the refresh path stages to disk the
// same way Ingest's caller-uploaded files do rather than only ever holding
// them in memory.
func scratchDownloader(dir string) vectorstore.Downloader {
	return func(ctx context.Context, obj vectorstore.BucketObject) ([]byte, error) {
		data, err := httpDownload(ctx, obj)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, filepath.Base(obj.Name))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("staging %s: %w", obj.Name, err)
		}
		return os.ReadFile(path)
	}
}

func httpDownload(ctx context.Context, obj vectorstore.BucketObject) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, obj.Name, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching %s: status %d", obj.Name, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Drop removes a live VectorStore table entirely (§6 "DELETE /v1/embed/{vs}").
func (h *EmbedHandler) Drop(w ErrorResponseWriter, r *http.Request) {
	database := r.URL.Query().Get("database")
	engine, err := h.Engines(r.Context(), database)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	if err := engine.DropStore(r.Context(), mux.Vars(r)["vs"]); err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, struct{}{})
}

// ListFiles lists a VectorStore's source files with per-file chunk counts
// (§6 "GET /v1/embed/{vs}/files").
func (h *EmbedHandler) ListFiles(w ErrorResponseWriter, r *http.Request) {
	database := r.URL.Query().Get("database")
	engine, err := h.Engines(r.Context(), database)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	files, err := engine.ListFiles(r.Context(), mux.Vars(r)["vs"])
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, files)
}

func readScratchFiles(dir string) ([]vectorstore.SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]vectorstore.SourceFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, vectorstore.SourceFile{
			Filename:     entry.Name(),
			Bytes:        data,
			Size:         info.Size(),
			TimeModified: info.ModTime().UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}
