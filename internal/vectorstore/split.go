package vectorstore

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/oracle/ai-optimizer-server/internal/model"
)

var headerTagPattern = regexp.MustCompile(`(?is)<h[1-5][^>]*>(.*?)</h[1-5]>`)
var anyTagPattern = regexp.MustCompile(`(?is)<[^>]+>`)

// splitHTMLOnHeaders splits raw HTML on H1-H5 boundaries, stripping markup
// from each resulting section (§4.2 step 2, "HTML is split on headers
// H1..H5").
func splitHTMLOnHeaders(raw string) []string {
	idx := headerTagPattern.FindAllStringIndex(raw, -1)
	if len(idx) == 0 {
		return []string{stripTags(raw)}
	}

	var sections []string
	for i, loc := range idx {
		end := len(raw)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		sections = append(sections, stripTags(raw[loc[0]:end]))
	}
	return sections
}

func stripTags(raw string) string {
	text := anyTagPattern.ReplaceAllString(raw, " ")
	return strings.Join(strings.Fields(text), " ")
}

// splitText divides text into overlapping windows of approximately
// chunkSize runes with chunkOverlap runes of overlap (§4.2 step 2). Windows
// are cut at fixed rune offsets, not at whitespace; each window is trimmed
// of surrounding whitespace and dropped if empty. The general ingest splitter
// uses the configured overlap directly; the testbed splitter instead
// derives overlap from chunkSize (see TestbedChunkOverlap).
func splitText(text string, chunkSize, chunkOverlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		return []string{text}
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}

	var chunks []string
	step := chunkSize - chunkOverlap
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		window := string(runes[start:end])
		if trimmed := strings.TrimSpace(window); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// TestbedChunkOverlap returns the effective overlap used by the testbed
// splitter: ceil(chunkSize * 0.10) (§4.4 "default chunk 512, effective
// chunk = 512 - 10%, overlap = 10%").
func TestbedChunkOverlap(chunkSize int) int {
	return int(math.Ceil(float64(chunkSize) * 0.10))
}

// buildChunks splits a loaded document and enriches each chunk's metadata
// with a deterministic id, filename, and upstream object-store attributes
// when known (§4.2 step 3).
func buildChunks(f SourceFile, doc loadedDocument, chunkSize, chunkOverlap int) []model.Chunk {
	basename := strings.TrimSuffix(f.Filename, pathExt(f.Filename))

	var texts []string
	if doc.splittable {
		for _, page := range doc.pages {
			texts = append(texts, splitText(page, chunkSize, chunkOverlap)...)
		}
	} else {
		texts = doc.pages
	}

	chunks := make([]model.Chunk, 0, len(texts))
	for i, t := range texts {
		meta := map[string]string{"filename": f.Filename}
		if f.Size > 0 {
			meta["size"] = fmt.Sprintf("%d", f.Size)
		}
		if f.TimeModified != "" {
			meta["time_modified"] = f.TimeModified
		}
		if f.ETag != "" {
			meta["etag"] = f.ETag
		}
		if f.BucketName != "" {
			meta["bucket_name"] = f.BucketName
		}
		chunks = append(chunks, model.Chunk{
			ID:       fmt.Sprintf("%s_%d", basename, i),
			Text:     t,
			Metadata: meta,
		})
	}
	return chunks
}

func pathExt(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
