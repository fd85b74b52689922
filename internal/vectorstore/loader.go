package vectorstore

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceFile is one ingest input before loading/splitting (§4.2 "Input is a
// set of source files").
type SourceFile struct {
	Filename string
	Bytes    []byte

	// Upstream object-store attributes, when known (§4.2 step 3).
	Size         int64
	TimeModified string
	ETag         string
	BucketName   string
}

// loadedDocument is one source file after loading, before splitting.
type loadedDocument struct {
	pages      []string // one entry per page/section; len==1 for non-paginated sources
	splittable bool
}

// loadSource picks a loader by extension (§4.2 step 1): PDF paginated,
// HTML header-aware, Markdown/Text/CSV plain, images single-chunk.
func loadSource(f SourceFile) (loadedDocument, error) {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	switch ext {
	case ".pdf":
		return loadPDF(f.Bytes)
	case ".html", ".htm":
		return loadHTML(f.Bytes)
	case ".md", ".txt", ".csv":
		return loadedDocument{pages: []string{string(f.Bytes)}, splittable: true}, nil
	case ".png", ".jpg", ".jpeg":
		return loadedDocument{pages: []string{fmt.Sprintf("[image:%s]", f.Filename)}, splittable: false}, nil
	default:
		return loadedDocument{}, fmt.Errorf("unsupported source extension %q", ext)
	}
}

// loadPDF extracts page-oriented text. No PDF-parsing library appears
// anywhere in the retrieved example pack (see DESIGN.md); this performs a
// best-effort scan for parenthesised text runs between stream markers,
// which recovers readable text from uncompressed PDF content streams and is
// deliberately not a full PDF renderer.
func loadPDF(data []byte) (loadedDocument, error) {
	raw := string(data)
	var pages []string
	for _, section := range strings.Split(raw, "endstream") {
		start := strings.Index(section, "stream")
		if start < 0 {
			continue
		}
		body := section[start+len("stream"):]
		var text strings.Builder
		for {
			open := strings.Index(body, "(")
			if open < 0 {
				break
			}
			close := strings.Index(body[open:], ")")
			if close < 0 {
				break
			}
			text.WriteString(body[open+1 : open+close])
			text.WriteString(" ")
			body = body[open+close+1:]
		}
		if text.Len() > 0 {
			pages = append(pages, text.String())
		}
	}
	if len(pages) == 0 {
		pages = []string{""}
	}
	return loadedDocument{pages: pages, splittable: true}, nil
}

// loadHTML strips tags with a header-aware split on H1-H5, inheriting
// source metadata from the parent document (§4.2 step 2). Grounded on
// `internal/vectorstore/webload`'s tag-stripping approach, reused here for
// file-sourced HTML as well as fetched URLs.
func loadHTML(data []byte) (loadedDocument, error) {
	sections := splitHTMLOnHeaders(string(data))
	return loadedDocument{pages: sections, splittable: true}, nil
}
