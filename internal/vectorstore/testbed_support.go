package vectorstore

// LoadAndSplitForTestbed loads a source file and splits it into plain-text
// passages using the testbed's chunking rule: effective overlap is derived
// from chunkSize via TestbedChunkOverlap rather than taken as a configured
// value (§4.4 "effective chunk = 512 - 10%, overlap = 10%"), grounded on
// `original_source/src/server/api/utils/testbed.py`'s `load_and_split`.
// The Testbed Runner builds its in-memory knowledge base straight from
// these passages, so no Chunk metadata enrichment is needed here.
func LoadAndSplitForTestbed(f SourceFile, chunkSize int) ([]string, error) {
	doc, err := loadSource(f)
	if err != nil {
		return nil, err
	}

	overlap := TestbedChunkOverlap(chunkSize)

	if !doc.splittable {
		return doc.pages, nil
	}

	var passages []string
	for _, page := range doc.pages {
		passages = append(passages, splitText(page, chunkSize, overlap)...)
	}
	return passages, nil
}
