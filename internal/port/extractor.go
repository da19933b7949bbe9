package port

// Extraction is the outcome of pulling text out of one document. A degraded
// extraction carries placeholder text instead of real content; the indexer
// skips it without failing the run.
type Extraction struct {
	Text     string
	Degraded bool
	Note     string
}

type Extractor interface {
	Extract(filePath string) Extraction
}
