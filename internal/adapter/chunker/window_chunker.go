package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"docrag/internal/domain"
)

// pageMarker matches the page-boundary lines the extraction helper inserts
// between pages, e.g. "--- Page 3 ---".
var pageMarker = regexp.MustCompile(`(?m)^\s*--- Page (\d+) ---\s*$`)

// WindowChunker splits text into fixed-size windows with a constant overlap
// between consecutive windows. The final window may be shorter.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) *WindowChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &WindowChunker{size: size, overlap: overlap}
}

// Chunk splits text into overlapping windows. Empty or whitespace-only text
// yields no chunks; text shorter than the window size yields exactly one.
func (c *WindowChunker) Chunk(filePath, text string) []domain.DocumentChunk {
	windows := c.split(text)
	return c.assemble(filePath, windows, nil)
}

// ChunkPages splits page-marked text one page at a time, so a chunk never
// spans two pages. Text without markers is treated as a single page 1.
func (c *WindowChunker) ChunkPages(filePath, text string) []domain.DocumentChunk {
	var windows []string
	var pages []int

	for _, p := range splitPages(text) {
		for _, w := range c.split(p.text) {
			windows = append(windows, w)
			pages = append(pages, p.number)
		}
	}

	return c.assemble(filePath, windows, pages)
}

// split produces windows [start, min(start+size, len)) stepping by
// size-overlap, so consecutive full windows share exactly overlap
// characters. The final window may be shorter.
func (c *WindowChunker) split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= c.size {
		return []string{text}
	}

	var windows []string
	step := c.size - c.overlap

	for start := 0; start < len(text); start += step {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}
		windows = append(windows, text[start:end])
	}

	return windows
}

func (c *WindowChunker) assemble(filePath string, windows []string, pages []int) []domain.DocumentChunk {
	if len(windows) == 0 {
		return nil
	}

	fileName := filepath.Base(filePath)
	chunks := make([]domain.DocumentChunk, len(windows))
	for i, w := range windows {
		chunk := domain.DocumentChunk{
			ID:          chunkID(filePath, i),
			FilePath:    filePath,
			FileName:    fileName,
			Content:     w,
			ChunkIndex:  i,
			TotalChunks: len(windows),
		}
		if pages != nil {
			chunk.PageNumber = pages[i]
		}
		chunks[i] = chunk
	}
	return chunks
}

type page struct {
	number int
	text   string
}

// splitPages breaks marker-delimited text into ordered (page, text) pairs.
// Text preceding the first marker belongs to page 1.
func splitPages(text string) []page {
	markers := pageMarker.FindAllStringSubmatchIndex(text, -1)
	if len(markers) == 0 {
		return []page{{number: 1, text: text}}
	}

	var pages []page
	if head := text[:markers[0][0]]; strings.TrimSpace(head) != "" {
		pages = append(pages, page{number: 1, text: head})
	}

	for i, m := range markers {
		num, _ := strconv.Atoi(text[m[2]:m[3]])
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		pages = append(pages, page{number: num, text: text[m[1]:end]})
	}

	return pages
}

func chunkID(filePath string, index int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", filePath, index)))
	return hex.EncodeToString(hash[:8])
}
