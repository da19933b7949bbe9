package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"docrag/internal/port"
)

// Local extracts text from formats this process can read directly: plain
// text as-is, HTML stripped down to its visible text.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Extract(filePath string) port.Extraction {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return degraded(
			fmt.Sprintf("[Content from %s - read failed: %v]", filepath.Base(filePath), err),
			fmt.Sprintf("read failed: %v", err))
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".html", ".htm":
		return l.extractHTML(filePath, string(data))
	default:
		return port.Extraction{Text: string(data)}
	}
}

func (l *Local) extractHTML(filePath, html string) port.Extraction {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return degraded(
			fmt.Sprintf("[Content from %s - html parse failed: %v]", filepath.Base(filePath), err),
			fmt.Sprintf("html parse failed: %v", err))
	}

	doc.Find("script, style, noscript").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	return port.Extraction{Text: collapseWhitespace(text)}
}

// collapseWhitespace trims each line and drops runs of blank lines, keeping
// paragraph breaks intact.
func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	blank := false

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, strings.Join(strings.Fields(line), " "))
		blank = false
	}

	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}
