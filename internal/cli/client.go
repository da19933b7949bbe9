package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fatih/color"

	"docrag/internal/domain"
)

// client talks to a running docrag daemon over its HTTP API.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(addr string) *client {
	return &client{
		baseURL: "http://" + addr,
		http:    &http.Client{Timeout: 10 * time.Minute},
	}
}

type searchResult struct {
	Content     string  `json:"content"`
	FileName    string  `json:"file_name"`
	FilePath    string  `json:"file_path"`
	Score       float64 `json:"score"`
	ChunkIndex  int     `json:"chunk_index"`
	TotalChunks int     `json:"total_chunks"`
	PageNumber  int     `json:"page_number,omitempty"`
}

func (c *client) search(query string, topK int) ([]searchResult, error) {
	u := c.baseURL + "/search?q=" + url.QueryEscape(query)
	if topK > 0 {
		u += "&k=" + strconv.Itoa(topK)
	}

	var resp struct {
		Chunks []searchResult `json:"chunks"`
		Error  string         `json:"error,omitempty"`
	}
	if err := c.getJSON(u, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s", resp.Error)
	}
	return resp.Chunks, nil
}

func (c *client) index(workspace string) (map[string]any, error) {
	body, _ := json.Marshal(map[string]string{"workspace_path": workspace})
	res, err := c.http.Post(c.baseURL+"/index", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("daemon not reachable at %s: %w", c.baseURL, err)
	}
	defer res.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	if errMsg, ok := out["error"].(string); ok && errMsg != "" {
		return nil, fmt.Errorf("%s", errMsg)
	}
	return out, nil
}

func (c *client) status() (*domain.StoreStatus, error) {
	var status domain.StoreStatus
	if err := c.getJSON(c.baseURL+"/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *client) clear() error {
	res, err := c.http.Post(c.baseURL+"/clear", "application/json", nil)
	if err != nil {
		return fmt.Errorf("daemon not reachable at %s: %w", c.baseURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("clear failed: %s", string(body))
	}
	return nil
}

func (c *client) getJSON(u string, out any) error {
	res, err := c.http.Get(u)
	if err != nil {
		return fmt.Errorf("daemon not reachable at %s: %w", c.baseURL, err)
	}
	defer res.Body.Close()

	return json.NewDecoder(res.Body).Decode(out)
}

func toSearchResults(results []domain.ScoredChunk) []searchResult {
	out := make([]searchResult, 0, len(results))
	for _, r := range results {
		out = append(out, searchResult{
			Content:     r.Chunk.Content,
			FileName:    r.Chunk.FileName,
			FilePath:    r.Chunk.FilePath,
			Score:       r.Score,
			ChunkIndex:  r.Chunk.ChunkIndex,
			TotalChunks: r.Chunk.TotalChunks,
			PageNumber:  r.Chunk.PageNumber,
		})
	}
	return out
}

func printResults(query string, results []searchResult) {
	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}

	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Printf("Found %d results for: %s\n\n", len(results), bold(query))
	for i, r := range results {
		section := fmt.Sprintf("Section %d/%d", r.ChunkIndex+1, r.TotalChunks)
		if r.PageNumber > 0 {
			section = fmt.Sprintf("Page %d", r.PageNumber)
		}
		fmt.Printf("%s %s (%s)  %s\n", bold(fmt.Sprintf("[%d]", i+1)), r.FileName, section, faint(fmt.Sprintf("score=%.4f", r.Score)))

		content := r.Content
		if len(content) > 300 {
			content = content[:300] + "..."
		}
		fmt.Printf("    %s\n\n", content)
	}
}
