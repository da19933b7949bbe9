package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaEmbedder generates embeddings from a local Ollama server, for
// workspaces that must not leave the machine.
type OllamaEmbedder struct {
	model     string
	dimension int
	llm       *ollama.LLM
}

func NewOllamaEmbedder(model, baseURL string) (*OllamaEmbedder, error) {
	if model == "" {
		model = "nomic-embed-text"
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	dimension := 768
	switch model {
	case "nomic-embed-text":
		dimension = 768
	case "mxbai-embed-large":
		dimension = 1024
	case "all-minilm":
		dimension = 384
	}

	llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
	}

	return &OllamaEmbedder{
		model:     model,
		dimension: dimension,
		llm:       llm,
	}, nil
}

func (e *OllamaEmbedder) Embed(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = Truncate(t, maxInputChars)
	}

	var allEmbeddings [][]float32

	for i := 0; i < len(input); i += maxBatch {
		end := i + maxBatch
		if end > len(input) {
			end = len(input)
		}

		embeddings, err := e.llm.CreateEmbedding(context.Background(), input[i:end])
		if err != nil {
			return nil, fmt.Errorf("ollama embedding failed: %w", err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (e *OllamaEmbedder) Dimension() int {
	return e.dimension
}

func (e *OllamaEmbedder) ModelName() string {
	return e.model
}
