package crossencoder

import (
	"context"
	"fmt"
	"math"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements the Client interface using OpenAI's API. Each
// passage is scored with a boolean relevance prompt and the log-probability
// of the "True" token becomes the relevance score.
type OpenAIClient struct {
	client    *openai.Client
	config    Config
	semaphore chan struct{} // controls concurrency
}

// NewOpenAIClient creates a new OpenAI-based cross-encoder client.
func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if config.Model == "" {
		config.Model = DefaultConfig(ProviderOpenAI).Model
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultConfig(ProviderOpenAI).MaxConcurrency
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(clientConfig),
		config:    config,
		semaphore: make(chan struct{}, config.MaxConcurrency),
	}, nil
}

// Score returns one relevance score per passage, in input order. Passages are
// scored concurrently with a semaphore for rate limiting.
func (c *OpenAIClient) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return []float64{}, nil
	}

	scores := make([]float64, len(passages))
	errs := make([]error, len(passages))
	var wg sync.WaitGroup

	for i, passage := range passages {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()

			c.semaphore <- struct{}{}
			defer func() { <-c.semaphore }()

			scores[idx], errs[idx] = c.scorePassage(ctx, query, p)
		}(i, passage)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("error scoring passage %d: %w", i, err)
		}
	}
	return scores, nil
}

// scorePassage scores a single passage against the query using logprobs.
func (c *OpenAIClient) scorePassage(ctx context.Context, query, passage string) (float64, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert tasked with determining whether the passage is relevant to the query",
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(`Respond with "True" if PASSAGE is relevant to QUERY and "False" otherwise.
<PASSAGE>
%s
</PASSAGE>
<QUERY>
%s
</QUERY>`, passage, query),
			},
		},
		MaxTokens:   1,
		Temperature: 0,
		LogProbs:    true,
		TopLogProbs: 2,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("no choices returned")
	}

	choice := resp.Choices[0]
	if choice.LogProbs != nil && len(choice.LogProbs.Content) > 0 {
		for _, top := range choice.LogProbs.Content[0].TopLogProbs {
			if top.Token == "True" || top.Token == " True" {
				return math.Exp(top.LogProb), nil
			}
		}
	}

	// No logprob for "True": fall back to the literal answer.
	if choice.Message.Content == "True" {
		return 1.0, nil
	}
	return 0.0, nil
}

// Close cleans up any resources.
func (c *OpenAIClient) Close() error {
	return nil
}
