// Package bedrock embeds texts with a Cohere embedding model served through
// AWS Bedrock.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"golang.org/x/sync/errgroup"

	"github.com/flarexio/semsearch/embedding"
)

const (
	DefaultModel     = "cohere.embed-multilingual-v3"
	DefaultDimension = 1024

	// maxBatchSize is Cohere's per-call text ceiling. Longer input lists are
	// split into consecutive chunks and re-assembled in input order.
	maxBatchSize = 96
)

type inputType string

const (
	inputTypeDocument inputType = "search_document"
	inputTypeQuery    inputType = "search_query"
)

type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type Client struct {
	runtime   invoker
	model     string
	dimension int
}

func NewClient(ctx context.Context, cfg embedding.Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedding.ErrProvider, err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = DefaultDimension
	}

	return &Client{
		runtime:   bedrockruntime.NewFromConfig(awsCfg),
		model:     model,
		dimension: dimension,
	}, nil
}

func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return c.embed(ctx, texts, inputTypeDocument)
}

func (c *Client) EmbedQueries(ctx context.Context, texts []string) ([][]float32, error) {
	return c.embed(ctx, texts, inputTypeQuery)
}

func (c *Client) Dimensions() int {
	return c.dimension
}

// embed fans one provider call out per chunk of at most maxBatchSize texts.
// Chunks run concurrently; results are written back by chunk offset, so the
// output order matches the input order regardless of completion order.
func (c *Client) embed(ctx context.Context, texts []string, mode inputType) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)

	for offset := 0; offset < len(texts); offset += maxBatchSize {
		end := min(offset+maxBatchSize, len(texts))

		chunk := texts[offset:end]
		out := vectors[offset:end]

		g.Go(func() error {
			embeddings, err := c.invokeCohere(ctx, chunk, mode)
			if err != nil {
				return err
			}

			copy(out, embeddings)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}

type cohereRequest struct {
	// Texts longer than 512 tokens are truncated by the provider.
	Texts          []string  `json:"texts"`
	InputType      inputType `json:"input_type"`
	EmbeddingTypes []string  `json:"embedding_types"`
}

type cohereResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
}

func (c *Client) invokeCohere(ctx context.Context, texts []string, mode inputType) ([][]float32, error) {
	body, err := json.Marshal(&cohereRequest{
		Texts:          texts,
		InputType:      mode,
		EmbeddingTypes: []string{"float"},
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedding.ErrProvider, err)
	}

	out, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("*/*"),
		Body:        body,
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedding.ErrProvider, err)
	}

	var resp cohereResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", embedding.ErrProvider, err)
	}

	if len(resp.Embeddings.Float) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			embedding.ErrProvider, len(texts), len(resp.Embeddings.Float))
	}

	return resp.Embeddings.Float, nil
}
