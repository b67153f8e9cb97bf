// Package gemini adapts Google's Gemini File Search API to the
// interfaces.SearchStore contract, so the Job Engine and Query Facade stay
// oblivious to which grounded-search backend they are calling.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/common"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"google.golang.org/genai"
)

// Store implements interfaces.SearchStore against a genai.Client's File
// Search store API.
type Store struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// New initializes a genai client using the configured API key and model.
func New(cfg *common.GeminiConfig, logger arbor.ILogger) (*Store, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid gemini timeout %q: %w", cfg.Timeout, err)
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Info().Str("model", cfg.Model).Dur("timeout", timeout).Msg("Gemini search store initialized")

	return &Store{config: cfg, logger: logger, client: client, timeout: timeout}, nil
}

func (s *Store) ctxWithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) ListStores(ctx context.Context) ([]interfaces.Store, error) {
	ctx, cancel := s.ctxWithTimeout(ctx)
	defer cancel()

	iter := s.client.FileSearchStores.List(ctx, nil)
	var out []interfaces.Store
	for item, err := range iter {
		if err != nil {
			return nil, fmt.Errorf("list file search stores: %w", err)
		}
		out = append(out, interfaces.Store{Name: item.Name, DisplayName: item.DisplayName})
	}
	return out, nil
}

func (s *Store) GetStore(ctx context.Context, name string) (interfaces.Store, error) {
	ctx, cancel := s.ctxWithTimeout(ctx)
	defer cancel()

	fs, err := s.client.FileSearchStores.Get(ctx, name, nil)
	if err != nil {
		return interfaces.Store{}, fmt.Errorf("get file search store %q: %w", name, err)
	}
	return interfaces.Store{Name: fs.Name, DisplayName: fs.DisplayName}, nil
}

func (s *Store) CreateStore(ctx context.Context, displayName string) (interfaces.Store, error) {
	ctx, cancel := s.ctxWithTimeout(ctx)
	defer cancel()

	fs, err := s.client.FileSearchStores.Create(ctx, &genai.CreateFileSearchStoreConfig{DisplayName: displayName})
	if err != nil {
		return interfaces.Store{}, fmt.Errorf("create file search store %q: %w", displayName, err)
	}
	return interfaces.Store{Name: fs.Name, DisplayName: fs.DisplayName}, nil
}

func (s *Store) DeleteStore(ctx context.Context, name string) error {
	ctx, cancel := s.ctxWithTimeout(ctx)
	defer cancel()

	if err := s.client.FileSearchStores.Delete(ctx, name, nil); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete file search store %q: %w", name, err)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, store string) ([]interfaces.Document, error) {
	ctx, cancel := s.ctxWithTimeout(ctx)
	defer cancel()

	iter := s.client.FileSearchStores.Documents.List(ctx, store, nil)
	var out []interfaces.Document
	for item, err := range iter {
		if err != nil {
			return nil, fmt.Errorf("list documents in %q: %w", store, err)
		}
		out = append(out, toDocument(item))
	}
	return out, nil
}

func (s *Store) GetDocument(ctx context.Context, name string) (interfaces.Document, error) {
	ctx, cancel := s.ctxWithTimeout(ctx)
	defer cancel()

	doc, err := s.client.FileSearchStores.Documents.Get(ctx, name, nil)
	if err != nil {
		return interfaces.Document{}, fmt.Errorf("get document %q: %w", name, err)
	}
	return toDocument(doc), nil
}

// DeleteDocument treats a not-found response as success: a document already
// removed by a prior run should not fail the deletion pass.
func (s *Store) DeleteDocument(ctx context.Context, name string) error {
	ctx, cancel := s.ctxWithTimeout(ctx)
	defer cancel()

	if err := s.client.FileSearchStores.Documents.Delete(ctx, name, nil); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete document %q: %w", name, err)
	}
	return nil
}

func (s *Store) Upload(ctx context.Context, store string, content string, meta interfaces.UploadMetadata) (interfaces.Document, error) {
	ctx, cancel := s.ctxWithTimeout(ctx)
	defer cancel()

	op, err := s.client.FileSearchStores.UploadToFileSearchStore(ctx, strings.NewReader(content), store, &genai.UploadToFileSearchStoreConfig{
		DisplayName: meta.Title,
		CustomMetadata: []*genai.CustomMetadata{
			{Key: "url", StringValue: meta.URL},
			{Key: "path", StringValue: meta.Path},
			{Key: "lastUpdated", StringValue: meta.LastUpdated.UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return interfaces.Document{}, fmt.Errorf("upload to %q: %w", store, err)
	}
	if op.Response != nil && op.Response.Document != nil {
		return toDocument(op.Response.Document), nil
	}
	return interfaces.Document{Name: op.Name, State: interfaces.DocumentStatePending}, nil
}

func (s *Store) PollOperation(ctx context.Context, name string, opts interfaces.PollOperationOptions) (interfaces.Operation, error) {
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		maxWait = 5 * time.Minute
	}

	deadline := time.Now().Add(maxWait)
	for {
		op, err := s.client.Operations.GetFileSearchStoreOperation(ctx, &genai.Operation{Name: name}, nil)
		if err != nil {
			return interfaces.Operation{}, fmt.Errorf("poll operation %q: %w", name, err)
		}
		if op.Done {
			result := interfaces.Operation{Name: name, Done: true}
			if op.Response != nil && op.Response.Document != nil {
				result.Doc = toDocument(op.Response.Document)
			}
			return result, nil
		}
		if time.Now().After(deadline) {
			return interfaces.Operation{}, fmt.Errorf("operation %q did not complete within %s", name, maxWait)
		}

		select {
		case <-ctx.Done():
			return interfaces.Operation{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (s *Store) Query(ctx context.Context, store string, question string, opts interfaces.QueryOptions) (interfaces.QueryResult, error) {
	ctx, cancel := s.ctxWithTimeout(ctx)
	defer cancel()

	fileSearch := &genai.FileSearch{FileSearchStoreNames: []string{store}}
	if opts.MetadataFilter != "" {
		fileSearch.MetadataFilter = opts.MetadataFilter
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.config.Model,
		genai.Text(question),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{FileSearch: fileSearch}},
		},
	)
	if err != nil {
		return interfaces.QueryResult{}, fmt.Errorf("grounded query failed: %w", err)
	}

	result := interfaces.QueryResult{Answer: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk.RetrievedContext == nil {
				continue
			}
			result.GroundingChunks = append(result.GroundingChunks, interfaces.GroundingChunk{
				URI:   chunk.RetrievedContext.URI,
				Title: chunk.RetrievedContext.Title,
				Text:  chunk.RetrievedContext.Text,
			})
		}
	}
	return result, nil
}

func toDocument(d *genai.FileSearchDocument) interfaces.Document {
	doc := interfaces.Document{
		Name:        d.Name,
		DisplayName: d.DisplayName,
		Mime:        d.MimeType,
		Size:        d.SizeBytes,
	}
	switch strings.ToUpper(strings.TrimPrefix(string(d.State), "STATE_")) {
	case "ACTIVE":
		doc.State = interfaces.DocumentStateActive
	case "FAILED":
		doc.State = interfaces.DocumentStateFailed
	default:
		doc.State = interfaces.DocumentStatePending
	}
	return doc
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}
