package interfaces

import (
	"context"
	"time"
)

// DocumentState is the external search store's reported document state.
// Treated case-insensitively; both STATE_* and bare variants are accepted
// by implementations.
type DocumentState string

const (
	DocumentStatePending DocumentState = "PENDING"
	DocumentStateActive  DocumentState = "ACTIVE"
	DocumentStateFailed  DocumentState = "FAILED"
)

// Store is a semantic search store scoped to one website.
type Store struct {
	Name        string
	DisplayName string
}

// Document is one uploaded file-search document.
type Document struct {
	Name        string
	DisplayName string
	Mime        string
	Size        int64
	CreateTime  time.Time
	State       DocumentState
}

// UploadMetadata accompanies an uploaded document's content.
type UploadMetadata struct {
	URL         string
	Title       string
	Path        string
	LastUpdated time.Time
}

// GroundingChunk is one citation surfaced alongside a grounded answer.
// URI may be empty; callers fall back to extracting the first https?://
// token from Text.
type GroundingChunk struct {
	URI   string
	Title string
	Text  string
}

// QueryOptions controls SearchStore.Query.
type QueryOptions struct {
	MetadataFilter string // e.g. `path LIKE "<prefix>%"`
}

// QueryResult is the outcome of a grounded query.
type QueryResult struct {
	Answer          string
	GroundingChunks []GroundingChunk
}

// Operation names a long-running upload when the store's upload API is
// asynchronous.
type Operation struct {
	Name string
	Done bool
	Doc  Document
}

// PollOperationOptions controls SearchStore.PollOperation.
type PollOperationOptions struct {
	PollInterval time.Duration // default 2s
	MaxWait      time.Duration // default 5m
}

// SearchStore is the semantic search collaborator implemented outside this
// module's core. The core depends only on this interface; a concrete Gemini
// File Search adapter lives in internal/services/searchstore/gemini for
// testability.
type SearchStore interface {
	ListStores(ctx context.Context) ([]Store, error)
	GetStore(ctx context.Context, name string) (Store, error)
	CreateStore(ctx context.Context, displayName string) (Store, error)
	DeleteStore(ctx context.Context, name string) error

	ListDocuments(ctx context.Context, store string) ([]Document, error)
	GetDocument(ctx context.Context, name string) (Document, error)
	// DeleteDocument treats a 404/not-found as success.
	DeleteDocument(ctx context.Context, name string) error
	Upload(ctx context.Context, store string, content string, meta UploadMetadata) (Document, error)
	PollOperation(ctx context.Context, name string, opts PollOperationOptions) (Operation, error)

	Query(ctx context.Context, store string, question string, opts QueryOptions) (QueryResult, error)
}
