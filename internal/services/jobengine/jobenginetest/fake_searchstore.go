package jobenginetest

import (
	"context"
	"fmt"

	"github.com/ternarybob/sitecorpus/internal/interfaces"
)

// FakeSearchStore is an in-memory SearchStore. Documents uploaded through it
// become immediately ACTIVE unless FailUploads or FailDocumentName marks
// them otherwise. Query returns a canned answer; without a metadata filter
// it cites every uploaded document's URL, and with one it cites none.
type FakeSearchStore struct {
	FailUploads      bool
	FailDocumentName map[string]bool
	QueryAnswer      string

	stores    map[string]interfaces.Store
	documents map[string]map[string]interfaces.Document // store -> name -> doc
	metadata  map[string]interfaces.UploadMetadata
	nextID    int
}

func NewFakeSearchStore() *FakeSearchStore {
	return &FakeSearchStore{
		FailDocumentName: map[string]bool{},
		QueryAnswer:      "This site is about example content.",
		stores:           map[string]interfaces.Store{},
		documents:        map[string]map[string]interfaces.Document{},
		metadata:         map[string]interfaces.UploadMetadata{},
	}
}

func (s *FakeSearchStore) ListStores(ctx context.Context) ([]interfaces.Store, error) {
	out := make([]interfaces.Store, 0, len(s.stores))
	for _, st := range s.stores {
		out = append(out, st)
	}
	return out, nil
}

func (s *FakeSearchStore) GetStore(ctx context.Context, name string) (interfaces.Store, error) {
	st, ok := s.stores[name]
	if !ok {
		return interfaces.Store{}, fmt.Errorf("store not found: %s", name)
	}
	return st, nil
}

func (s *FakeSearchStore) CreateStore(ctx context.Context, displayName string) (interfaces.Store, error) {
	s.nextID++
	name := fmt.Sprintf("store-%d", s.nextID)
	st := interfaces.Store{Name: name, DisplayName: displayName}
	s.stores[name] = st
	s.documents[name] = map[string]interfaces.Document{}
	return st, nil
}

func (s *FakeSearchStore) DeleteStore(ctx context.Context, name string) error {
	delete(s.stores, name)
	delete(s.documents, name)
	return nil
}

func (s *FakeSearchStore) ListDocuments(ctx context.Context, store string) ([]interfaces.Document, error) {
	docs := s.documents[store]
	out := make([]interfaces.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, d)
	}
	return out, nil
}

func (s *FakeSearchStore) GetDocument(ctx context.Context, name string) (interfaces.Document, error) {
	for _, docs := range s.documents {
		if d, ok := docs[name]; ok {
			return d, nil
		}
	}
	return interfaces.Document{}, fmt.Errorf("document not found: %s", name)
}

func (s *FakeSearchStore) DeleteDocument(ctx context.Context, name string) error {
	for _, docs := range s.documents {
		delete(docs, name)
	}
	return nil
}

func (s *FakeSearchStore) Upload(ctx context.Context, store, content string, meta interfaces.UploadMetadata) (interfaces.Document, error) {
	if s.FailUploads {
		return interfaces.Document{}, fmt.Errorf("upload rejected by fake search store")
	}
	docs, ok := s.documents[store]
	if !ok {
		return interfaces.Document{}, fmt.Errorf("store not found: %s", store)
	}
	s.nextID++
	name := fmt.Sprintf("document-%d", s.nextID)
	state := interfaces.DocumentStateActive
	if s.FailDocumentName[meta.URL] {
		state = interfaces.DocumentStateFailed
	}
	doc := interfaces.Document{Name: name, DisplayName: meta.Title, Size: int64(len(content)), State: state}
	docs[name] = doc
	s.metadata[name] = meta
	return doc, nil
}

func (s *FakeSearchStore) PollOperation(ctx context.Context, name string, opts interfaces.PollOperationOptions) (interfaces.Operation, error) {
	doc, err := s.GetDocument(ctx, name)
	if err != nil {
		return interfaces.Operation{}, err
	}
	return interfaces.Operation{Name: name, Done: true, Doc: doc}, nil
}

func (s *FakeSearchStore) Query(ctx context.Context, store, question string, opts interfaces.QueryOptions) (interfaces.QueryResult, error) {
	var chunks []interfaces.GroundingChunk
	for name, doc := range s.documents[store] {
		meta := s.metadata[name]
		if opts.MetadataFilter != "" {
			continue
		}
		chunks = append(chunks, interfaces.GroundingChunk{URI: meta.URL, Title: doc.DisplayName})
	}
	return interfaces.QueryResult{Answer: s.QueryAnswer, GroundingChunks: chunks}, nil
}
