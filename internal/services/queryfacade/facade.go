// Package queryfacade resolves a user-supplied URL or bare domain to a
// registered website, then delegates grounded question answering and
// filtered search to the semantic search store.
package queryfacade

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
	"github.com/ternarybob/sitecorpus/internal/services/urlscope"
)

const maxQuestionLength = 5000

// Facade implements the five query operations over a CorpusStorage and a
// SearchStore.
type Facade struct {
	storage interfaces.CorpusStorage
	search  interfaces.SearchStore
	logger  arbor.ILogger
}

func New(storage interfaces.CorpusStorage, search interfaces.SearchStore, logger arbor.ILogger) *Facade {
	return &Facade{storage: storage, search: search, logger: logger}
}

// Citation is one grounding reference attached to an answer.
type Citation struct {
	URL     string
	Title   string
	Snippet string
}

// AnswerResult is the outcome of ask and the prompts composed around it.
type AnswerResult struct {
	Answer    string
	Citations []Citation
}

// Ask validates the question, resolves website_ref to a website with a
// search store, queries it, and returns a cleaned answer with citations.
func (f *Facade) Ask(ctx context.Context, question, websiteRef string) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}
	if len(question) > maxQuestionLength {
		return nil, fmt.Errorf("question exceeds %d characters", maxQuestionLength)
	}

	website, err := f.resolveWebsite(ctx, websiteRef)
	if err != nil {
		return nil, err
	}

	result, err := f.search.Query(ctx, website.SearchStoreID, question, interfaces.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("query search store: %w", err)
	}

	return &AnswerResult{
		Answer:    cleanAnswer(result.Answer),
		Citations: extractCitations(result.GroundingChunks),
	}, nil
}

// CheckExistingContent asks whether the indexed corpus already covers a topic.
func (f *Facade) CheckExistingContent(ctx context.Context, topic, websiteRef string) (*AnswerResult, error) {
	prompt := fmt.Sprintf("Does the existing content already cover the topic %q? Answer yes or no and cite the relevant pages.", topic)
	return f.Ask(ctx, prompt, websiteRef)
}

// SummarizeTopic asks for a summary of everything indexed about a topic.
func (f *Facade) SummarizeTopic(ctx context.Context, topic, websiteRef string) (*AnswerResult, error) {
	prompt := fmt.Sprintf("Summarize everything the indexed content says about %q.", topic)
	return f.Ask(ctx, prompt, websiteRef)
}

// FindMentions asks for every page mentioning any of the given keywords.
func (f *Facade) FindMentions(ctx context.Context, keywords []string, websiteRef string) (*AnswerResult, error) {
	prompt := fmt.Sprintf("List every page that mentions any of the following: %s.", strings.Join(keywords, ", "))
	return f.Ask(ctx, prompt, websiteRef)
}

// SearchWithFilter resolves website_ref as Ask does, but scopes the query to
// pages whose path starts with pathPrefix.
func (f *Facade) SearchWithFilter(ctx context.Context, question, websiteRef, pathPrefix string) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}
	if len(question) > maxQuestionLength {
		return nil, fmt.Errorf("question exceeds %d characters", maxQuestionLength)
	}

	website, err := f.resolveWebsite(ctx, websiteRef)
	if err != nil {
		return nil, err
	}

	opts := interfaces.QueryOptions{}
	if pathPrefix != "" {
		opts.MetadataFilter = fmt.Sprintf("path LIKE %q", pathPrefix+"%")
	}

	result, err := f.search.Query(ctx, website.SearchStoreID, question, opts)
	if err != nil {
		return nil, fmt.Errorf("query search store: %w", err)
	}

	return &AnswerResult{
		Answer:    cleanAnswer(result.Answer),
		Citations: extractCitations(result.GroundingChunks),
	}, nil
}

func (f *Facade) resolveWebsite(ctx context.Context, websiteRef string) (*models.Website, error) {
	baseDomain, err := refToBaseDomain(websiteRef)
	if err != nil {
		return nil, fmt.Errorf("invalid website reference: %w", err)
	}

	website, err := f.storage.GetWebsiteByBaseDomain(ctx, baseDomain)
	if err != nil {
		return nil, fmt.Errorf("domain %s is not ingested; ingest it first", baseDomain)
	}
	if website.SearchStoreID == "" {
		return nil, fmt.Errorf("domain %s is ingested but not yet indexed", baseDomain)
	}

	return website, nil
}

// refToBaseDomain accepts either a full URL or a bare domain and reduces it
// to a base domain the way the website store's uniqueness key expects.
func refToBaseDomain(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("website_ref must not be empty")
	}
	if !strings.Contains(ref, "://") {
		ref = "https://" + ref
	}
	host, err := urlscope.ExtractDomain(ref)
	if err != nil {
		return "", err
	}
	return urlscope.ExtractBaseDomain(host), nil
}
