// Package jobenginetest provides in-memory fakes for the Crawler and
// SearchStore collaborators, used by the Job Engine and Query Facade tests.
package jobenginetest

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/services/urlscope"
)

// FakeCrawler is an in-memory Crawler. Pages maps a URL to the markdown it
// should scrape to; a URL present in Pages but with an empty string scrapes
// as a discard (empty markdown, success=true). Missing maps a URL to a
// not-found scrape failure, simulating disappeared content. A scraped URL
// that is not a key of either map is matched against the keys by their
// urlscope.Normalize form, so "https://example.com/" serves a request for
// "https://example.com".
type FakeCrawler struct {
	Links   []string
	Pages   map[string]string
	Missing map[string]bool

	MapErr        error
	BatchStartErr error

	batches map[string][]string
	nextID  int
}

func NewFakeCrawler() *FakeCrawler {
	return &FakeCrawler{
		Pages:   map[string]string{},
		Missing: map[string]bool{},
		batches: map[string][]string{},
	}
}

func (c *FakeCrawler) Map(ctx context.Context, seedURL string, opts interfaces.MapOptions) (interfaces.MapResult, error) {
	if c.MapErr != nil {
		return interfaces.MapResult{}, c.MapErr
	}
	links := make([]interfaces.Link, len(c.Links))
	for i, l := range c.Links {
		links[i] = interfaces.Link{URL: l}
	}
	return interfaces.MapResult{Success: true, Links: links}, nil
}

func (c *FakeCrawler) Scrape(ctx context.Context, url string, opts interfaces.ScrapeOptions) (interfaces.ScrapeResult, error) {
	return c.scrapeOne(url), nil
}

func (c *FakeCrawler) BatchStart(ctx context.Context, urls []string, opts interfaces.ScrapeOptions) (string, error) {
	if c.BatchStartErr != nil {
		return "", c.BatchStartErr
	}
	c.nextID++
	id := fmt.Sprintf("batch-%d", c.nextID)
	c.batches[id] = urls
	return id, nil
}

func (c *FakeCrawler) BatchStatus(ctx context.Context, jobID string) (interfaces.BatchStatus, error) {
	urls, ok := c.batches[jobID]
	if !ok {
		return interfaces.BatchStatus{}, fmt.Errorf("unknown batch %s", jobID)
	}
	results := make([]interfaces.ScrapeResult, len(urls))
	for i, u := range urls {
		results[i] = c.scrapeOne(u)
	}
	return interfaces.BatchStatus{
		Status:    interfaces.BatchStatusCompleted,
		Completed: len(urls),
		Total:     len(urls),
		Data:      results,
	}, nil
}

func (c *FakeCrawler) BatchWait(ctx context.Context, jobID string, opts interfaces.BatchWaitOptions) (interfaces.BatchStatus, error) {
	return c.BatchStatus(ctx, jobID)
}

func (c *FakeCrawler) BatchCancel(ctx context.Context, jobID string) error {
	delete(c.batches, jobID)
	return nil
}

// AddHTMLPage registers a page from a raw HTML fixture rather than a
// hand-written markdown string: it extracts <a href> links (added to Links,
// deduplicated) via goquery, converts the body to Markdown via
// html-to-markdown, and stores the result for Scrape/BatchStart to serve.
func (c *FakeCrawler) AddHTMLPage(pageURL, html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse html fixture: %w", err)
	}

	seen := make(map[string]bool, len(c.Links))
	for _, l := range c.Links {
		seen[l] = true
	}
	if !seen[pageURL] {
		c.Links = append(c.Links, pageURL)
		seen[pageURL] = true
	}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" || seen[href] {
			return
		}
		seen[href] = true
		c.Links = append(c.Links, href)
	})

	converter := md.NewConverter(pageURL, true, nil)
	body, err := doc.Find("body").Html()
	if err != nil {
		return fmt.Errorf("extract body html: %w", err)
	}
	markdown, err := converter.ConvertString(body)
	if err != nil {
		return fmt.Errorf("convert html to markdown: %w", err)
	}

	c.Pages[pageURL] = markdown
	return nil
}

func (c *FakeCrawler) scrapeOne(url string) interfaces.ScrapeResult {
	key := url
	if _, ok := c.Pages[key]; !ok && !c.Missing[key] {
		if want, err := urlscope.Normalize(url); err == nil {
			registered := make([]string, 0, len(c.Pages)+len(c.Missing))
			for u := range c.Pages {
				registered = append(registered, u)
			}
			for u := range c.Missing {
				registered = append(registered, u)
			}
			for _, u := range registered {
				if got, err := urlscope.Normalize(u); err == nil && got == want {
					key = u
					break
				}
			}
		}
	}
	if c.Missing[key] {
		return interfaces.ScrapeResult{Success: false, Error: "404 not found", Data: interfaces.ScrapeData{URL: url, Metadata: interfaces.ScrapeMetadata{StatusCode: 404}}}
	}
	markdown, ok := c.Pages[key]
	if !ok {
		return interfaces.ScrapeResult{Success: false, Error: "unregistered url in fake crawler"}
	}
	return interfaces.ScrapeResult{
		Success: true,
		Data: interfaces.ScrapeData{
			URL:      url,
			Markdown: markdown,
			Metadata: interfaces.ScrapeMetadata{StatusCode: 200, SourceURL: url},
		},
	}
}
