// Package crawler walks a Pure-style research portal breadth-first: the
// seed organisation page for author profiles, each profile listing (with
// pagination) for publications, and each publication page for its abstract
// and keywords. Fetches share a global rate limiter and honor robots.txt.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gcbaptista/pubsearch/config"
	"github.com/gcbaptista/pubsearch/model"
)

// Publication is one crawled record before it is stored.
type Publication struct {
	Title           string
	Authors         []string
	Year            string
	Abstract        string
	Keywords        []string
	PublicationLink string
	ProfileLink     string
}

// ToModel converts the record to a storable publication row.
func (p Publication) ToModel() *model.Publication {
	return &model.Publication{
		Title:           p.Title,
		Authors:         model.JoinList(p.Authors),
		Year:            p.Year,
		Abstract:        p.Abstract,
		Keywords:        model.JoinList(p.Keywords),
		PublicationLink: p.PublicationLink,
		ProfileLink:     p.ProfileLink,
	}
}

// Document builds the field map handed to the index, keeping authors and
// keywords as lists.
func (p Publication) Document() model.Document {
	year := p.Year
	if year == "" {
		year = "N/A"
	}
	doc := model.Document{
		"title":    model.String(p.Title),
		"authors":  model.List(p.Authors...),
		"year":     model.String(year),
		"abstract": model.String(p.Abstract),
		"keywords": model.List(p.Keywords...),
	}
	if p.PublicationLink != "" {
		doc["publication_link"] = model.String(p.PublicationLink)
	}
	if p.ProfileLink != "" {
		doc["profile_link"] = model.String(p.ProfileLink)
	}
	return doc
}

// LinkChecker reports whether a publication link is already stored. The
// crawler skips detail pages for links it has seen before.
type LinkChecker interface {
	HasPublicationLink(ctx context.Context, link string) (bool, error)
}

// ProgressFunc receives crawl progress messages.
type ProgressFunc func(message string)

// Crawler fetches and extracts publications from a research portal.
type Crawler struct {
	cfg      config.CrawlerConfig
	store    LinkChecker
	client   *http.Client
	limiter  *rate.Limiter
	progress ProgressFunc
}

// New builds a crawler for the configured portal. progress may be nil.
func New(cfg config.CrawlerConfig, store LinkChecker, progress ProgressFunc) *Crawler {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 0.5
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Crawler{
		cfg:      cfg,
		store:    store,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		progress: progress,
	}
}

func (c *Crawler) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("crawler: %s", msg)
	if c.progress != nil {
		c.progress(msg)
	}
}

// fetch retrieves one page, waiting on the shared rate limiter first.
func (c *Crawler) fetch(ctx context.Context, pageURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pageURL, err)
	}
	return string(body), nil
}

// Crawl runs the three-level walk and returns the newly discovered
// publications along with the number of profiles visited. Publications whose
// links are already stored are skipped. The context cancels the crawl
// between fetches.
func (c *Crawler) Crawl(ctx context.Context) ([]Publication, int, error) {
	seed, err := url.Parse(c.cfg.SeedURL)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing seed URL: %w", err)
	}

	if !c.robotsAllowed(ctx, seed) {
		return nil, 0, errors.New("crawling disallowed by robots.txt")
	}

	c.logf("Discovering author profiles at %s", seed)
	page, err := c.fetch(ctx, seed.String())
	if err != nil {
		return nil, 0, err
	}

	profiles := extractProfileLinks(page, seed)
	if c.cfg.MaxProfiles > 0 && len(profiles) > c.cfg.MaxProfiles {
		profiles = profiles[:c.cfg.MaxProfiles]
	}
	c.logf("Found %d profiles", len(profiles))

	results := &collector{limit: c.cfg.MaxProfiles * c.cfg.MaxPublications}

	workers := c.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, profileURL := range profiles {
		i, profileURL := i, profileURL // per-iteration copies for the goroutine (pre-1.22 toolchain)
		g.Go(func() error {
			if results.full() {
				return nil
			}
			results.visit()
			c.logf("[%d/%d] Crawling profile %s", i+1, len(profiles), profileURL)

			pubs, err := c.crawlProfile(gctx, profileURL)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				// a broken profile page should not sink the whole crawl
				c.logf("Skipping profile %s: %v", profileURL, err)
				return nil
			}
			results.add(pubs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results.pubs, results.visited, err
	}

	c.logf("Crawl complete: %d new publications from %d profiles", len(results.pubs), results.visited)
	return results.pubs, results.visited, nil
}

// crawlProfile reads every listing page of one profile and then scrapes the
// detail page of each publication not yet in the store.
func (c *Crawler) crawlProfile(ctx context.Context, profileURL string) ([]Publication, error) {
	base, err := url.Parse(profileURL)
	if err != nil {
		return nil, fmt.Errorf("parsing profile URL: %w", err)
	}

	page, err := c.fetch(ctx, profileURL)
	if err != nil {
		return nil, err
	}
	author := extractAuthorName(page)

	var metas []Publication
	for {
		metas = append(metas, extractPublications(page, base, author)...)
		if len(metas) >= c.cfg.MaxPublications {
			break
		}

		next := extractNextLink(page, base)
		if next == "" {
			break
		}
		c.logf("  next page: %s", next)

		page, err = c.fetch(ctx, next)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			break
		}
	}

	pubs := make([]Publication, 0, len(metas))
	for _, meta := range metas {
		known, err := c.store.HasPublicationLink(ctx, meta.PublicationLink)
		if err != nil {
			return nil, fmt.Errorf("checking publication link: %w", err)
		}
		if known {
			c.logf("  already indexed: %s", truncate(meta.Title, 50))
			continue
		}

		c.logf("  scraping: %s", truncate(meta.Title, 50))
		detail, err := c.fetch(ctx, meta.PublicationLink)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return pubs, err
			}
			// keep the listing metadata even when the detail page is down
			c.logf("  failed to fetch %s: %v", meta.PublicationLink, err)
			pubs = append(pubs, meta)
			continue
		}

		meta.Abstract = extractAbstract(detail)
		meta.Keywords = extractKeywords(detail)
		pubs = append(pubs, meta)
	}
	return pubs, nil
}

// collector accumulates results from concurrent profile workers.
type collector struct {
	mu      sync.Mutex
	limit   int
	pubs    []Publication
	visited int
}

func (c *collector) visit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visited++
}

func (c *collector) add(pubs []Publication) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range pubs {
		if c.limit > 0 && len(c.pubs) >= c.limit {
			return
		}
		c.pubs = append(c.pubs, p)
	}
}

func (c *collector) full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limit > 0 && len(c.pubs) >= c.limit
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
