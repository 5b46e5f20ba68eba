package links

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/apex/log"
	"github.com/gocolly/colly/v2"
)

// Extractor collects the URLs to probe from one listing page.
type Extractor struct {
	ListingPath string
	Selector    string
	MaxLinks    int
	UserAgent   string
	Timeout     time.Duration
	Log         log.Interface
}

// Extract fetches base+ListingPath and returns up to MaxLinks absolute hrefs
// matched by Selector, in document order, skipping the ones in exclude.
// Fetch errors are returned as is.
func (x *Extractor) Extract(ctx context.Context, base string, exclude map[string]bool) ([]string, error) {
	base = strings.TrimSuffix(base, "/")
	listing := base + x.ListingPath

	col, err := x.prepareCrawler()
	if err != nil {
		return nil, fmt.Errorf("initializing crawler for %s: %w", listing, err)
	}

	col.OnRequest(func(request *colly.Request) {
		abortRequestOnContext(ctx, request)
	})
	col.OnResponseHeaders(func(response *colly.Response) {
		abortRequestOnContext(ctx, response.Request)
	})

	var urls []string
	col.OnHTML("html", func(e *colly.HTMLElement) {
		urls = collectLinks(e.DOM, x.Selector, e.Request.AbsoluteURL, exclude, x.MaxLinks)
	})

	err = col.Visit(listing)
	col.Wait()
	// an aborted request is not reported by Visit
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("crawling %s: %w", listing, err)
	}

	if x.Log != nil {
		x.Log.WithField("listing", listing).WithField("links", len(urls)).Info("collected urls")
	}
	return urls, nil
}

func (x *Extractor) prepareCrawler() (*colly.Collector, error) {
	col := colly.NewCollector(
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
		colly.UserAgent(x.UserAgent),
	)
	err := col.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
	})
	if err != nil {
		return nil, err
	}
	if x.Timeout > 0 {
		col.SetRequestTimeout(x.Timeout)
	}
	return col, nil
}

func abortRequestOnContext(ctx context.Context, request *colly.Request) {
	select {
	case <-ctx.Done():
		request.Abort()
	default:
	}
}

// collectLinks walks the elements matching selector under doc. resolve turns
// an href into an absolute URL and returns "" for hrefs it cannot resolve.
func collectLinks(doc *goquery.Selection, selector string, resolve func(string) string, exclude map[string]bool, max int) []string {
	urls := make([]string, 0)
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		href = strings.TrimSpace(href)
		abs := resolve(href)
		if abs == "" || exclude[href] || exclude[abs] {
			return true
		}
		urls = append(urls, abs)
		return len(urls) < max
	})
	return urls
}
