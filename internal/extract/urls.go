package extract

import (
	"regexp"
	"strconv"
	"time"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

// ListingSource tags records discovered from search pages.
const ListingSource = "zoopla"

const listingHost = "https://www.zoopla.co.uk"

var (
	absoluteListingRe = regexp.MustCompile(`https://www\.zoopla\.co\.uk/for-sale/details/(\d+)/[^"\s]*`)
	relativeListingRe = regexp.MustCompile(`/for-sale/details/(\d+)/[^"\s]*`)
	quotedListingRe   = regexp.MustCompile(`"url":\s*"([^"]*for-sale/details/\d+[^"]*)"`)
	listingIDRe       = regexp.MustCompile(`/for-sale/details/(\d+)/`)
)

// ListingURLs finds listing detail URLs in a search results body and
// returns one reference per listing id, in first-seen order.
func ListingURLs(body string, page int) []model.ListingRef {
	return listingURLsAt(body, page, time.Now())
}

func listingURLsAt(body string, page int, now time.Time) []model.ListingRef {
	var urls []string
	for _, m := range absoluteListingRe.FindAllString(body, -1) {
		urls = append(urls, m)
	}
	for _, m := range relativeListingRe.FindAllString(body, -1) {
		urls = append(urls, listingHost+m)
	}
	for _, m := range quotedListingRe.FindAllStringSubmatch(body, -1) {
		urls = append(urls, m[1])
	}

	seen := make(map[string]bool)
	var out []model.ListingRef
	for _, u := range urls {
		id := listingIDRe.FindStringSubmatch(u)
		if id == nil || seen[id[1]] {
			continue
		}
		seen[id[1]] = true
		out = append(out, model.ListingRef{
			Page:       strconv.Itoa(page),
			ScrapedAt:  now.Format(time.RFC3339),
			Source:     ListingSource,
			PropertyID: id[1],
			URL:        u,
		})
	}
	return out
}
