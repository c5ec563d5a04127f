package usecase

import "github.com/user/profile-crawler/internal/dom"

// DiscoverLinks returns the absolute targets of every profile card anchor on
// the listing page, in document order. Duplicates are kept since the dedup
// check absorbs them; a page without cards yields an empty slice.
func DiscoverLinks(listing *dom.Page, cardSelector string) []string {
	return listing.Links(cardSelector)
}
