package entity

import "time"

// Profile mirrors the `profiles` table. URL is the unique key; a profile is
// written once and never updated.
type Profile struct {
	URL       string
	Name      string // empty when the detail page has no heading
	Phone     string // empty when the page has no telephone link
	About     string // empty when the page has no about block
	ScrapedAt time.Time
}
