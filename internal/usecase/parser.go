package usecase

import (
	"github.com/user/profile-crawler/internal/dom"
	"github.com/user/profile-crawler/internal/entity"
)

// Selectors locate the listing cards and the fields of a detail page.
type Selectors struct {
	ProfileLink string
	Name        string
	Phone       string
	About       string
}

// DefaultSelectors match the markup of the source site.
func DefaultSelectors() Selectors {
	return Selectors{
		ProfileLink: "a.girl-card",
		Name:        "h1",
		Phone:       "a[href^='tel:']",
		About:       ".about",
	}
}

// ParseResult is a parsed profile plus the fields the page did not have.
type ParseResult struct {
	Profile     entity.Profile
	NameMissing bool
	Missing     []string
}

// ParseProfile extracts the fixed profile fields from a detail page. It never
// fails: absent elements become empty strings and are listed in Missing.
func ParseProfile(page *dom.Page, url string, sel Selectors) ParseResult {
	res := ParseResult{Profile: entity.Profile{URL: url}}

	var ok bool
	if res.Profile.Name, ok = page.Text(sel.Name); !ok {
		res.NameMissing = true
		res.Missing = append(res.Missing, "name")
	}
	if res.Profile.Phone, ok = page.Text(sel.Phone); !ok {
		res.Missing = append(res.Missing, "phone")
	}
	if res.Profile.About, ok = page.Text(sel.About); !ok {
		res.Missing = append(res.Missing, "about")
	}
	return res
}
