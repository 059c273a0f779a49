// Package parser extracts structured fields from workshop listing and
// detail pages.
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"workshop-scraper/models"
)

// Listing extracts the item stubs from one listing page. An empty
// result is the end-of-pages signal, not an error.
func Listing(doc *goquery.Document) []models.ItemRef {
	var refs []models.ItemRef
	doc.Find(".workshopItem").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Find(".workshopItemTitle").First().Text())
		if name == "" {
			name = "Unknown"
		}
		href, ok := sel.Find("a").First().Attr("href")
		if !ok || href == "" {
			return
		}
		refs = append(refs, models.ItemRef{Name: name, DetailURL: href})
	})
	return refs
}
