// Package models defines data structures for the workshop scraper.
package models

import "time"

// ItemRef is a handle to one entry discovered on a listing page. It
// carries enough information to fetch the item's detail page and to
// report it by name.
type ItemRef struct {
	Name      string `json:"name"`
	DetailURL string `json:"detail_url"`
}

// WorkshopItem is the fully extracted record for one workshop item.
type WorkshopItem struct {
	Name        string    `csv:"name" json:"name"`
	Type        string    `csv:"type" json:"type"`
	DisplayType string    `csv:"display_type" json:"display_type"`
	Airframe    string    `csv:"airframe" json:"airframe"`
	Visitors    int       `csv:"visitors" json:"visitors"`
	Subscribers int       `csv:"subscribers" json:"subscribers"`
	Favorites   int       `csv:"favorites" json:"favorites"`
	Awards      int       `csv:"awards" json:"awards"`
	Comments    int       `csv:"comments" json:"comments"`
	Changes     int       `csv:"changes" json:"changes"`
	FileSize    string    `csv:"file_size" json:"file_size"`
	Uploaded    string    `csv:"uploaded" json:"uploaded"`
	Updated     string    `csv:"updated" json:"updated"`
	Description string    `csv:"description" json:"description"`
	URL         string    `csv:"url" json:"url"`
	ScrapedAt   time.Time `csv:"scraped_at" json:"scraped_at"`
}

// PendingItem records an item whose detail fetch failed or could not
// be attempted, together with where it was discovered. Origin page and
// index are copied by value so retry reporting never depends on live
// loop state.
type PendingItem struct {
	Ref   ItemRef `json:"ref"`
	Page  int     `json:"page"`
	Index int     `json:"index"`
}
