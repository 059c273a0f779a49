package parser

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Sentinels used when a detail page is missing optional data.
const (
	UnknownValue  = "Unknown"
	UnknownSize   = "? KB"
	NoDescription = "No description."
)

// Detail holds the raw fields extracted from one item detail page.
// Extraction never fails on missing data; every field falls back to
// its documented default instead.
type Detail struct {
	Type        string
	Airframe    string
	Visitors    int
	Subscribers int
	Favorites   int
	Awards      int
	Comments    int
	Changes     int
	FileSize    string
	Uploaded    string
	Updated     string
	Description string
}

// ExtractDetail pulls all stat fields from a detail page document.
func ExtractDetail(doc *goquery.Document) Detail {
	d := Detail{
		Type:        itemType(doc),
		Visitors:    parseCount(stat(doc, "Unique Visitors")),
		Subscribers: parseCount(stat(doc, "Current Subscribers")),
		Favorites:   parseCount(stat(doc, "Current Favorites")),
		Awards:      awardTotal(doc),
		Comments:    parseCount(commentCount(doc)),
		Changes:     parseCount(changeCount(doc)),
		Description: description(doc),
	}

	size, posted, updated := fileInfo(doc)
	d.FileSize = strings.ReplaceAll(size, " ", "")
	d.Uploaded = FixDate(posted)
	d.Updated = FixDate(updated)

	if d.Type == "Aircraft Livery" {
		d.Airframe = Airframe(d.Description)
	}
	return d
}

// DisplayType derives the human-facing type label. A raw "Mission" is
// reported as a custom mission; liveries are qualified with the
// airframe when one could be inferred.
func DisplayType(rawType, airframe string) string {
	switch rawType {
	case "Mission":
		return "custom mission"
	case "Aircraft Livery":
		if airframe != "" && airframe != UnknownValue {
			return airframe + " livery"
		}
		return "livery"
	default:
		return "unknown"
	}
}

// stat walks the stats table for the row whose label cell matches.
func stat(doc *goquery.Document, label string) string {
	value := "0"
	doc.Find("table.stats_table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return true
		}
		if strings.Contains(cells.Eq(1).Text(), label) {
			value = strings.TrimSpace(cells.Eq(0).Text())
			return false
		}
		return true
	})
	return value
}

// awardTotal sums the reaction counts across all award badges.
func awardTotal(doc *goquery.Document) int {
	total := 0
	doc.Find(".review_award_ctn .review_award").Each(func(_ int, sel *goquery.Selection) {
		raw, ok := sel.Attr("data-reactioncount")
		if !ok {
			return
		}
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			total += n
		}
	})
	return total
}

func itemType(doc *goquery.Document) string {
	text := strings.TrimSpace(doc.Find(".rightDetailsBlock a").First().Text())
	if text == "" {
		return UnknownValue
	}
	return text
}

func commentCount(doc *goquery.Document) string {
	text := strings.TrimSpace(doc.Find(".commentthread_header_and_count .commentthread_count_label span").First().Text())
	if text == "" {
		return "0"
	}
	return text
}

// fileInfo reads size, upload date, and update date from the right
// details column. The update date defaults to the upload date when
// the page only lists two stat rows.
func fileInfo(doc *goquery.Document) (size, posted, updated string) {
	size, posted, updated = UnknownSize, UnknownValue, UnknownValue

	stats := doc.Find(".detailsStatsContainerRight .detailsStatRight")
	if stats.Length() < 2 {
		return size, posted, updated
	}

	size = strings.TrimSpace(stats.Eq(0).Text())
	posted = strings.TrimSpace(stats.Eq(1).Text())
	updated = posted
	if stats.Length() >= 3 {
		updated = strings.TrimSpace(stats.Eq(2).Text())
	}
	return size, posted, updated
}

// changeCount reads the leading count from the change notes line,
// e.g. "5 Change Notes ( view )". Anything without the "( view )"
// suffix is treated as no recorded changes.
func changeCount(doc *goquery.Document) string {
	text := strings.TrimSpace(doc.Find(".detailsStatNumChangeNotes").First().Text())
	if text == "" || !strings.HasSuffix(text, "( view )") {
		return "0"
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "0"
	}
	return fields[0]
}

func description(doc *goquery.Document) string {
	text := strings.TrimSpace(doc.Find("#highlightContent.workshopItemDescription").First().Text())
	if text == "" {
		return NoDescription
	}
	return text
}

// parseCount converts a display count like "1,234" to an int,
// defaulting to zero on anything unparseable.
func parseCount(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
