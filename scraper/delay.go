package scraper

import "time"

// PageDelay returns the politeness delay applied immediately before
// fetching a listing page. Deeper pages wait longer to stay clear of
// the upstream rate limiter.
func PageDelay(page int) time.Duration {
	switch {
	case page > 15:
		return 3 * time.Second
	case page > 10:
		return 2500 * time.Millisecond
	case page > 5:
		return 2 * time.Second
	default:
		return time.Second
	}
}
