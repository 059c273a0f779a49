package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"workshop-scraper/config"
	"workshop-scraper/models"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ItemDelay = 0
	cfg.Timeout = 2 * time.Second
	return cfg
}

func newMockedClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	client, err := NewClient(testConfig(), "123456789")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	transport := httpmock.NewMockTransport()
	client.WithTransport(transport)
	return client, transport
}

const listingHTML = `
<html><body>
	<div class="workshopItem">
		<a href="https://steamcommunity.com/sharedfiles/filedetails/?id=1"></a>
		<div class="workshopItemTitle">Dawn Patrol</div>
	</div>
	<div class="workshopItem">
		<a href="https://steamcommunity.com/sharedfiles/filedetails/?id=2"></a>
		<div class="workshopItemTitle">Night Raid</div>
	</div>
</body></html>`

func TestClientRejectsEmptySeed(t *testing.T) {
	if _, err := NewClient(testConfig(), ""); err == nil {
		t.Fatalf("expected error for empty seed")
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		name string
		seed string
		page int
		want string
	}{
		{
			name: "numeric seed uses profiles path",
			seed: "123456789",
			page: 1,
			want: "https://steamcommunity.com/profiles/123456789/myworkshopfiles/?appid=2168680&p=1",
		},
		{
			name: "vanity seed uses id path",
			seed: "nuclearpilot",
			page: 7,
			want: "https://steamcommunity.com/id/nuclearpilot/myworkshopfiles/?appid=2168680&p=7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(testConfig(), tt.seed)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			if got := client.PageURL(tt.page); got != tt.want {
				t.Errorf("PageURL(%d) = %q, want %q", tt.page, got, tt.want)
			}
		})
	}
}

func TestFetchListing(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder("GET", client.PageURL(1),
		httpmock.NewStringResponder(200, listingHTML))

	refs, err := client.FetchListing(context.Background(), 1)
	if err != nil {
		t.Fatalf("fetch listing: %v", err)
	}
	want := []models.ItemRef{
		{Name: "Dawn Patrol", DetailURL: "https://steamcommunity.com/sharedfiles/filedetails/?id=1"},
		{Name: "Night Raid", DetailURL: "https://steamcommunity.com/sharedfiles/filedetails/?id=2"},
	}
	if len(refs) != len(want) {
		t.Fatalf("got %d refs, want %d", len(refs), len(want))
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("refs[%d] = %+v, want %+v", i, refs[i], want[i])
		}
	}
}

func TestFetchListingEmptyPage(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder("GET", client.PageURL(3),
		httpmock.NewStringResponder(200, "<html><body></body></html>"))

	refs, err := client.FetchListing(context.Background(), 3)
	if err != nil {
		t.Fatalf("fetch listing: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("got %d refs, want 0 as the end-of-pages signal", len(refs))
	}
}

func TestFetchListingErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
		check     func(error) bool
		label     string
	}{
		{
			name:      "429 classified as rate limited",
			responder: httpmock.NewStringResponder(429, "too many requests"),
			check:     IsRateLimited,
			label:     "rate_limited",
		},
		{
			name:      "500 classified as fatal",
			responder: httpmock.NewStringResponder(500, "internal server error"),
			check:     IsFatal,
			label:     "fatal_http",
		},
		{
			name:      "connection failure classified as transient",
			responder: httpmock.NewErrorResponder(errors.New("connection refused")),
			check: func(err error) bool {
				var transient ErrTransient
				return errors.As(err, &transient)
			},
			label: "transient",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport := newMockedClient(t)
			transport.RegisterResponder("GET", client.PageURL(1), tt.responder)

			_, err := client.FetchListing(context.Background(), 1)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !tt.check(err) {
				t.Errorf("classification check failed for %v", err)
			}
			if got := Label(err); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestFetchListingCancelledContext(t *testing.T) {
	client, _ := newMockedClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchListing(ctx, 1)
	var transient ErrTransient
	if !errors.As(err, &transient) {
		t.Fatalf("cancelled context error = %v, want transient", err)
	}
}

func TestFetchListingCancelledMidFlight(t *testing.T) {
	client, transport := newMockedClient(t)

	release := make(chan struct{})
	transport.RegisterResponder("GET", client.PageURL(1),
		func(*http.Request) (*http.Response, error) {
			<-release
			return httpmock.NewStringResponse(200, "<html></html>"), nil
		})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(30*time.Millisecond, cancel)

	start := time.Now()
	_, err := client.FetchListing(ctx, 1)

	var transient ErrTransient
	if !errors.As(err, &transient) {
		t.Fatalf("mid-flight cancellation error = %v, want transient", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error should carry the context cause: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("fetch returned after %v, cancellation was not observed in flight", elapsed)
	}
}

func TestFetchDetail(t *testing.T) {
	detailHTML := `
<html><body>
	<div class="rightDetailsBlock"><a>Mission</a></div>
	<table class="stats_table">
		<tr><td>1,500</td><td>Unique Visitors</td></tr>
		<tr><td>42</td><td>Current Subscribers</td></tr>
	</table>
	<div id="highlightContent" class="workshopItemDescription">Strike the depot.</div>
</body></html>`

	client, transport := newMockedClient(t)
	ref := models.ItemRef{
		Name:      "Depot Strike",
		DetailURL: "https://steamcommunity.com/sharedfiles/filedetails/?id=42",
	}
	transport.RegisterResponder("GET", ref.DetailURL,
		httpmock.NewStringResponder(200, detailHTML))

	detail, err := client.FetchDetail(context.Background(), ref)
	if err != nil {
		t.Fatalf("fetch detail: %v", err)
	}
	if detail.Type != "Mission" {
		t.Errorf("Type = %q, want Mission", detail.Type)
	}
	if detail.Visitors != 1500 {
		t.Errorf("Visitors = %d, want 1500", detail.Visitors)
	}
	if detail.Subscribers != 42 {
		t.Errorf("Subscribers = %d, want 42", detail.Subscribers)
	}
	if detail.Description != "Strike the depot." {
		t.Errorf("Description = %q", detail.Description)
	}
}

func TestFetchDetailRateLimited(t *testing.T) {
	client, transport := newMockedClient(t)
	ref := models.ItemRef{
		Name:      "Depot Strike",
		DetailURL: "https://steamcommunity.com/sharedfiles/filedetails/?id=42",
	}
	transport.RegisterResponder("GET", ref.DetailURL,
		httpmock.NewStringResponder(429, "too many requests"))

	_, err := client.FetchDetail(context.Background(), ref)
	if !IsRateLimited(err) {
		t.Fatalf("error = %v, want rate limited", err)
	}
}
