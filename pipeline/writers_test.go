package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"workshop-scraper/models"
)

func sampleItem() *models.WorkshopItem {
	return &models.WorkshopItem{
		Name:        "Dawn Patrol",
		Type:        "Mission",
		DisplayType: "custom mission",
		Visitors:    1200,
		Subscribers: 80,
		Favorites:   12,
		FileSize:    "1.912MB",
		Uploaded:    "3 Aug, 2023, 4:12pm",
		Updated:     "9 Feb, 2024, 11:03am",
		Description: "A night raid over the strait.",
		URL:         "https://example.test/filedetails/?id=1",
		ScrapedAt:   time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "workshop.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("new csv writer: %v", err)
	}
	if err := w.Write([]*models.WorkshopItem{sampleItem()}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header plus one record", len(rows))
	}
	if rows[0][0] != "name" || rows[0][len(rows[0])-1] != "scraped_at" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "Dawn Patrol" {
		t.Errorf("record name = %q", rows[1][0])
	}
	if rows[1][2] != "custom mission" {
		t.Errorf("record display type = %q", rows[1][2])
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workshop.jsonl")

	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("new json writer: %v", err)
	}
	if err := w.Write([]*models.WorkshopItem{sampleItem(), sampleItem()}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var decoded models.WorkshopItem
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if decoded.Name != "Dawn Patrol" || decoded.URL != "https://example.test/filedetails/?id=1" {
		t.Errorf("decoded record = %+v", decoded)
	}
}

func TestDualWriterFansOut(t *testing.T) {
	dir := t.TempDir()
	dual, err := NewDualWriter(filepath.Join(dir, "out.csv"), filepath.Join(dir, "out.jsonl"))
	if err != nil {
		t.Fatalf("new dual writer: %v", err)
	}
	if err := dual.Write([]*models.WorkshopItem{sampleItem()}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := dual.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := dual.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, name := range []string{"out.csv", "out.jsonl"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}
