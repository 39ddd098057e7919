package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/01moynul/workshop-logistics/internal/models"
	"github.com/xuri/excelize/v2"
)

func sampleRequests() []models.Request {
	file := "abc-quote.pdf"
	created := time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)
	return []models.Request{
		{
			ID: 2, CreatedAt: created,
			User: &models.User{Name: "Alice", Email: "alice@x.com", TeamName: "Finance"},
			Items: []models.Item{
				{Name: "Laptop", Description: "x", Quantity: 2, Price: 50.5, Source: "VendorA", SampleFile: &file},
				{Name: "Mouse", Description: "y", Quantity: 1, Price: 0, Source: "VendorB"},
				{Name: "Bag", Description: "z", Quantity: 3, Price: 12, Source: "VendorC"},
			},
		},
		{
			ID: 1, CreatedAt: created.Add(-time.Hour),
			User:  &models.User{Name: "Bob", Email: "bob@x.com", TeamName: "Ops"},
			Items: []models.Item{{Name: "Chair", Description: "c", Quantity: 4, Price: 9.99, Source: "Store"}},
		},
		{ID: 3, CreatedAt: created, User: &models.User{Name: "Empty"}, Items: []models.Item{}},
	}
}

func fakeLink(name string) (string, error) {
	return "https://files.example/uploads/" + name + "?sig=t", nil
}

func TestRowsOnePerItem(t *testing.T) {
	rows, err := Rows(sampleRequests(), fakeLink)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows got %d", len(rows))
	}
	for _, r := range rows {
		if len(r) != len(Columns) {
			t.Fatalf("row width %d != %d", len(r), len(Columns))
		}
	}
	if rows[0][0] != int64(2) || rows[0][1] != "Alice" || rows[0][5] != "Laptop" {
		t.Fatalf("unexpected first row %v", rows[0])
	}
	if rows[0][10] != "https://files.example/uploads/abc-quote.pdf?sig=t" {
		t.Fatalf("unexpected sample link %v", rows[0][10])
	}
	if rows[1][10] != "" {
		t.Fatalf("item without file must have empty link, got %v", rows[1][10])
	}
	if rows[3][1] != "Bob" {
		t.Fatalf("request order not preserved: %v", rows[3])
	}
}

func TestRowsPropagatesLinkError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Rows(sampleRequests(), func(string) (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected link error, got %v", err)
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleRequests(), fakeLink); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(rows))
	}
	for i, c := range Columns {
		if rows[0][i] != c {
			t.Fatalf("column %d: want %q got %q", i, c, rows[0][i])
		}
	}
	if rows[1][5] != "Laptop" || rows[1][2] != "alice@x.com" || rows[1][7] != "2" {
		t.Fatalf("unexpected data row %v", rows[1])
	}
}
