package handlers

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/01moynul/workshop-logistics/internal/models"
)

func TestLogOrphansReportsWrittenFiles(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	first, second := "a-quote.pdf", "b-photo.jpg"
	logOrphans([]models.Item{
		{Name: "A", SampleFile: &first},
		{Name: "B"},
		{Name: "C", SampleFile: &second},
	}, "failed upload")

	out := buf.String()
	if !strings.Contains(out, "failed upload: a-quote.pdf") || !strings.Contains(out, "failed upload: b-photo.jpg") {
		t.Fatalf("missing orphan lines in %q", out)
	}
	if n := strings.Count(out, "orphaned upload"); n != 2 {
		t.Fatalf("expected 2 orphan lines, got %d", n)
	}
}
