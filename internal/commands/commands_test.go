package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dayview/internal/layout"
	"dayview/internal/model"
)

const testEvents = `events:
  - title: Standup
    start: "2024-05-14 09:00"
    end: "2024-05-14 09:30"
  - title: Design review
    start: "2024-05-14 09:15"
    end: "2024-05-14 10:00"
  - title: Tomorrow
    start: "2024-05-15 09:00"
    end: "2024-05-15 10:00"
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	events := filepath.Join(dir, "events.yaml")
	if err := os.WriteFile(events, []byte(testEvents), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := "cache_dir: " + filepath.Join(dir, "cache") + "\n" +
		"log_level: error\n" +
		"width: 359\n" +
		"left_margin: 59\n" +
		"window:\n  start_hour: 8\n  end_hour: 12\n" +
		"sources:\n  - id: file\n    path: " + events + "\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLayoutJSON(t *testing.T) {
	path := writeConfig(t)
	out, err := run(t, "--config", path, "layout", "--date", "2024-5-14", "--json")
	if err != nil {
		t.Fatalf("layout: %v\n%s", err, out)
	}

	var got struct {
		Date   string          `json:"date"`
		Events []model.Event   `json:"events"`
		Layout []layout.Record `json:"layout"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, out)
	}
	if got.Date != "2024-05-14" || len(got.Events) != 2 || len(got.Layout) != 2 {
		t.Fatalf("got %+v", got)
	}

	type geom struct{ Top, Left, Width float64 }
	want := []geom{{100, 0, 150}, {125, 150, 150}}
	gotGeom := []geom{}
	for _, r := range got.Layout {
		gotGeom = append(gotGeom, geom{r.Top, r.Left, r.Width})
	}
	if diff := cmp.Diff(want, gotGeom); diff != "" {
		t.Errorf("geometry mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutTable(t *testing.T) {
	path := writeConfig(t)
	out, err := run(t, "--config", path, "layout", "--date", "2024-5-14", "--width", "459")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	for _, want := range []string{"TITLE", "Standup", "Design review", "1/2", "2/2", "200.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestLayoutRejectsNarrowWidth(t *testing.T) {
	path := writeConfig(t)
	if _, err := run(t, "--config", path, "layout", "--width", "30"); err == nil {
		t.Error("expected error for width inside the label margin")
	}
}

func TestRenderTerm(t *testing.T) {
	path := writeConfig(t)
	out, err := run(t, "--config", path, "render", "--format", "term", "--date", "2024-5-14", "--columns", "30")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 16 {
		t.Errorf("got %d rows, want 16", len(lines))
	}
	if !strings.Contains(out, "Standup") || !strings.Contains(out, "09:00") {
		t.Errorf("unexpected grid:\n%s", out)
	}
}

func TestRenderSVGToFile(t *testing.T) {
	path := writeConfig(t)
	dest := filepath.Join(t.TempDir(), "day.svg")
	if _, err := run(t, "--config", path, "render", "--format", "svg", "--date", "2024-5-14", "--out", dest); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`data-ready="true"`)) || !bytes.Contains(data, []byte("Design review")) {
		t.Errorf("unexpected svg:\n%s", data)
	}

	if _, err := run(t, "--config", path, "render", "--format", "png"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestDayOptions(t *testing.T) {
	now := time.Date(2024, 5, 14, 15, 30, 0, 0, time.Local)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", time.Date(2024, 5, 14, 0, 0, 0, 0, time.Local)},
		{"2023-12-1", time.Date(2023, 12, 1, 0, 0, 0, 0, time.Local)},
		{"6/2", time.Date(2024, 6, 2, 0, 0, 0, 0, time.Local)},
	}
	for _, tt := range tests {
		o := DayOptions{Date: tt.in}
		got, err := o.GetDay(now)
		if err != nil {
			t.Errorf("GetDay(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("GetDay(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	o := DayOptions{Date: "tomorrow"}
	if _, err := o.GetDay(now); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestWidthOptions(t *testing.T) {
	if got := (&WidthOptions{}).Apply(390); got != 390 {
		t.Errorf("default = %v", got)
	}
	if got := (&WidthOptions{Width: 600}).Apply(390); got != 600 {
		t.Errorf("override = %v", got)
	}
}
