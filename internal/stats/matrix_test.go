package stats

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/verte-zerg/nbtscore/internal/model"
)

func deathsOnly() *model.Stats {
	return model.NewStats(
		map[string]model.Objective{
			"deaths": {CriteriaName: "deathCount", DisplayName: "Deaths", RenderType: "integer"},
		},
		map[string][]model.PlayerScore{
			"deaths": {{PlayerName: "Alice", Score: 3}},
		},
	)
}

func killsAndDeaths() *model.Stats {
	return model.NewStats(
		map[string]model.Objective{
			"deaths": {CriteriaName: "deathCount", DisplayName: "Deaths"},
			"kills":  {CriteriaName: "playerKillCount", DisplayName: "Kills"},
		},
		map[string][]model.PlayerScore{
			"deaths": {
				{PlayerName: "Bob", Score: 2},
				{PlayerName: "Alice", Score: 3},
				{PlayerName: "Bob", Score: 9},
			},
			"orphan": {{PlayerName: "Carol", Score: 1}},
		},
	)
}

func TestWriteCSVSingleObjective(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, deathsOnly()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if got, want := buf.String(), "Players,Deaths\nAlice,3\n"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWriteCSVFillsMissingScores(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, killsAndDeaths()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	want := strings.Join([]string{
		"Players,Deaths,Kills",
		"Alice,3,0",
		"Bob,2,0",
		"Carol,0,0",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("unexpected csv:\n%s", got)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, model.NewStats(nil, nil)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if got := buf.String(); got != "Players\n" {
		t.Fatalf("expected header only, got %q", got)
	}
}

func TestWriteCSVQuotesFields(t *testing.T) {
	st := model.NewStats(
		map[string]model.Objective{"k": {DisplayName: "Kills, total"}},
		map[string][]model.PlayerScore{"k": {{PlayerName: "A", Score: -1}}},
	)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, st); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if got, want := buf.String(), "Players,\"Kills, total\"\nA,-1\n"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWriteCSVIsDeterministic(t *testing.T) {
	var first bytes.Buffer
	if err := WriteCSV(&first, killsAndDeaths()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	for i := 0; i < 20; i++ {
		var next bytes.Buffer
		if err := WriteCSV(&next, killsAndDeaths()); err != nil {
			t.Fatalf("write csv: %v", err)
		}
		if next.String() != first.String() {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, next.String(), first.String())
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteCSVPropagatesWriteErrors(t *testing.T) {
	err := WriteCSV(failingWriter{}, deathsOnly())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestBuildMatrixObjectiveOrder(t *testing.T) {
	m := BuildMatrix(killsAndDeaths())
	if got := strings.Join(m.Objectives, ","); got != "deaths,kills" {
		t.Fatalf("unexpected objective order %q", got)
	}
	if len(m.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(m.Rows))
	}
}
