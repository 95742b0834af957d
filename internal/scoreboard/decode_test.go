package scoreboard

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/verte-zerg/nbtscore/internal/model"
	"github.com/verte-zerg/nbtscore/internal/nbt"
)

func objectiveTag(name, displayName string) nbt.Compound {
	return nbt.Compound{
		"Name":                nbt.String(name),
		"CriteriaName":        nbt.String("dummy"),
		"display_auto_update": nbt.Byte(0),
		"DisplayName":         nbt.String(displayName),
		"RenderType":          nbt.String("integer"),
	}
}

func scoreTag(objective, player string, score nbt.Tag) nbt.Compound {
	return nbt.Compound{
		"Objective": nbt.String(objective),
		"Locked":    nbt.Byte(0),
		"Name":      nbt.String(player),
		"Score":     score,
	}
}

func scoreboardTree(objectives, scores []nbt.Tag) nbt.Compound {
	return nbt.Compound{
		"DataVersion": nbt.Int(3700),
		"data": nbt.Compound{
			"Objectives":   nbt.List{Elem: nbt.KindCompound, Items: objectives},
			"PlayerScores": nbt.List{Elem: nbt.KindCompound, Items: scores},
			"Teams":        nbt.List{Elem: nbt.KindEnd},
		},
	}
}

func TestDecodeExample(t *testing.T) {
	root := scoreboardTree(
		[]nbt.Tag{nbt.Compound{
			"Name":                nbt.String("deaths"),
			"CriteriaName":        nbt.String("minecraft.custom:deaths"),
			"display_auto_update": nbt.Byte(0),
			"DisplayName":         nbt.String(`"Deaths"`),
			"RenderType":          nbt.String("integer"),
		}},
		[]nbt.Tag{scoreTag("deaths", "Alice", nbt.Int(3))},
	)
	st, err := Decode(root)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	obj, ok := st.Objective("deaths")
	if !ok {
		t.Fatalf("expected deaths objective")
	}
	want := model.Objective{
		CriteriaName:      "minecraft.custom:deaths",
		DisplayAutoUpdate: 0,
		DisplayName:       "Deaths",
		RenderType:        "integer",
	}
	if obj != want {
		t.Fatalf("expected %+v, got %+v", want, obj)
	}
	scores := st.Scores("deaths")
	if len(scores) != 1 || scores[0] != (model.PlayerScore{Locked: 0, PlayerName: "Alice", Score: 3}) {
		t.Fatalf("unexpected scores: %+v", scores)
	}
}

func TestDecodeWidensScores(t *testing.T) {
	widths := []nbt.Tag{nbt.Byte(5), nbt.Short(5), nbt.Int(5), nbt.Long(5)}
	for _, score := range widths {
		root := scoreboardTree(nil, []nbt.Tag{scoreTag("kills", "bob", score)})
		st, err := Decode(root)
		if err != nil {
			t.Fatalf("decode %s: %v", score.Kind(), err)
		}
		if got, _ := st.ScoreFor("kills", "bob"); got != 5 {
			t.Fatalf("expected 5 from %s, got %d", score.Kind(), got)
		}
	}
	root := scoreboardTree(nil, []nbt.Tag{scoreTag("kills", "bob", nbt.Long(-1<<40))})
	st, err := Decode(root)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, _ := st.ScoreFor("kills", "bob"); got != -1<<40 {
		t.Fatalf("expected long score preserved, got %d", got)
	}
}

func TestDecodeStringScoreIsTypeMismatch(t *testing.T) {
	root := scoreboardTree(nil, []nbt.Tag{scoreTag("kills", "bob", nbt.String("12"))})
	st, err := Decode(root)
	if st != nil {
		t.Fatalf("expected no aggregate on failure")
	}
	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if mismatch.Field != "Score" {
		t.Fatalf("expected field Score, got %q", mismatch.Field)
	}
	if mismatch.Actual != nbt.String("12") {
		t.Fatalf("expected actual value to be carried, got %v", mismatch.Actual)
	}
	if !strings.Contains(err.Error(), `"12"`) || !strings.Contains(err.Error(), "Long, Int, Short, Byte") {
		t.Fatalf("error message lacks diagnostics: %v", err)
	}
}

func TestDecodeObjectiveFieldErrors(t *testing.T) {
	cases := []struct {
		field    string
		value    nbt.Tag
		missing  bool
		expected string
	}{
		{field: "CriteriaName", missing: true},
		{field: "display_auto_update", missing: true},
		{field: "DisplayName", missing: true},
		{field: "RenderType", missing: true},
		{field: "CriteriaName", value: nbt.Int(1), expected: "String"},
		{field: "display_auto_update", value: nbt.Int(1), expected: "Byte"},
		{field: "DisplayName", value: nbt.Byte(1), expected: "String"},
		{field: "RenderType", value: nbt.Long(1), expected: "String"},
	}
	for _, tc := range cases {
		obj := objectiveTag("kills", `"Kills"`)
		if tc.missing {
			delete(obj, tc.field)
		} else {
			obj[tc.field] = tc.value
		}
		_, err := Decode(scoreboardTree([]nbt.Tag{obj}, nil))
		if tc.missing {
			var missing *MissingFieldError
			if !errors.As(err, &missing) || missing.Field != tc.field {
				t.Fatalf("expected missing %s, got %v", tc.field, err)
			}
			continue
		}
		var mismatch *TypeMismatchError
		if !errors.As(err, &mismatch) || mismatch.Field != tc.field || mismatch.Expected != tc.expected {
			t.Fatalf("expected %s mismatch for %s, got %v", tc.expected, tc.field, err)
		}
	}
}

func TestDecodePlayerScoreFieldErrors(t *testing.T) {
	for _, name := range []string{"Locked", "Name", "Score"} {
		score := scoreTag("kills", "bob", nbt.Int(1))
		delete(score, name)
		_, err := Decode(scoreboardTree(nil, []nbt.Tag{score}))
		var missing *MissingFieldError
		if !errors.As(err, &missing) || missing.Field != name {
			t.Fatalf("expected missing %s, got %v", name, err)
		}
	}
	score := scoreTag("kills", "bob", nbt.Int(1))
	score["Locked"] = nbt.Short(0)
	_, err := Decode(scoreboardTree(nil, []nbt.Tag{score}))
	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) || mismatch.Field != "Locked" {
		t.Fatalf("expected Locked mismatch, got %v", err)
	}
}

func TestDecodeStructuralErrors(t *testing.T) {
	_, err := Decode(nbt.Compound{})
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Field != "data" {
		t.Fatalf("expected missing data, got %v", err)
	}

	_, err = Decode(nbt.Compound{"data": nbt.Compound{"PlayerScores": nbt.NewList()}})
	if !errors.As(err, &missing) || missing.Field != "Objectives" {
		t.Fatalf("expected missing Objectives, got %v", err)
	}

	_, err = Decode(nbt.Compound{"data": nbt.Compound{"Objectives": nbt.NewList()}})
	if !errors.As(err, &missing) || missing.Field != "PlayerScores" {
		t.Fatalf("expected missing PlayerScores, got %v", err)
	}

	var shape *ShapeError
	_, err = Decode(nbt.Compound{"data": nbt.Compound{
		"Objectives":   nbt.Compound{},
		"PlayerScores": nbt.NewList(),
	}})
	if !errors.As(err, &shape) || shape.Field != "Objectives" || shape.Actual != nbt.KindCompound {
		t.Fatalf("expected Objectives shape error, got %v", err)
	}

	_, err = Decode(nbt.Compound{"data": nbt.Int(1)})
	if !errors.As(err, &shape) || shape.Field != "data" {
		t.Fatalf("expected data shape error, got %v", err)
	}
}

func TestDecodeMissingKeyFields(t *testing.T) {
	obj := objectiveTag("kills", `"Kills"`)
	delete(obj, "Name")
	_, err := Decode(scoreboardTree([]nbt.Tag{obj}, nil))
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Field != "Name" {
		t.Fatalf("expected missing Name, got %v", err)
	}

	score := scoreTag("kills", "bob", nbt.Int(1))
	delete(score, "Objective")
	_, err = Decode(scoreboardTree(nil, []nbt.Tag{score}))
	if !errors.As(err, &missing) || missing.Field != "Objective" {
		t.Fatalf("expected missing Objective, got %v", err)
	}
}

func TestDecodeSkipsNonCompoundElements(t *testing.T) {
	root := nbt.Compound{"data": nbt.Compound{
		"Objectives":   nbt.NewList(nbt.String("junk"), nbt.String("more")),
		"PlayerScores": nbt.NewList(nbt.Int(1)),
	}}
	st, err := Decode(root)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.ObjectiveCount() != 0 || st.ScoreCount() != 0 {
		t.Fatalf("expected empty aggregate, got %d objectives, %d scores", st.ObjectiveCount(), st.ScoreCount())
	}
}

func TestDecodeAccumulatesDuplicates(t *testing.T) {
	root := scoreboardTree(
		[]nbt.Tag{objectiveTag("kills", `"Kills"`)},
		[]nbt.Tag{
			scoreTag("kills", "bob", nbt.Int(1)),
			scoreTag("kills", "bob", nbt.Int(2)),
			scoreTag("ghost", "bob", nbt.Int(3)),
		},
	)
	st, err := Decode(root)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := len(st.Scores("kills")); got != 2 {
		t.Fatalf("expected duplicates to accumulate, got %d", got)
	}
	if !reflect.DeepEqual(st.ScoreGroupNames(), []string{"ghost", "kills"}) {
		t.Fatalf("expected orphan group kept, got %v", st.ScoreGroupNames())
	}
}

func TestDecodeNumericObjectiveKey(t *testing.T) {
	obj := objectiveTag("", `"Numbered"`)
	obj["Name"] = nbt.Int(42)
	score := scoreTag("", "bob", nbt.Int(7))
	score["Objective"] = nbt.Int(42)
	st, err := Decode(scoreboardTree([]nbt.Tag{obj}, []nbt.Tag{score}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := st.Objective("42"); !ok {
		t.Fatalf("expected numeric key coerced to text, got %v", st.ObjectiveNames())
	}
	if got, ok := st.ScoreFor("42", "bob"); !ok || got != 7 {
		t.Fatalf("expected score under coerced key, got %d", got)
	}
}

func TestStripOuter(t *testing.T) {
	cases := map[string]string{
		`"Deaths"`: "Deaths",
		"[x]":      "x",
		"ab":       "",
		"a":        "",
		"":         "",
		"«é»":      "é",
	}
	for in, want := range cases {
		if got := stripOuter(in); got != want {
			t.Fatalf("stripOuter(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestDecodeFileGzip(t *testing.T) {
	root := scoreboardTree(
		[]nbt.Tag{objectiveTag("kills", `"Kills"`)},
		[]nbt.Tag{scoreTag("kills", "bob", nbt.Int(2))},
	)
	var buf bytes.Buffer
	if err := nbt.WriteGzip(&buf, "", root); err != nil {
		t.Fatalf("write: %v", err)
	}
	path := filepath.Join(t.TempDir(), "scoreboard.dat")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	st, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("decode file: %v", err)
	}
	if obj, _ := st.Objective("kills"); obj.DisplayName != "Kills" {
		t.Fatalf("unexpected display name %q", obj.DisplayName)
	}
}

func TestDecodeReaderCorrupt(t *testing.T) {
	_, err := DecodeReader(bytes.NewReader([]byte{0x0a, 0x00}))
	if err == nil || !strings.Contains(err.Error(), "failed to read tag tree") {
		t.Fatalf("expected tag tree error, got %v", err)
	}
}
