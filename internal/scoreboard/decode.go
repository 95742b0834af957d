// Package scoreboard decodes scoreboard tag trees into typed stats.
package scoreboard

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/verte-zerg/nbtscore/internal/model"
	"github.com/verte-zerg/nbtscore/internal/nbt"
)

const (
	fieldData         = "data"
	fieldObjectives   = "Objectives"
	fieldPlayerScores = "PlayerScores"
)

// DecodeFile reads and decodes a scoreboard file.
func DecodeFile(path string) (*model.Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only input.
			_ = cerr
		}
	}()
	return DecodeReader(file)
}

// DecodeReader reads a (possibly compressed) tag tree from r and decodes it.
func DecodeReader(r io.Reader) (*model.Stats, error) {
	_, root, err := nbt.Read(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tag tree: %w", err)
	}
	return Decode(root)
}

// Decode builds a Stats aggregate from the root compound. Any invalid objective
// or score aborts the decode; non-compound list elements are skipped.
func Decode(root nbt.Compound) (*model.Stats, error) {
	data, err := compoundField(root, fieldData)
	if err != nil {
		return nil, err
	}

	rawObjectives, err := listField(data, fieldObjectives)
	if err != nil {
		return nil, err
	}
	objectives := make(map[string]model.Objective, len(rawObjectives.Items))
	for _, item := range rawObjectives.Items {
		elem, ok := item.(nbt.Compound)
		if !ok {
			continue
		}
		key, err := textField(elem, "Name")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fieldObjectives, err)
		}
		obj, err := decodeObjective(elem)
		if err != nil {
			return nil, fmt.Errorf("error parsing %s at %q: %w", fieldObjectives, key, err)
		}
		objectives[key] = obj
	}

	rawScores, err := listField(data, fieldPlayerScores)
	if err != nil {
		return nil, err
	}
	playerScores := map[string][]model.PlayerScore{}
	for _, item := range rawScores.Items {
		elem, ok := item.(nbt.Compound)
		if !ok {
			continue
		}
		key, err := textField(elem, "Objective")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fieldPlayerScores, err)
		}
		ps, err := decodePlayerScore(elem)
		if err != nil {
			return nil, fmt.Errorf("error parsing %s for %q: %w", fieldPlayerScores, key, err)
		}
		playerScores[key] = append(playerScores[key], ps)
	}

	return model.NewStats(objectives, playerScores), nil
}

func decodeObjective(c nbt.Compound) (model.Objective, error) {
	criteria, err := stringField(c, "CriteriaName")
	if err != nil {
		return model.Objective{}, err
	}
	autoUpdate, err := byteField(c, "display_auto_update")
	if err != nil {
		return model.Objective{}, err
	}
	displayName, err := stringField(c, "DisplayName")
	if err != nil {
		return model.Objective{}, err
	}
	renderType, err := stringField(c, "RenderType")
	if err != nil {
		return model.Objective{}, err
	}
	return model.Objective{
		CriteriaName:      criteria,
		DisplayAutoUpdate: autoUpdate,
		DisplayName:       stripOuter(displayName),
		RenderType:        renderType,
	}, nil
}

func decodePlayerScore(c nbt.Compound) (model.PlayerScore, error) {
	locked, err := byteField(c, "Locked")
	if err != nil {
		return model.PlayerScore{}, err
	}
	name, err := stringField(c, "Name")
	if err != nil {
		return model.PlayerScore{}, err
	}
	score, err := integerField(c, "Score")
	if err != nil {
		return model.PlayerScore{}, err
	}
	return model.PlayerScore{Locked: locked, PlayerName: name, Score: score}, nil
}

// stripOuter drops exactly one rune from each end. Display names are stored as
// quoted JSON text, so "\"Deaths\"" becomes "Deaths". Strings of fewer than two
// runes become empty.
func stripOuter(s string) string {
	_, first := utf8.DecodeRuneInString(s)
	_, last := utf8.DecodeLastRuneInString(s)
	if first+last >= len(s) {
		return ""
	}
	return s[first : len(s)-last]
}

func field(c nbt.Compound, name string) (nbt.Tag, error) {
	tag, ok := c[name]
	if !ok || tag == nil {
		return nil, &MissingFieldError{Field: name}
	}
	return tag, nil
}

func compoundField(c nbt.Compound, name string) (nbt.Compound, error) {
	tag, err := field(c, name)
	if err != nil {
		return nil, err
	}
	v, ok := tag.(nbt.Compound)
	if !ok {
		return nil, &ShapeError{Field: name, Expected: nbt.KindCompound, Actual: tag.Kind()}
	}
	return v, nil
}

func listField(c nbt.Compound, name string) (nbt.List, error) {
	tag, err := field(c, name)
	if err != nil {
		return nbt.List{}, err
	}
	v, ok := tag.(nbt.List)
	if !ok {
		return nbt.List{}, &ShapeError{Field: name, Expected: nbt.KindList, Actual: tag.Kind()}
	}
	return v, nil
}

func textField(c nbt.Compound, name string) (string, error) {
	tag, err := field(c, name)
	if err != nil {
		return "", err
	}
	return nbt.Text(tag), nil
}

func stringField(c nbt.Compound, name string) (string, error) {
	tag, err := field(c, name)
	if err != nil {
		return "", err
	}
	v, ok := tag.(nbt.String)
	if !ok {
		return "", &TypeMismatchError{Field: name, Expected: "String", Actual: tag}
	}
	return string(v), nil
}

func byteField(c nbt.Compound, name string) (int8, error) {
	tag, err := field(c, name)
	if err != nil {
		return 0, err
	}
	v, ok := tag.(nbt.Byte)
	if !ok {
		return 0, &TypeMismatchError{Field: name, Expected: "Byte", Actual: tag}
	}
	return int8(v), nil
}

// integerField accepts any signed integer width and widens it to int64.
func integerField(c nbt.Compound, name string) (int64, error) {
	tag, err := field(c, name)
	if err != nil {
		return 0, err
	}
	switch v := tag.(type) {
	case nbt.Byte:
		return int64(v), nil
	case nbt.Short:
		return int64(v), nil
	case nbt.Int:
		return int64(v), nil
	case nbt.Long:
		return int64(v), nil
	default:
		return 0, &TypeMismatchError{Field: name, Expected: "Long, Int, Short, Byte", Actual: tag}
	}
}
