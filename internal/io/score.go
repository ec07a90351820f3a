package io

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"image-fitness-pipeline/internal/core"
)

// ScoreRecord is the persisted result of one pipeline run.
type ScoreRecord struct {
	Score float64 `json:"score"`
}

// SaveScore writes {"score": score} as indented JSON, atomically via a temp
// file and rename.
func SaveScore(path string, score float64) error {
	data, err := json.MarshalIndent(ScoreRecord{Score: score}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrEncode, path, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrEncode, path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrEncode, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %s: %v", core.ErrEncode, path, err)
	}
	return nil
}

// LoadScore reads a record written by SaveScore.
func LoadScore(path string) (ScoreRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("%w: %s: %v", core.ErrDecode, path, err)
	}
	var rec ScoreRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ScoreRecord{}, fmt.Errorf("%w: %s: %v", core.ErrDecode, path, err)
	}
	return rec, nil
}
