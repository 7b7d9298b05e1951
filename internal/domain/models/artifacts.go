package models

import (
	"fmt"
	"path/filepath"
)

// ArtifactSet lists every file the pipeline produces for one category.
type ArtifactSet struct {
	Spreadsheet string `json:"spreadsheet"`
	CSV         string `json:"csv"`
	JSON        string `json:"json"`
	Image       string `json:"image,omitempty"`
	HTML        string `json:"html,omitempty"`
	PDF         string `json:"pdf,omitempty"`
}

// ArtifactsFor resolves the fixed file layout for a category.
func ArtifactsFor(category Category, dataDir, reportsDir string) ArtifactSet {
	base := string(category)
	set := ArtifactSet{
		Spreadsheet: filepath.Join(dataDir, fmt.Sprintf("%s_data.xlsx", base)),
		CSV:         filepath.Join(dataDir, fmt.Sprintf("%s_data.csv", base)),
		JSON:        filepath.Join(dataDir, fmt.Sprintf("%s_data.json", base)),
	}
	if category.HasReport() {
		set.Image = filepath.Join(reportsDir, fmt.Sprintf("%s_report.png", base))
		set.HTML = filepath.Join(reportsDir, fmt.Sprintf("%s_report.html", base))
		set.PDF = filepath.Join(dataDir, fmt.Sprintf("%s_report.pdf", base))
	}
	return set
}
