package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
	"github.com/mamadbah2/fuelsync/internal/service/transform"
)

const sheetName = "Data"

// Writer persists a table as XLSX, CSV and JSON under the data directory.
type Writer struct {
	dataDir    string
	reportsDir string
	logger     *zap.Logger
}

// NewWriter builds a writer and creates the output directories.
func NewWriter(dataDir, reportsDir string, logger *zap.Logger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, dir := range []string{dataDir, reportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	return &Writer{dataDir: dataDir, reportsDir: reportsDir, logger: logger}, nil
}

// Artifacts returns the file layout for a category.
func (w *Writer) Artifacts(category models.Category) models.ArtifactSet {
	return models.ArtifactsFor(category, w.dataDir, w.reportsDir)
}

// Write stores the table in all three formats. Each file is written to a
// temporary name and renamed into place so readers never see a partial file.
func (w *Writer) Write(category models.Category, table transform.Table) (models.ArtifactSet, error) {
	set := w.Artifacts(category)

	if err := writeAtomic(set.Spreadsheet, func(out io.Writer) error { return writeXLSX(out, table) }); err != nil {
		return set, fmt.Errorf("write %s spreadsheet: %w", category, err)
	}
	if err := writeAtomic(set.CSV, func(out io.Writer) error { return writeCSV(out, table) }); err != nil {
		return set, fmt.Errorf("write %s csv: %w", category, err)
	}
	if err := writeAtomic(set.JSON, func(out io.Writer) error { return writeJSON(out, table) }); err != nil {
		return set, fmt.Errorf("write %s json: %w", category, err)
	}

	w.logger.Info("data saved",
		zap.String("category", string(category)),
		zap.Int("rows", table.Len()),
		zap.String("dir", w.dataDir))
	return set, nil
}

func writeAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base[:len(base)-len(ext)]+"-*"+ext)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func writeXLSX(out io.Writer, table transform.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	header := make([]any, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	for i, cells := range table.Values() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(out)
	return err
}

func writeCSV(out io.Writer, table transform.Table) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	for _, cells := range table.Values() {
		record := make([]string, len(cells))
		for i, v := range cells {
			record[i] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeJSON keeps column order inside every object.
func writeJSON(out io.Writer, table transform.Table) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range table.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range table.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return err
			}
			value, err := json.Marshal(row[col])
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(value)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf.Bytes(), "", "  "); err != nil {
		return err
	}
	_, err := pretty.WriteTo(out)
	return err
}

func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}
