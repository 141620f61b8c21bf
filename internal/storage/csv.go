package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"newsharvest/internal/models"
)

const utf8BOM = "\ufeff"

// CSVStorage reads and writes delimited text datasets
type CSVStorage struct {
	comma rune
}

func NewCSVStorage(comma rune) *CSVStorage {
	return &CSVStorage{comma: comma}
}

// Load parses the file at path. Rows shorter than the header are padded,
// longer rows make the file unparseable.
func (s *CSVStorage) Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.SchemaLoadError{Path: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = s.comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("no header row")
		}
		return nil, &models.SchemaLoadError{Path: path, Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	table := NewTable(header)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &models.SchemaLoadError{Path: path, Err: err}
		}
		if len(record) > len(header) {
			return nil, &models.SchemaLoadError{
				Path: path,
				Err:  fmt.Errorf("record %d has %d fields, header has %d", line, len(record), len(header)),
			}
		}
		table.AppendRow(record)
	}

	return table, nil
}

// Save writes table to a temp file next to path and renames it into
// place, so readers never observe a partially written dataset.
func (s *CSVStorage) Save(table *Table, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &models.PersistenceError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &models.PersistenceError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if err := s.write(tmp, table); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &models.PersistenceError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &models.PersistenceError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &models.PersistenceError{Path: path, Err: err}
	}
	return nil
}

func (s *CSVStorage) write(f *os.File, table *Table) error {
	writer := csv.NewWriter(f)
	writer.Comma = s.comma

	if err := writer.Write(table.Columns); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return f.Sync()
}

func (s *CSVStorage) Info(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, &models.SchemaLoadError{Path: path, Err: err}
	}
	return &FileInfo{
		Path:         path,
		FileSize:     stat.Size(),
		LastModified: stat.ModTime(),
	}, nil
}
