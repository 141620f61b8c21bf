package storage

import (
	"path/filepath"
	"strings"
)

// NewStorage returns the delimited-text backend matching the file extension.
// Tab-separated files use a tab delimiter; everything else is comma-separated.
func NewStorage(path string) Storage {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return NewCSVStorage('\t')
	default:
		return NewCSVStorage(',')
	}
}
