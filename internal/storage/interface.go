package storage

import "time"

// Storage defines the interface for tabular dataset backends
type Storage interface {
	Load(path string) (*Table, error)
	Save(table *Table, path string) error
	Info(path string) (*FileInfo, error)
}

// FileInfo represents metadata about a stored dataset
type FileInfo struct {
	Path         string    `json:"path"`
	FileSize     int64     `json:"file_size"`
	LastModified time.Time `json:"last_modified"`
}
