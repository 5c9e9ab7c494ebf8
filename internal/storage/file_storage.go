// Package storage keeps exported report files on the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ReportStorage stores exported report workbooks
type ReportStorage interface {
	// SaveReport writes content as <period>/<name>.xlsx and returns the path
	SaveReport(name string, generatedAt time.Time, content []byte) (string, error)

	// ListReports returns the stored report paths, newest period first
	ListReports() ([]string, error)
}

// LocalFileStorage implements ReportStorage on the local filesystem
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage rooted at baseDir
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// SanitizeName returns a filesystem-safe version of name
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	return unsafeChars.ReplaceAllString(name, "")
}

// SaveReport writes the workbook under a monthly folder. The file is written
// to a temporary name first so readers never see a partial workbook.
func (s *LocalFileStorage) SaveReport(name string, generatedAt time.Time, content []byte) (string, error) {
	safe := SanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("cannot save report: empty name")
	}

	fullPath := filepath.Join(s.baseDir, generatedAt.Format("2006-01"), safe+".xlsx")
	if err := s.ValidatePath(fullPath); err != nil {
		return "", err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("Failed to create report folder",
			zap.String("path", dir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, safe+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		s.logger.Error("Failed to move report into place",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Info("Report saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))
	return fullPath, nil
}

// ListReports returns the stored report paths, newest period first
func (s *LocalFileStorage) ListReports() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.baseDir, "*", "*.xlsx"))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// ValidatePath checks that the path is safe and within baseDir
func (s *LocalFileStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}
	return nil
}
