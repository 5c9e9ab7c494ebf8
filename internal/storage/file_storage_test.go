package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_SaveReport(t *testing.T) {
	tempDir := t.TempDir()
	s := NewLocalFileStorage(tempDir, zap.NewNop())
	june := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)

	t.Run("saves under the monthly folder", func(t *testing.T) {
		path, err := s.SaveReport("CB-20240605-0001", june, []byte("xlsx bytes"))
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(tempDir, "2024-06", "CB-20240605-0001.xlsx"), path)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("xlsx bytes"), content)

		leftovers, _ := filepath.Glob(filepath.Join(tempDir, "2024-06", "*.tmp"))
		assert.Empty(t, leftovers)
	})

	t.Run("overwrites existing report", func(t *testing.T) {
		_, err := s.SaveReport("CB-20240605-0002", june, []byte("original"))
		require.NoError(t, err)
		path, err := s.SaveReport("CB-20240605-0002", june, []byte("updated"))
		require.NoError(t, err)

		content, _ := os.ReadFile(path)
		assert.Equal(t, []byte("updated"), content)
	})

	t.Run("traversal is stripped", func(t *testing.T) {
		path, err := s.SaveReport("../../etc/passwd", june, []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tempDir, "2024-06", "etcpasswd.xlsx"), path)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := s.SaveReport("../", june, []byte("x"))
		assert.Error(t, err)
	})
}

func TestLocalFileStorage_ListReports(t *testing.T) {
	s := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	_, err := s.SaveReport("CB-20240505-0001", time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), []byte("a"))
	require.NoError(t, err)
	_, err = s.SaveReport("CB-20240605-0001", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), []byte("b"))
	require.NoError(t, err)

	reports, err := s.ListReports()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "CB-20240605-0001.xlsx", filepath.Base(reports[0]))
}

func TestLocalFileStorage_ValidatePath(t *testing.T) {
	tempDir := t.TempDir()
	s := NewLocalFileStorage(tempDir, zap.NewNop())

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"inside base", filepath.Join(tempDir, "2024-06", "a.xlsx"), false},
		{"base itself", tempDir, false},
		{"parent escape", filepath.Join(tempDir, "..", "a.xlsx"), true},
		{"sibling prefix", tempDir + "-other/a.xlsx", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "CB-20240605-0001", SanitizeName("CB-20240605-0001"))
	assert.Equal(t, "relatriofinal_v2", SanitizeName("relatório final_v2"))
	assert.Equal(t, "abc", SanitizeName("a/b\\c"))
}
