package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/dataset"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/shared/testutil"
)

func TestFileValidator_ValidateDataset(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantErr       bool
		errorContains string
	}{
		{
			name: "valid json dataset",
			setupFunc: func(t *testing.T) string {
				return testutil.WriteSampleJSON(t, t.TempDir())
			},
		},
		{
			name: "non-existent file",
			setupFunc: func(t *testing.T) string {
				return "/non/existent/loans.csv"
			},
			wantErr:       true,
			errorContains: "does not exist",
		},
		{
			name: "unsupported extension",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "loans.parquet")
				require.NoError(t, os.WriteFile(file, []byte("data"), 0o644))
				return file
			},
			wantErr:       true,
			errorContains: "unsupported input format",
		},
		{
			name: "empty file",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "loans.csv")
				require.NoError(t, os.WriteFile(file, nil, 0o644))
				return file
			},
			wantErr:       true,
			errorContains: "is empty",
		},
		{
			name: "directory named like a dataset",
			setupFunc: func(t *testing.T) string {
				dir := filepath.Join(t.TempDir(), "loans.json")
				require.NoError(t, os.Mkdir(dir, 0o755))
				return dir
			},
			wantErr:       true,
			errorContains: "not a file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			validator := NewFileValidator(logger)

			err := validator.ValidateDataset(tt.setupFunc(t))

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_UnsupportedFormatIsTyped(t *testing.T) {
	err := NewFileValidator(nil).ValidateDataset("loans.txt")
	assert.ErrorIs(t, err, dataset.ErrUnsupportedFormat)
}

func TestFileValidator_ValidateOutputFile(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	validator := NewFileValidator(logger)
	dir := t.TempDir()

	t.Run("creates missing parents", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "out", "features.csv")
		require.NoError(t, validator.ValidateOutputFile(path))

		info, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Empty(t, entries, "write test file must be removed")
		testutil.AssertLogContains(t, logs, "Output directory validated")
	})

	t.Run("directory target", func(t *testing.T) {
		err := validator.ValidateOutputFile(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a file")
	})

	t.Run("parent is a file", func(t *testing.T) {
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		err := validator.ValidateOutputFile(filepath.Join(blocker, "features.csv"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create output directory")
	})
}
