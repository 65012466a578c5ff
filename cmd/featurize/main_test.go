package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/config"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/shared/testutil"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.ConfigFileEnv, "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func decodeRecords(t *testing.T, data string) []map[string]any {
	t.Helper()
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &records))
	return records
}

func TestFeaturizeToStdout(t *testing.T) {
	input := testutil.WriteSampleJSON(t, t.TempDir())

	stdout, _, err := execute(t, "--input", input)
	require.NoError(t, err)

	records := decodeRecords(t, stdout)
	require.Len(t, records, 3)
	ids := []any{records[0]["customer_ID"], records[1]["customer_ID"], records[2]["customer_ID"]}
	assert.Equal(t, []any{"1090", "42", "296"}, ids)
	assert.EqualValues(t, 47, records[0]["MEAN(loans.DISTANCE_TO_HOLIDAY(loan_date))"])
}

func TestFeaturizeSelection(t *testing.T) {
	input := testutil.WriteSampleJSON(t, t.TempDir())

	t.Run("customer filter", func(t *testing.T) {
		stdout, _, err := execute(t, "-i", input, "--customer-id", "296,missing", "--max-depth", "1")
		require.NoError(t, err)
		records := decodeRecords(t, stdout)
		require.Len(t, records, 1)
		assert.Equal(t, "296", records[0]["customer_ID"])
	})

	t.Run("empty primitive lists", func(t *testing.T) {
		stdout, _, err := execute(t, "-i", input, "--transforms=", "--aggregations=")
		require.NoError(t, err)
		records := decodeRecords(t, stdout)
		require.Len(t, records, 3)
		assert.Len(t, records[0], 2)
		assert.Contains(t, records[0], "annual_income")
	})

	t.Run("only mean", func(t *testing.T) {
		stdout, _, err := execute(t, "-i", input, "-a", "mean", "-t", "", "-d", "1")
		require.NoError(t, err)
		for name := range decodeRecords(t, stdout)[0] {
			if name == "customer_ID" || name == "annual_income" {
				continue
			}
			assert.True(t, strings.HasPrefix(name, "MEAN("), name)
		}
	})
}

func TestFeaturizeToFile(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteSampleJSON(t, dir)

	t.Run("csv", func(t *testing.T) {
		output := filepath.Join(dir, "out", "features.csv")
		_, stderr, err := execute(t, "-i", input, "-o", output, "-d", "1")
		require.NoError(t, err)
		assert.Contains(t, stderr, "wrote 3 customers")

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 4)
		assert.True(t, strings.HasPrefix(lines[0], "customer_ID,"))
	})

	t.Run("xlsx", func(t *testing.T) {
		output := filepath.Join(dir, "features.xlsx")
		_, _, err := execute(t, "-i", input, "-o", output, "-d", "1")
		require.NoError(t, err)

		f, err := excelize.OpenFile(output)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetList()[0])
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, "customer_ID", rows[0][0])
		assert.Equal(t, "1090", rows[1][0])
	})

	t.Run("explicit format wins", func(t *testing.T) {
		output := filepath.Join(dir, "features.out")
		_, _, err := execute(t, "-i", input, "-o", output, "-f", "json", "-d", "0")
		require.NoError(t, err)
		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Len(t, decodeRecords(t, string(data)), 3)
	})
}

func TestFeaturizeErrors(t *testing.T) {
	input := testutil.WriteSampleJSON(t, t.TempDir())

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown primitive", args: []string{"-i", input, "-a", "median"}, wantErr: "median"},
		{name: "depth above limit", args: []string{"-i", input, "-d", "9"}, wantErr: "max_depth"},
		{name: "unknown format", args: []string{"-i", input, "-f", "parquet"}, wantErr: "unknown export format"},
		{name: "unknown output extension", args: []string{"-i", input, "-o", "features.txt"}, wantErr: "unknown export format"},
		{name: "missing input", args: []string{"-i", "/nonexistent/loans.json"}, wantErr: "does not exist"},
		{name: "output is a directory", args: []string{"-i", input, "-o", t.TempDir(), "-f", "csv"}, wantErr: "not a file"},
		{name: "unknown holiday calendar", args: []string{"-i", input, "--holiday", "lunar"}, wantErr: "unknown holiday calendar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPrimitivesCommand(t *testing.T) {
	stdout, _, err := execute(t, "primitives")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "NAME"))
	assert.Contains(t, stdout, "distance_to_holiday")
	assert.Contains(t, stdout, "same as input")

	stdout, _, err = execute(t, "primitives", "--json")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	assert.Len(t, list, 15)
}

func TestDefinitionsCommand(t *testing.T) {
	input := testutil.WriteSampleJSON(t, t.TempDir())

	stdout, _, err := execute(t, "definitions", "-i", input, "-d", "1")
	require.NoError(t, err)

	var defs struct {
		Count    int `json:"count"`
		Features []struct {
			Name  string `json:"name"`
			Depth int    `json:"depth"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &defs))
	names := make([]string, 0, len(defs.Features))
	for _, f := range defs.Features {
		assert.Equal(t, 0, f.Depth, f.Name)
		names = append(names, f.Name)
	}
	assert.Equal(t, testutil.SampleDepthOneFeatures(), names)
	assert.Equal(t, len(names), defs.Count)
}
