package check

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jetpham/calhacks25/internal/domain"
)

// CompareDirs compares every q<N>.csv in baselineDir against the file of
// the same name in outputDir. Without query specs the canonical sort keys
// on every column, which is a strict superset of the group-by ordering,
// and float tolerance is applied per cell pair. Reports come back sorted
// by query number; a missing output file is a row-count mismatch against
// the baseline.
func CompareDirs(baselineDir, outputDir string, tolerance float64) ([]*Report, error) {
	files, err := queryFiles(baselineDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no q*.csv files in %s", baselineDir)
	}

	reports := make([]*Report, 0, len(files))
	for _, name := range files {
		queryID := queryNumber(name)
		baseline, err := readCSV(filepath.Join(baselineDir, name))
		if err != nil {
			return nil, fmt.Errorf("baseline %s: %w", name, err)
		}

		produced, err := readCSV(filepath.Join(outputDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				reports = append(reports, &Report{
					QueryID:          queryID,
					RowCountMismatch: true,
					ExpectedRows:     len(baseline.Rows),
				})
				continue
			}
			return nil, fmt.Errorf("output %s: %w", name, err)
		}

		reports = append(reports, Compare(queryID, baseline, produced, Options{Tolerance: tolerance}))
	}
	return reports, nil
}

// queryFiles lists the q<N>.csv files of a directory sorted by N.
func queryFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "q") && strings.HasSuffix(name, ".csv") {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return queryNumber(names[i]) < queryNumber(names[j]) })
	return names, nil
}

func queryNumber(name string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "q"), ".csv"))
	if err != nil {
		return 0
	}
	return n
}

func readCSV(path string) (*domain.RowSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv")
	}
	return &domain.RowSet{Columns: records[0], Rows: records[1:]}, nil
}
