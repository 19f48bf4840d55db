// Package loader reads power recordings from CSV files.
//
// Appliance recordings hold one power value per line and are sampled at a
// fixed rate, so sample indices serve as timestamps. Aggregate recordings
// hold a timestamp and a power value per line. Lines whose first field is not
// numeric are treated as headers and skipped.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kilianp07/amice/core/model"
)

// Ext is the file extension of recordings inside an appliance directory.
const Ext = ".csv"

var (
	// ErrEmpty is returned when a file holds no samples.
	ErrEmpty = errors.New("no samples")
	// ErrNoAppliances is returned when a directory holds no recordings.
	ErrNoAppliances = errors.New("no appliance recordings found")
)

// Truth is a known appliance activation used to compare against results.
type Truth struct {
	Appliance string  `json:"appliance"`
	T         float64 `json:"t"`
}

// LoadApplianceDir reads every *.csv file in dir. The appliance name is the
// file name without extension.
func LoadApplianceDir(dir string) (map[string]model.Series, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Series)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Ext) {
			continue
		}
		s, err := LoadApplianceFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out[ApplianceName(e.Name())] = s
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoAppliances)
	}
	return out, nil
}

// ApplianceName derives the appliance name from a recording path.
func ApplianceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadApplianceFile reads a single-column recording.
func LoadApplianceFile(path string) (model.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Series{}, err
	}
	defer func() { _ = f.Close() }()
	s, err := ReadAppliance(f)
	if err != nil {
		return model.Series{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadAppliance parses one power value per line.
func ReadAppliance(r io.Reader) (model.Series, error) {
	var p []float64
	err := readRows(r, 1, func(line int, fields []string) error {
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		p = append(p, v)
		return nil
	})
	if err != nil {
		return model.Series{}, err
	}
	if len(p) == 0 {
		return model.Series{}, ErrEmpty
	}
	return model.IndexSeries(p)
}

// LoadAggregate reads a two-column t,p recording.
func LoadAggregate(path string) (model.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Series{}, err
	}
	defer func() { _ = f.Close() }()
	s, err := ReadAggregate(f)
	if err != nil {
		return model.Series{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadAggregate parses t,p rows.
func ReadAggregate(r io.Reader) (model.Series, error) {
	var t, p []float64
	err := readRows(r, 2, func(line int, fields []string) error {
		ts, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("line %d: time: %w", line, err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("line %d: power: %w", line, err)
		}
		t = append(t, ts)
		p = append(p, v)
		return nil
	})
	if err != nil {
		return model.Series{}, err
	}
	if len(p) == 0 {
		return model.Series{}, ErrEmpty
	}
	return model.NewSeries(t, p)
}

// LoadTruth reads name,time rows sorted by time.
func LoadTruth(path string) ([]Truth, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var out []Truth
	err = readRows(f, 2, func(line int, fields []string) error {
		ts, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("line %d: time: %w", line, err)
		}
		out = append(out, Truth{Appliance: fields[0], T: ts})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].T < out[j].T })
	return out, nil
}

// readRows calls fn for every data row with at least minFields fields. A
// first row that does not parse is skipped as a header.
func readRows(r io.Reader, minFields int, fn func(line int, fields []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < minFields {
			return fmt.Errorf("line %d: expected %d fields, got %d", line, minFields, len(rec))
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if first {
			first = false
			if isHeader(rec, minFields) {
				continue
			}
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

// isHeader reports whether the numeric columns of a row fail to parse.
func isHeader(rec []string, minFields int) bool {
	col := 0
	if minFields == 2 {
		col = 1
	}
	_, err := strconv.ParseFloat(rec[col], 64)
	return err != nil
}
