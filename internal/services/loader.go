package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"appliance-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

var (
	ErrSchema       = errors.New("csv schema mismatch")
	ErrMalformedRow = errors.New("malformed csv row")
	ErrNoRecords    = errors.New("no records found")
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Dataset is an immutable snapshot of a loaded CSV file.
type Dataset struct {
	Records  []models.SalesRecord
	Options  models.FilterOptions
	Source   string
	ModTime  time.Time
	LoadedAt time.Time
}

// NewDataset builds a snapshot from already parsed records.
func NewDataset(source string, records []models.SalesRecord) *Dataset {
	return &Dataset{
		Records:  records,
		Options:  buildOptions(records),
		Source:   source,
		LoadedAt: time.Now(),
	}
}

// LoadDataset reads and parses the CSV file at path.
func LoadDataset(ctx context.Context, path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	records, err := ParseRecords(ctx, file)
	if err != nil {
		return nil, err
	}

	ds := NewDataset(path, records)
	ds.ModTime = info.ModTime()
	return ds, nil
}

// ParseRecords reads a sales CSV stream. The header must name every schema
// column exactly once and nothing else.
func ParseRecords(ctx context.Context, r io.Reader) ([]models.SalesRecord, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRow, err)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoRecords
	}

	records := make([]models.SalesRecord, len(rows))
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := parseBatch(ctx, rows, records, start, end, index); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func parseBatch(ctx context.Context, rows [][]string, out []models.SalesRecord, start, end int, index map[string]int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	const chunk = 500
	for lo := start; lo < end; lo += chunk {
		hi := min(lo+chunk, end)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				rec, err := parseRecord(rows[i], index)
				if err != nil {
					// Row 1 is the header.
					return fmt.Errorf("%w: line %d: %w", ErrMalformedRow, i+2, err)
				}
				out[i] = rec
			}
			return nil
		})
	}

	return g.Wait()
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	var unknown, duplicate []string

	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if !slices.Contains(models.Columns, name) {
			unknown = append(unknown, name)
			continue
		}
		if _, seen := index[name]; seen {
			duplicate = append(duplicate, name)
			continue
		}
		index[name] = i
	}

	var missing []string
	for _, col := range models.Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "missing columns: "+strings.Join(missing, ", "))
	}
	if len(unknown) > 0 {
		problems = append(problems, "unrecognized columns: "+strings.Join(unknown, ", "))
	}
	if len(duplicate) > 0 {
		problems = append(problems, "duplicate columns: "+strings.Join(duplicate, ", "))
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSchema, strings.Join(problems, "; "))
	}

	return index, nil
}

func parseRecord(row []string, index map[string]int) (models.SalesRecord, error) {
	field := func(col string) string {
		return strings.TrimSpace(row[index[col]])
	}
	number := func(col string) (float64, error) {
		v, err := strconv.ParseFloat(field(col), 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("column %s: non-finite value %q", col, field(col))
		}
		return v, nil
	}
	count := func(col string) (float64, error) {
		v, err := number(col)
		if err == nil && v < 0 {
			return 0, fmt.Errorf("column %s: negative value %v", col, v)
		}
		return v, err
	}

	var (
		rec models.SalesRecord
		err error
	)

	rec.Category = field(models.ColCategory)
	rec.Region = field(models.ColRegion)

	if rec.SaleDate, err = parseDate(field(models.ColSaleDate)); err != nil {
		return rec, fmt.Errorf("column %s: %w", models.ColSaleDate, err)
	}
	if rec.UnitsSold, err = strconv.Atoi(field(models.ColUnitsSold)); err != nil {
		return rec, fmt.Errorf("column %s: %w", models.ColUnitsSold, err)
	}
	if rec.UnitsSold < 0 {
		return rec, fmt.Errorf("column %s: negative value %d", models.ColUnitsSold, rec.UnitsSold)
	}
	if rec.SalesAmount, err = number(models.ColSalesAmount); err != nil {
		return rec, err
	}
	if rec.UnitPrice, err = number(models.ColUnitPrice); err != nil {
		return rec, err
	}
	if rec.UnitCost, err = number(models.ColUnitCost); err != nil {
		return rec, err
	}
	if rec.InventoryLevel, err = count(models.ColInventoryLevel); err != nil {
		return rec, err
	}
	if rec.ReturnsCount, err = count(models.ColReturnsCount); err != nil {
		return rec, err
	}
	if rec.CustomerRating, err = number(models.ColCustomerRating); err != nil {
		return rec, err
	}

	return rec, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func buildOptions(records []models.SalesRecord) models.FilterOptions {
	opts := models.FilterOptions{
		Categories: []string{},
		Regions:    []string{},
	}
	seenCat := make(map[string]struct{})
	seenReg := make(map[string]struct{})

	for i, rec := range records {
		if _, ok := seenCat[rec.Category]; !ok {
			seenCat[rec.Category] = struct{}{}
			opts.Categories = append(opts.Categories, rec.Category)
		}
		if _, ok := seenReg[rec.Region]; !ok {
			seenReg[rec.Region] = struct{}{}
			opts.Regions = append(opts.Regions, rec.Region)
		}
		if i == 0 || rec.SaleDate.Before(opts.MinDate) {
			opts.MinDate = rec.SaleDate
		}
		if i == 0 || rec.SaleDate.After(opts.MaxDate) {
			opts.MaxDate = rec.SaleDate
		}
	}

	return opts
}
