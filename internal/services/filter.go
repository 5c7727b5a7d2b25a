package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"appliance-dashboard/internal/models"
)

const dateLayout = "2006-01-02"

var ErrInvalidSelection = errors.New("invalid selection")

// ResolveSelection turns client input into a Selection against the dataset's
// options. Omitted fields select everything.
func ResolveSelection(in models.SelectionInput, opts models.FilterOptions) (models.Selection, error) {
	sel := models.Selection{
		Categories: toSet(in.Categories, opts.Categories),
		Regions:    toSet(in.Regions, opts.Regions),
		Start:      opts.MinDate,
		End:        opts.MaxDate,
	}

	if s := strings.TrimSpace(in.Start); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return models.Selection{}, fmt.Errorf("%w: start date %q: expected YYYY-MM-DD", ErrInvalidSelection, s)
		}
		sel.Start = t
	}

	if s := strings.TrimSpace(in.End); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return models.Selection{}, fmt.Errorf("%w: end date %q: expected YYYY-MM-DD", ErrInvalidSelection, s)
		}
		sel.End = t
	}

	return sel, nil
}

func toSet(values, all []string) map[string]struct{} {
	if values == nil {
		values = all
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// Filter returns the rows matching every predicate of sel, in source order.
func Filter(records []models.SalesRecord, sel models.Selection) []models.SalesRecord {
	view := make([]models.SalesRecord, 0)
	if len(sel.Categories) == 0 || len(sel.Regions) == 0 || sel.Start.After(sel.End) {
		return view
	}

	for _, rec := range records {
		if Matches(rec, sel) {
			view = append(view, rec)
		}
	}
	return view
}

func Matches(rec models.SalesRecord, sel models.Selection) bool {
	if _, ok := sel.Categories[rec.Category]; !ok {
		return false
	}
	if _, ok := sel.Regions[rec.Region]; !ok {
		return false
	}
	return !rec.SaleDate.Before(sel.Start) && !rec.SaleDate.After(sel.End)
}
