package handlers

import (
	stderrors "errors"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"appliance-dashboard/internal/errors"
	"appliance-dashboard/internal/models"
	"appliance-dashboard/internal/services"
	"github.com/starfederation/datastar-go/datastar"
)

// selectionFromQuery reads repeated category/region parameters. An absent
// parameter selects everything, a present but blank one selects nothing.
func selectionFromQuery(q url.Values) models.SelectionInput {
	return models.SelectionInput{
		Categories: multiValue(q, "category"),
		Regions:    multiValue(q, "region"),
		Start:      strings.TrimSpace(q.Get("start")),
		End:        strings.TrimSpace(q.Get("end")),
	}
}

func multiValue(q url.Values, key string) []string {
	raw, ok := q[key]
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}

// selectionFromSignals reads the filter signals sent by the page.
func selectionFromSignals(r *http.Request) (models.SelectionInput, error) {
	var in models.SelectionInput
	if err := datastar.ReadSignals(r, &in); err != nil {
		return models.SelectionInput{}, errors.BadRequestWrap(err, "Invalid signals payload")
	}
	return in, nil
}

// tickError maps dashboard failures onto client-facing errors.
func tickError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, services.ErrInvalidSelection):
		return errors.BadRequestWrap(err, "Invalid filter selection").WithDetails(err.Error())
	case stderrors.Is(err, services.ErrSchema),
		stderrors.Is(err, services.ErrMalformedRow),
		stderrors.Is(err, services.ErrNoRecords):
		return errors.DataUnavailable(err, "Dataset could not be parsed").WithDetails(err.Error())
	case stderrors.Is(err, fs.ErrNotExist), stderrors.Is(err, fs.ErrPermission):
		return errors.DataUnavailable(err, "Dataset file is not readable")
	default:
		return errors.DataUnavailable(err, "Dataset unavailable")
	}
}
