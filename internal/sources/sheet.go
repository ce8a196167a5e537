package sources

import (
	"context"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
)

// ValuesReader is satisfied by *sheets.Client.
type ValuesReader interface {
	ReadValues(ctx context.Context, rng string) ([][]any, error)
}

// ReadSheet loads a booking export range from a spreadsheet.
func ReadSheet(ctx context.Context, r ValuesReader, rng string) ([]models.RawRecord, error) {
	values, err := r.ReadValues(ctx, rng)
	if err != nil {
		return nil, err
	}
	return ValuesToRecords(values)
}
