package mlmodel

import (
	"fmt"

	"github.com/mimir-aip/diamond-price/pkg/mlmodel/training"
	"github.com/mimir-aip/diamond-price/pkg/models"
)

// PredictOne scores one diamond with a fitted bundle. The bundle is only read,
// so a rejected label leaves it exactly as it was.
func PredictOne(bundle *training.Bundle, f models.Features) (float64, error) {
	if bundle == nil {
		return 0, fmt.Errorf("no fitted model")
	}
	price, err := bundle.Predict(f)
	if err != nil {
		return 0, fmt.Errorf("failed to predict price: %w", err)
	}
	return price, nil
}
