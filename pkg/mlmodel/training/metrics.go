package training

import (
	"math"

	"github.com/mimir-aip/diamond-price/pkg/models"
)

func evaluate(predictions, actual []float64) *models.PerformanceMetrics {
	return &models.PerformanceMetrics{
		RMSE:    calculateRMSE(predictions, actual),
		MAE:     calculateMAE(predictions, actual),
		R2Score: calculateR2(predictions, actual),
	}
}

func calculateRMSE(predictions, actual []float64) float64 {
	if len(predictions) != len(actual) || len(predictions) == 0 {
		return 0
	}
	sum := 0.0
	for i := range predictions {
		diff := predictions[i] - actual[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(predictions)))
}

func calculateMAE(predictions, actual []float64) float64 {
	if len(predictions) != len(actual) || len(predictions) == 0 {
		return 0
	}
	sum := 0.0
	for i := range predictions {
		sum += math.Abs(predictions[i] - actual[i])
	}
	return sum / float64(len(predictions))
}

// calculateR2 returns the coefficient of determination. A constant target
// scores 1 when predicted exactly and 0 otherwise.
func calculateR2(predictions, actual []float64) float64 {
	if len(predictions) != len(actual) || len(predictions) == 0 {
		return 0
	}

	meanActual := 0.0
	for _, v := range actual {
		meanActual += v
	}
	meanActual /= float64(len(actual))

	ssRes, ssTot := 0.0, 0.0
	for i := range actual {
		ssRes += (actual[i] - predictions[i]) * (actual[i] - predictions[i])
		ssTot += (actual[i] - meanActual) * (actual[i] - meanActual)
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
