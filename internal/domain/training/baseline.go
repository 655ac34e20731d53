package training

import (
	"fmt"
	"math"

	"github.com/okian/xpts/internal/domain/model"
	"github.com/sajari/regression"
)

// BaselineMAE fits an ordinary least-squares model on the training rows and
// returns its MAE on the validation rows. It is a diagnostic only.
func BaselineMAE(train, validation []model.FeatureVector) (float64, error) {
	if len(train) <= model.NumFeatures {
		return math.NaN(), fmt.Errorf("%w: %d rows for %d features", ErrBaseline, len(train), model.NumFeatures)
	}

	var r regression.Regression
	r.SetObserved("total_points")
	for i, name := range model.FeatureNames {
		r.SetVar(i, name)
	}
	for _, v := range train {
		r.Train(regression.DataPoint(v.Label, v.Features))
	}
	if err := r.Run(); err != nil {
		return math.NaN(), fmt.Errorf("%w: %w", ErrBaseline, err)
	}

	predicted := make([]float64, len(validation))
	actual := make([]float64, len(validation))
	for i, v := range validation {
		p, err := r.Predict(v.Features)
		if err != nil {
			return math.NaN(), fmt.Errorf("%w: %w", ErrBaseline, err)
		}
		predicted[i] = p
		actual[i] = v.Label
	}
	mae := MeanAbsoluteError(predicted, actual)
	if math.IsNaN(mae) || math.IsInf(mae, 0) {
		return math.NaN(), fmt.Errorf("%w: non-finite error (singular design)", ErrBaseline)
	}
	return mae, nil
}
