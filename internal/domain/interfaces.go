package domain

import (
	"context"
)

// ModelGateway is the contract with the external length-of-stay model
// service. The rule and ensemble estimators, the key normalization and the
// blend weight all live behind this interface so the prediction path can be
// tested without the real model.
type ModelGateway interface {
	// NormalizeKey passes an ICD set key through the model's own key
	// normalization. The transformation is opaque; callers must not assume
	// idempotence beyond "accepts and returns a string key".
	NormalizeKey(ctx context.Context, key string) (string, error)

	// PredictRule returns the deterministic rule-based estimate.
	PredictRule(ctx context.Context, ageGroup, department, icdKey string) (float64, error)

	// PredictEnsemble returns the gradient-boosted ensemble estimate, or nil
	// when the model has no ensemble estimate for this combination.
	PredictEnsemble(ctx context.Context, ageGroup, department, icdKey string, icdCodes []string) (*float64, error)

	// BlendWeight returns the configured rule/ensemble blend weight. A read
	// failure is non-fatal and yields the default of 0.50.
	BlendWeight(ctx context.Context) float64
}

// CatalogProvider supplies the immutable option catalog.
type CatalogProvider interface {
	Catalog() *OptionCatalog
}

// PredictionCache stores finished prediction results keyed by the canonical
// (age group, department, ICD set key) triple.
type PredictionCache interface {
	Get(ctx context.Context, key string) (*PredictionResult, bool)
	Set(ctx context.Context, key string, result *PredictionResult)
}
