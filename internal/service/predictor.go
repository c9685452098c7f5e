// Package service orchestrates the prediction workflow: ICD selection
// normalization, model calls, rule/ensemble blending and rounding.
package service

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yatis-tahmin-server/internal/cache"
	"github.com/yatis-tahmin-server/internal/domain"
	"github.com/yatis-tahmin-server/internal/model"
)

// Predictor produces blended length-of-stay predictions. The model gateway
// and cache are injected so the workflow can be tested with fakes.
type Predictor struct {
	logger  *logrus.Logger
	gateway domain.ModelGateway
	cache   domain.PredictionCache
}

// PredictParams are the raw form/API inputs for one prediction.
type PredictParams struct {
	AgeGroup   string
	Department string
	ICDMulti   []string
	ICDFree    string
}

// NewPredictor creates a predictor service.
func NewPredictor(logger *logrus.Logger, gateway domain.ModelGateway, predictionCache domain.PredictionCache) *Predictor {
	return &Predictor{
		logger:  logger,
		gateway: gateway,
		cache:   predictionCache,
	}
}

// Predict runs the full prediction workflow. The only hard failure is a
// model-unavailable condition; a missing or invalid ensemble estimate
// degrades to the rule-only estimate.
func (p *Predictor) Predict(ctx context.Context, params PredictParams) (*domain.PredictionResult, error) {
	selection := domain.ParseICDSelection(params.ICDMulti, params.ICDFree)

	icdKey, err := p.gateway.NormalizeKey(ctx, selection.Key())
	if err != nil {
		return nil, fmt.Errorf("normalizing ICD set key: %w", err)
	}

	cacheKey := cache.Key(params.AgeGroup, params.Department, icdKey)
	if cached, ok := p.cache.Get(ctx, cacheKey); ok {
		p.logger.WithField("cache_key", cacheKey).Debug("Prediction served from cache")
		return cached, nil
	}

	rule, err := p.gateway.PredictRule(ctx, params.AgeGroup, params.Department, icdKey)
	if err != nil {
		return nil, fmt.Errorf("rule prediction: %w", err)
	}

	ensemble, err := p.gateway.PredictEnsemble(ctx, params.AgeGroup, params.Department, icdKey, selection.Codes)
	if err != nil {
		// Ensemble failures degrade to the rule-only estimate.
		p.logger.WithError(err).WithFields(logrus.Fields{
			"yasgrup": params.AgeGroup,
			"bolum":   params.Department,
			"icd_key": icdKey,
		}).Warn("Ensemble prediction failed, using rule estimate only")
		ensemble = nil
	}

	weight := clamp01(p.gateway.BlendWeight(ctx))

	result := &domain.PredictionResult{
		AgeGroup:     params.AgeGroup,
		Department:   params.Department,
		ICDCodes:     selection.Codes,
		ICDKey:       icdKey,
		RuleEstimate: rule,
		BlendWeight:  weight,
	}

	if ensemble != nil && isFinite(*ensemble) {
		result.EnsembleEstimate = ensemble
		result.FinalEstimate = (1-weight)*rule + weight*(*ensemble)
	} else {
		result.FinalEstimate = rule
	}
	result.FinalRounded = model.RoundHalfUp(result.FinalEstimate)

	p.cache.Set(ctx, cacheKey, result)

	p.logger.WithFields(logrus.Fields{
		"yasgrup":      params.AgeGroup,
		"bolum":        params.Department,
		"icd_key":      icdKey,
		"pred_rule":    result.RuleEstimate,
		"has_ensemble": result.EnsembleEstimate != nil,
		"pred_final":   result.FinalEstimate,
	}).Info("Prediction completed")

	return result, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
