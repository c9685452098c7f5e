// Package model talks to the external length-of-stay model service, which
// hosts the rule-based estimator, the XGBoost ensemble and the ICD key
// normalization. The service is initialized lazily on first use; if it cannot
// be reached the client reports a model-unavailable condition and the caller
// must not attempt further prediction steps.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/yatis-tahmin-server/internal/domain"
)

// Client is an HTTP gateway to the model service. It implements
// domain.ModelGateway.
type Client struct {
	logger  *logrus.Logger
	cfg     domain.ModelConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker

	mu   sync.Mutex
	meta *metadata
}

// metadata is the model service's self-description, fetched once at lazy
// initialization. XGBRuleBlend may be absent; the configured default applies.
type metadata struct {
	ModelVersion string   `json:"model_version"`
	XGBRuleBlend *float64 `json:"xgb_rule_blend"`
}

type normalizeRequest struct {
	Key string `json:"key"`
}

type normalizeResponse struct {
	Key string `json:"key"`
}

type predictRequest struct {
	AgeGroup   string   `json:"yasgrup"`
	Department string   `json:"bolum"`
	ICDKey     string   `json:"icd_key"`
	ICDCodes   []string `json:"icd,omitempty"`
}

type predictResponse struct {
	Pred *float64 `json:"pred"`
}

// NewClient creates a model service client. No network call is made here;
// the service is contacted lazily on first use.
func NewClient(logger *logrus.Logger, cfg domain.ModelConfig) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "model-service",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		logger:  logger,
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
	}
}

// ensureInit fetches the model metadata on first use. Concurrent first calls
// may fetch redundantly before one wins; the result is deterministic. A
// failed initialization is not cached — the circuit breaker provides the
// backoff — so a model service that comes up later starts serving without a
// process restart.
func (c *Client) ensureInit(ctx context.Context) (*metadata, error) {
	c.mu.Lock()
	meta := c.meta
	c.mu.Unlock()
	if meta != nil {
		return meta, nil
	}

	fetched := &metadata{}
	if err := c.do(ctx, http.MethodGet, "/v1/metadata", nil, fetched); err != nil {
		return nil, &domain.ModelUnavailableError{Cause: err}
	}

	c.mu.Lock()
	if c.meta == nil {
		c.meta = fetched
		c.logger.WithField("model_version", fetched.ModelVersion).Info("Model service initialized")
	}
	meta = c.meta
	c.mu.Unlock()
	return meta, nil
}

// NormalizeKey passes an ICD set key through the model's key normalization.
func (c *Client) NormalizeKey(ctx context.Context, key string) (string, error) {
	if _, err := c.ensureInit(ctx); err != nil {
		return "", err
	}

	var resp normalizeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/keys/normalize", normalizeRequest{Key: key}, &resp); err != nil {
		return "", &domain.ModelUnavailableError{Cause: err}
	}
	return resp.Key, nil
}

// PredictRule returns the rule-based estimate for the given combination.
func (c *Client) PredictRule(ctx context.Context, ageGroup, department, icdKey string) (float64, error) {
	if _, err := c.ensureInit(ctx); err != nil {
		return 0, err
	}

	var resp predictResponse
	req := predictRequest{AgeGroup: ageGroup, Department: department, ICDKey: icdKey}
	if err := c.do(ctx, http.MethodPost, "/v1/predict/rule", req, &resp); err != nil {
		return 0, &domain.ModelUnavailableError{Cause: err}
	}
	if resp.Pred == nil {
		return 0, &domain.ModelUnavailableError{Cause: fmt.Errorf("rule estimate missing from model response")}
	}
	return *resp.Pred, nil
}

// PredictEnsemble returns the ensemble estimate, or nil when the model has no
// ensemble estimate for this combination.
func (c *Client) PredictEnsemble(ctx context.Context, ageGroup, department, icdKey string, icdCodes []string) (*float64, error) {
	if _, err := c.ensureInit(ctx); err != nil {
		return nil, err
	}

	var resp predictResponse
	req := predictRequest{AgeGroup: ageGroup, Department: department, ICDKey: icdKey, ICDCodes: icdCodes}
	if err := c.do(ctx, http.MethodPost, "/v1/predict/ensemble", req, &resp); err != nil {
		return nil, &domain.ModelUnavailableError{Cause: err}
	}
	return resp.Pred, nil
}

// BlendWeight returns the model's configured rule/ensemble blend weight. Any
// failure to read it is non-fatal and yields the configured default.
func (c *Client) BlendWeight(ctx context.Context) float64 {
	meta, err := c.ensureInit(ctx)
	if err != nil || meta.XGBRuleBlend == nil {
		return c.cfg.DefaultBlendWeight
	}
	return *meta.XGBRuleBlend
}

// do performs one breaker-guarded HTTP exchange with the model service and
// decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("encoding request: %w", err)
			}
			reader = bytes.NewReader(payload)
		}

		url := strings.TrimRight(c.cfg.BaseURL, "/") + path
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("model service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("decoding response: %w", err)
			}
		}
		return nil, nil
	})

	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("model service unavailable (circuit breaker open)")
	}
	return err
}
