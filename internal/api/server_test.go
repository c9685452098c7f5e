package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatis-tahmin-server/internal/domain"
	"github.com/yatis-tahmin-server/internal/service"
)

type fakeCatalog struct {
	catalog       *domain.OptionCatalog
	workbookFound bool
}

func (f *fakeCatalog) Catalog() *domain.OptionCatalog { return f.catalog }
func (f *fakeCatalog) WorkbookFound() bool            { return f.workbookFound }

type fakePredictor struct {
	result     *domain.PredictionResult
	err        error
	lastParams service.PredictParams
	calls      int
}

func (f *fakePredictor) Predict(_ context.Context, params service.PredictParams) (*domain.PredictionResult, error) {
	f.calls++
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func floatPtr(v float64) *float64 { return &v }

func newTestServer(catalog *fakeCatalog, pred *fakePredictor) *Server {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &domain.ServerConfig{Host: "127.0.0.1", Port: 0}
	return NewServer(logger, cfg, catalog, pred)
}

func defaultFakes() (*fakeCatalog, *fakePredictor) {
	ens := floatPtr(6.0)
	return &fakeCatalog{catalog: domain.DefaultCatalog(), workbookFound: true},
		&fakePredictor{result: &domain.PredictionResult{
			AgeGroup:         "35-50",
			Department:       "Dahiliye",
			ICDCodes:         []string{"E11", "I10"},
			ICDKey:           "E11||I10",
			RuleEstimate:     4,
			EnsembleEstimate: ens,
			BlendWeight:      0.5,
			FinalEstimate:    5,
			FinalRounded:     5,
		}}
}

func doRequest(s *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(defaultFakes())

	w := doRequest(s, http.MethodGet, "/health", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestOptions_DefaultCatalog(t *testing.T) {
	s := newTestServer(defaultFakes())

	w := doRequest(s, http.MethodGet, "/api/options", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"yasgrup": ["15-25","25-35","35-50","50-65","65+"],
		"bolum": ["Dahiliye","Kardiyoloji","Genel Cerrahi"],
		"icd": ["I10","E11","J18","K35","N39"]
	}`, w.Body.String())
}

func TestOptions_EmptyListsNotNull(t *testing.T) {
	catalog := &fakeCatalog{catalog: &domain.OptionCatalog{}, workbookFound: false}
	_, pred := defaultFakes()
	s := newTestServer(catalog, pred)

	w := doRequest(s, http.MethodGet, "/api/options", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"yasgrup":[],"bolum":[],"icd":[]}`, w.Body.String())
}

func TestPredict_JSON(t *testing.T) {
	catalog, pred := defaultFakes()
	s := newTestServer(catalog, pred)

	w := doRequest(s, http.MethodPost, "/api/predict", "application/json",
		`{"yasgrup":"35-50","bolum":"Dahiliye","icd":["i10"," e11 "]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"i10", " e11 "}, pred.lastParams.ICDMulti)
	assert.Equal(t, "35-50", pred.lastParams.AgeGroup)
	assert.Equal(t, "Dahiliye", pred.lastParams.Department)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "35-50", resp["yasgrup"])
	assert.Equal(t, "Dahiliye", resp["bolum"])
	assert.Equal(t, []interface{}{"E11", "I10"}, resp["icd"])
	assert.InDelta(t, 4.0, resp["pred_rule"].(float64), 1e-9)
	assert.InDelta(t, 6.0, resp["pred_xgb_ens"].(float64), 1e-9)
	assert.InDelta(t, 5.0, resp["pred_final"].(float64), 1e-9)
	assert.InDelta(t, 5.0, resp["pred_final_rounded"].(float64), 1e-9)
}

func TestPredict_NullEnsembleInResponse(t *testing.T) {
	catalog, pred := defaultFakes()
	pred.result.EnsembleEstimate = nil
	pred.result.FinalEstimate = pred.result.RuleEstimate
	pred.result.FinalRounded = 4
	s := newTestServer(catalog, pred)

	w := doRequest(s, http.MethodPost, "/api/predict", "application/json",
		`{"yasgrup":"35-50","bolum":"Dahiliye"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp["pred_xgb_ens"])
	assert.InDelta(t, 4.0, resp["pred_final"].(float64), 1e-9)
}

func TestPredict_ICDNotAList(t *testing.T) {
	s := newTestServer(defaultFakes())

	for _, body := range []string{
		`{"yasgrup":"35-50","bolum":"Dahiliye","icd":"I10"}`,
		`{"yasgrup":"35-50","bolum":"Dahiliye","icd":{"code":"I10"}}`,
		`{"yasgrup":"35-50","bolum":"Dahiliye","icd":42}`,
	} {
		w := doRequest(s, http.MethodPost, "/api/predict", "application/json", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		assert.Contains(t, w.Body.String(), "icd must be a list")
	}
}

func TestPredict_ICDAbsentOrNull(t *testing.T) {
	catalog, pred := defaultFakes()
	s := newTestServer(catalog, pred)

	for _, body := range []string{
		`{"yasgrup":"35-50","bolum":"Dahiliye"}`,
		`{"yasgrup":"35-50","bolum":"Dahiliye","icd":null}`,
	} {
		w := doRequest(s, http.MethodPost, "/api/predict", "application/json", body)
		assert.Equal(t, http.StatusOK, w.Code, "body: %s", body)
	}
	assert.Equal(t, 2, pred.calls)
}

func TestPredict_InvalidJSON(t *testing.T) {
	s := newTestServer(defaultFakes())

	w := doRequest(s, http.MethodPost, "/api/predict", "application/json", `{not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredict_ModelUnavailable(t *testing.T) {
	catalog, _ := defaultFakes()
	pred := &fakePredictor{err: &domain.ModelUnavailableError{Cause: errors.New("connection refused")}}
	s := newTestServer(catalog, pred)

	w := doRequest(s, http.MethodPost, "/api/predict", "application/json",
		`{"yasgrup":"35-50","bolum":"Dahiliye","icd":["I10"]}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "model unavailable")
	assert.Equal(t, domain.ErrModelUnavailable, resp["code"])
}

func TestForm_Get(t *testing.T) {
	s := newTestServer(defaultFakes())

	w := doRequest(s, http.MethodGet, "/", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Yatış Günü Tahmin")
	assert.Contains(t, body, `<option value="35-50"`)
	assert.Contains(t, body, `<option value="Kardiyoloji"`)
	assert.NotContains(t, body, "Varsayılan seçeneklerle")
}

func TestForm_WarnsWhenNoWorkbook(t *testing.T) {
	catalog, pred := defaultFakes()
	catalog.workbookFound = false
	s := newTestServer(catalog, pred)

	w := doRequest(s, http.MethodGet, "/", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Varsayılan seçeneklerle")
}

func TestForm_Head(t *testing.T) {
	s := newTestServer(defaultFakes())

	w := doRequest(s, http.MethodHead, "/", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFormSubmit_RendersResult(t *testing.T) {
	catalog, pred := defaultFakes()
	s := newTestServer(catalog, pred)

	w := doRequest(s, http.MethodPost, "/tahmin", "application/x-www-form-urlencoded",
		"yasgrup=35-50&bolum=Dahiliye&icd_list=I10&icd_list=E11&icd_free=")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "E11||I10")
	assert.Contains(t, body, "<b>5 gün</b>")
	assert.Contains(t, body, `<option value="35-50" selected`)
	assert.Contains(t, body, `<option value="Dahiliye" selected`)
	assert.Equal(t, []string{"I10", "E11"}, pred.lastParams.ICDMulti)
}

func TestFormSubmit_MissingRequiredFields(t *testing.T) {
	s := newTestServer(defaultFakes())

	w := doRequest(s, http.MethodPost, "/tahmin", "application/x-www-form-urlencoded", "icd_free=I10")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "zorunludur")
}

func TestFormSubmit_ModelUnavailable(t *testing.T) {
	catalog, _ := defaultFakes()
	pred := &fakePredictor{err: &domain.ModelUnavailableError{Cause: errors.New("dial tcp refused")}}
	s := newTestServer(catalog, pred)

	w := doRequest(s, http.MethodPost, "/tahmin", "application/x-www-form-urlencoded",
		"yasgrup=35-50&bolum=Dahiliye")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `class="warn"`)
	assert.Contains(t, body, "Model yüklenemedi")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(defaultFakes())

	w := doRequest(s, http.MethodOptions, "/api/predict", "", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(defaultFakes())

	w := doRequest(s, http.MethodGet, "/health", "", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}
