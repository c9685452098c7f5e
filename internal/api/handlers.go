package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yatis-tahmin-server/internal/domain"
	"github.com/yatis-tahmin-server/internal/service"
)

const modelUnavailableMessage = "Model yüklenemedi. Lütfen daha sonra tekrar deneyin."

// handleHealth handles health check requests. It depends on neither the
// catalog workbooks nor the model service.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleOptions returns the option catalog as JSON.
func (s *Server) handleOptions(c *gin.Context) {
	catalog := s.catalog.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"yasgrup": orEmpty(catalog.AgeGroups),
		"bolum":   orEmpty(catalog.Departments),
		"icd":     orEmpty(catalog.ICDCodes),
	})
}

// handleForm renders the empty prediction form.
func (s *Server) handleForm(c *gin.Context) {
	view := newFormView(s.catalog.Catalog(), s.catalog.WorkbookFound())
	c.HTML(http.StatusOK, "form.html", view)
}

// handleFormSubmit handles the HTML form submission.
func (s *Server) handleFormSubmit(c *gin.Context) {
	ageGroup := c.PostForm("yasgrup")
	department := c.PostForm("bolum")
	icdMulti := c.PostFormArray("icd_list")
	icdFree := c.PostForm("icd_free")

	catalog := s.catalog.Catalog()
	view := newFormView(catalog, s.catalog.WorkbookFound())
	view.ICDFree = icdFree

	if ageGroup == "" || department == "" {
		view.Error = "YaşGrup ve Bölüm seçimi zorunludur."
		c.HTML(http.StatusBadRequest, "form.html", view)
		return
	}

	result, err := s.predictor.Predict(c.Request.Context(), service.PredictParams{
		AgeGroup:   ageGroup,
		Department: department,
		ICDMulti:   icdMulti,
		ICDFree:    icdFree,
	})
	if err != nil {
		s.logger.WithError(err).Error("Form prediction failed")
		view.Error = modelUnavailableMessage
		c.HTML(http.StatusInternalServerError, "form.html", view)
		return
	}

	// Re-render with the submitted selections kept.
	view.AgeGroups = options(catalog.AgeGroups, []string{ageGroup})
	view.Departments = options(catalog.Departments, []string{department})
	view.ICDCodes = options(catalog.ICDCodes, result.ICDCodes)
	view.Result = resultViewOf(result)
	c.HTML(http.StatusOK, "form.html", view)
}

// predictRequest is the /api/predict JSON body. ICD is kept raw so that a
// present-but-not-a-list value can be rejected with a 400 instead of a
// generic bind error.
type predictRequest struct {
	AgeGroup   string          `json:"yasgrup"`
	Department string          `json:"bolum"`
	ICD        json.RawMessage `json:"icd"`
}

// handlePredict handles JSON prediction requests.
func (s *Server) handlePredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body", "details": err.Error()})
		return
	}

	icdCodes, ok := decodeICDList(req.ICD)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "icd must be a list"})
		return
	}

	result, err := s.predictor.Predict(c.Request.Context(), service.PredictParams{
		AgeGroup:   req.AgeGroup,
		Department: req.Department,
		ICDMulti:   icdCodes,
	})
	if err != nil {
		s.logger.WithError(err).Error("API prediction failed")
		status := http.StatusInternalServerError
		code := domain.ErrInternalServer
		if domain.IsModelUnavailable(err) {
			code = domain.ErrModelUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error(), "code": code})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"yasgrup":            result.AgeGroup,
		"bolum":              result.Department,
		"icd":                orEmpty(result.ICDCodes),
		"pred_rule":          result.RuleEstimate,
		"pred_xgb_ens":       result.EnsembleEstimate,
		"pred_final":         result.FinalEstimate,
		"pred_final_rounded": result.FinalRounded,
	})
}

// decodeICDList decodes the raw icd field. Absent and null are fine (no
// codes); anything other than a JSON array of strings is rejected.
func decodeICDList(raw json.RawMessage) ([]string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, true
	}
	if trimmed[0] != '[' {
		return nil, false
	}
	var codes []string
	if err := json.Unmarshal(trimmed, &codes); err != nil {
		return nil, false
	}
	return codes, true
}

// orEmpty keeps JSON arrays as [] instead of null.
func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
