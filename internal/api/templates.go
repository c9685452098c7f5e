package api

import (
	"html/template"

	"github.com/yatis-tahmin-server/internal/domain"
)

// formView is the typed view model behind the prediction form page.
type formView struct {
	// Warn is set when no data workbook was found and the form runs on the
	// default option catalog.
	Warn bool
	// Error holds a user-visible failure message, rendered as a warning block.
	Error string

	AgeGroups   []optionView
	Departments []optionView
	ICDCodes    []optionView
	ICDFree     string

	Result *resultView
}

// optionView is one <option> of a select box.
type optionView struct {
	Value    string
	Selected bool
}

// resultView carries the rendered prediction numbers.
type resultView struct {
	AgeGroup     string
	Department   string
	ICDKey       string
	Rule         float64
	HasEnsemble  bool
	Ensemble     float64
	Final        float64
	FinalRounded int
}

// newFormView builds the initial form view from the option catalog.
func newFormView(catalog *domain.OptionCatalog, workbookFound bool) *formView {
	return &formView{
		Warn:        !workbookFound,
		AgeGroups:   options(catalog.AgeGroups, nil),
		Departments: options(catalog.Departments, nil),
		ICDCodes:    options(catalog.ICDCodes, nil),
	}
}

// options marks the catalog values that appear in selected.
func options(values []string, selected []string) []optionView {
	sel := make(map[string]struct{}, len(selected))
	for _, v := range selected {
		sel[v] = struct{}{}
	}
	out := make([]optionView, 0, len(values))
	for _, v := range values {
		_, ok := sel[v]
		out = append(out, optionView{Value: v, Selected: ok})
	}
	return out
}

// resultViewOf converts a prediction result for rendering.
func resultViewOf(r *domain.PredictionResult) *resultView {
	view := &resultView{
		AgeGroup:     r.AgeGroup,
		Department:   r.Department,
		ICDKey:       r.ICDKey,
		Rule:         r.RuleEstimate,
		Final:        r.FinalEstimate,
		FinalRounded: r.FinalRounded,
	}
	if r.EnsembleEstimate != nil {
		view.HasEnsemble = true
		view.Ensemble = *r.EnsembleEstimate
	}
	return view
}

var formTemplate = template.Must(template.New("form.html").Parse(formPage))

const formPage = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>Yatış Günü Tahmin</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>
    body { font: 16px/1.4 -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif; padding: 24px; background:#f7f7f9; }
    .card { background:#fff; max-width: 760px; margin: 0 auto; padding: 20px; border-radius: 14px; box-shadow: 0 6px 20px rgba(0,0,0,0.08); }
    h1 { margin: 0 0 10px; font-size: 22px; }
    .row { display: grid; grid-template-columns: 1fr; gap: 12px; margin-top: 14px; }
    label { font-weight: 600; }
    select, input[type=text] { width: 100%; padding: 10px; border: 1px solid #ddd; border-radius: 10px; }
    .hint { color:#666; font-size: 13px; }
    .btn { display:inline-block; background:#2f6fed; color:#fff; border:none; border-radius: 10px; padding: 10px 16px; font-weight: 700; cursor:pointer; }
    .result { margin-top: 18px; padding: 12px; background: #f0f6ff; border: 1px solid #cfe3ff; border-radius: 10px; }
    .muted { color:#777; font-size: 13px; }
    .icd-box { height: 180px; }
    .top-note { font-size:13px; color:#666; margin-top:6px; }
    code { background:#f3f3f5; padding:2px 6px; border-radius:6px; }
    .warn { margin-top:12px; padding:10px; border-radius:10px; background:#fff5f5; border:1px solid #ffd5d5; color:#9a0000; }
  </style>
</head>
<body>
  <div class="card">
    <h1>Yatış Günü Tahmin</h1>
    <div class="top-note">Seçtiğiniz YaşGrup + Bölüm + ICD seti için <b>Harman (Rule ∘ XGB_ENS)</b> döner.</div>

    {{if .Warn}}<div class="warn">Uyarı: Veri dosyaları bulunamadı. Varsayılan seçeneklerle çalışıyor.</div>{{end}}
    {{if .Error}}<div class="warn">{{.Error}}</div>{{end}}

    <form method="post" action="/tahmin">
      <div class="row">
        <div>
          <label>YaşGrup</label>
          <select name="yasgrup" required>
            {{range .AgeGroups}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
            {{end}}
          </select>
        </div>
        <div>
          <label>Bölüm</label>
          <select name="bolum" required>
            {{range .Departments}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
            {{end}}
          </select>
        </div>
        <div>
          <label>ICD (çoklu seç)</label>
          <select name="icd_list" multiple class="icd-box">
            {{range .ICDCodes}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
            {{end}}
          </select>
          <div class="hint">CTRL/SHIFT ile çoklu seçim. Alternatif: aşağıya virgüllü yazabilirsiniz.</div>
        </div>
        <div>
          <label>ICD (virgülle yaz — opsiyonel)</label>
          <input type="text" name="icd_free" value="{{.ICDFree}}" placeholder="Örn: I10, E11.9">
        </div>
      </div>
      <div style="margin-top: 12px;">
        <button class="btn" type="submit">Hesapla</button>
      </div>
    </form>

    {{with .Result}}
    <div class="result">
      <b>{{.AgeGroup}} / {{.Department}}</b>
      {{if .ICDKey}}&mdash; <code>{{.ICDKey}}</code>{{end}}<br>
      Rule: {{printf "%.2f" .Rule}} gün
      {{if .HasEnsemble}}&middot; XGB_ENS: {{printf "%.2f" .Ensemble}} gün{{end}}<br>
      Harman: {{printf "%.2f" .Final}} gün &rarr; <b>{{.FinalRounded}} gün</b>
    </div>
    {{end}}

    <p class="muted" style="margin-top: 18px;">Sonuç: Harman (Rule ∘ XGB_ENS) → <b>Pred_Final_Rounded</b>.</p>
  </div>
</body>
</html>
`
