package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ezoic/nutritrack/dataset"
	"github.com/ezoic/nutritrack/features"
	"github.com/ezoic/nutritrack/nutrition"
	"github.com/ezoic/nutritrack/pkg/errors"
	"github.com/ezoic/nutritrack/pkg/log"
	"github.com/ezoic/nutritrack/visualize"
)

//go:embed templates/*.html
var templateFS embed.FS

// Tab ids, in page order.
const (
	TabPredict = "prediksi"
	TabTree    = "visualisasi"
	TabDataset = "dataset"
	TabAbout   = "tentang"
)

// Handler serves the page, charts and API for one trained model.
type Handler struct {
	model   *nutrition.Model
	tmpl    *template.Template
	charts  *lru.Cache[string, []byte]
	treePNG []byte
	logger  log.Logger
}

// NewHandler parses the templates, renders the tree diagram and sizes the
// probability chart cache.
func NewHandler(model *nutrition.Model, chartEntries int) (*Handler, error) {
	if model == nil {
		return nil, errors.NewValueError("NewHandler", "nil model")
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	charts, err := lru.New[string, []byte](chartEntries)
	if err != nil {
		return nil, errors.Wrapf(err, "chart cache size %d", chartEntries)
	}
	treePNG, err := visualize.TreePNG(model.Tree(), model.Columns(), model.ClassNames())
	if err != nil {
		return nil, errors.Wrap(err, "render tree")
	}

	return &Handler{
		model:   model,
		tmpl:    tmpl,
		charts:  charts,
		treePNG: treePNG,
		logger:  log.GetLoggerWithName("handler"),
	}, nil
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /predict", h.handlePredictForm)
	mux.HandleFunc("GET /chart/probabilities.png", h.handleProbabilityChart)
	mux.HandleFunc("GET /chart/tree.png", h.handleTreeChart)
	mux.HandleFunc("GET /api/predict", h.handleAPIPredict)
	mux.HandleFunc("POST /api/predict", h.handleAPIPredict)
	mux.HandleFunc("GET /api/dataset", h.handleAPIDataset)
	mux.HandleFunc("GET /api/tree", h.handleAPITree)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return mux
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	switch tab {
	case TabPredict, TabTree, TabDataset, TabAbout:
	default:
		tab = TabPredict
	}
	page := h.newPage(features.DefaultQuery())
	page.Tab = tab
	h.render(w, http.StatusOK, page)
}

func (h *Handler) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		page := h.newPage(features.DefaultQuery())
		page.Error = "Form tidak valid."
		h.render(w, http.StatusBadRequest, page)
		return
	}

	q, err := parseQuery(r.PostForm)
	if err == nil {
		err = q.Validate()
	}
	if err != nil {
		page := h.newPage(formFallback(r.PostForm))
		page.Error = inputErrorMessage(err)
		h.render(w, http.StatusBadRequest, page)
		return
	}

	pred, err := h.model.Predict(q)
	if err != nil {
		h.failPage(w, r, q, err)
		return
	}
	page := h.newPage(q)
	page.Result = h.newResult(pred)
	h.render(w, http.StatusOK, page)
}

func (h *Handler) handleProbabilityChart(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err == nil {
		err = q.Validate()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := q.Key()
	png, ok := h.charts.Get(key)
	if !ok {
		pred, err := h.model.Predict(q)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		png, err = visualize.ProbabilityPNG(chartBars(pred))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.charts.Add(key, png)
	}
	writePNG(w, png)
}

func (h *Handler) handleTreeChart(w http.ResponseWriter, r *http.Request) {
	writePNG(w, h.treePNG)
}

// fail logs err and answers 400 for input errors, 500 otherwise.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if isInputError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("Request failed",
		log.RequestIDKey, RequestID(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// failPage is fail for the HTML form: the page is re-rendered with the error.
func (h *Handler) failPage(w http.ResponseWriter, r *http.Request, q features.Query, err error) {
	page := h.newPage(q)
	if isInputError(err) {
		page.Error = inputErrorMessage(err)
		h.render(w, http.StatusBadRequest, page)
		return
	}
	h.logger.Error("Request failed",
		log.RequestIDKey, RequestID(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	page.Error = "Terjadi kesalahan pada server. Silakan coba lagi."
	h.render(w, http.StatusInternalServerError, page)
}

func (h *Handler) render(w http.ResponseWriter, status int, page pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html", page); err != nil {
		h.logger.Error("Template failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}

// parseQuery reads calories, protein, activity and sleep from form or URL
// values. It does not check bounds; call Validate for that.
func parseQuery(v url.Values) (features.Query, error) {
	var q features.Query
	ints := []struct {
		name string
		dst  *int
	}{
		{"calories", &q.Calories},
		{"protein", &q.Protein},
		{"sleep", &q.Sleep},
	}
	for _, f := range ints {
		raw := strings.TrimSpace(v.Get(f.name))
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.NewValueErrorf("parseQuery", "%s must be an integer, got %q", f.name, raw)
		}
		*f.dst = n
	}
	a, err := dataset.ParseActivity(strings.TrimSpace(v.Get("activity")))
	if err != nil {
		return q, err
	}
	q.Activity = a
	return q, nil
}

// formFallback keeps whatever parsed from a rejected form so the user sees
// their input again.
func formFallback(v url.Values) features.Query {
	q := features.DefaultQuery()
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get("calories"))); err == nil {
		q.Calories = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get("protein"))); err == nil {
		q.Protein = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get("sleep"))); err == nil {
		q.Sleep = n
	}
	if a, err := dataset.ParseActivity(strings.TrimSpace(v.Get("activity"))); err == nil {
		q.Activity = a
	}
	return q
}

func isInputError(err error) bool {
	return errors.Is(err, errors.ErrInvalidInput) || errors.Is(err, errors.ErrUnknownActivity)
}

func inputErrorMessage(err error) string {
	if errors.Is(err, errors.ErrUnknownActivity) {
		return "Aktivitas fisik tidak dikenal."
	}
	return "Input tidak valid: " + err.Error()
}

func chartBars(pred nutrition.Prediction) []visualize.Bar {
	bars := make([]visualize.Bar, len(pred.Probabilities))
	for i, cp := range pred.Probabilities {
		bars[i] = visualize.Bar{Label: cp.Status.String(), Class: int(cp.Status), Value: cp.Probability}
	}
	return bars
}

// chartURL is the probability chart address for q.
func chartURL(q features.Query) string {
	v := url.Values{}
	v.Set("calories", strconv.Itoa(q.Calories))
	v.Set("protein", strconv.Itoa(q.Protein))
	v.Set("activity", q.Activity.Key())
	v.Set("sleep", strconv.Itoa(q.Sleep))
	return "/chart/probabilities.png?" + v.Encode()
}
