package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/nutritrack/dataset"
	"github.com/ezoic/nutritrack/features"
	"github.com/ezoic/nutritrack/nutrition"
	"github.com/ezoic/nutritrack/pkg/errors"
	"github.com/ezoic/nutritrack/visualize"
)

var (
	modelOnce sync.Once
	model     *nutrition.Model
	modelErr  error
)

func trainedModel(t *testing.T) *nutrition.Model {
	t.Helper()
	modelOnce.Do(func() { model, modelErr = nutrition.Train() })
	require.NoError(t, modelErr)
	return model
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := NewHandler(trainedModel(t), 8)
	require.NoError(t, err)
	return h
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postForm(path string, v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func validForm() url.Values {
	return url.Values{
		"calories": {"2200"},
		"protein":  {"60"},
		"activity": {"sedentary"},
		"sleep":    {"7"},
	}
}

func TestNewHandler_Errors(t *testing.T) {
	_, err := NewHandler(nil, 8)
	assert.Error(t, err)

	_, err = NewHandler(trainedModel(t), 0)
	assert.Error(t, err, "lru rejects a non-positive size")
}

func TestIndex(t *testing.T) {
	routes := newTestHandler(t).Routes()

	w := serve(t, routes, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "Prediksi Status Gizi Mahasiswa")
	assert.Contains(t, body, "Prediksi Sekarang")
	assert.Contains(t, body, "NutriTrack")
	assert.Contains(t, body, `id="tab-prediksi" checked`)
	assert.Contains(t, body, `name="calories" min="1000" max="5000" value="2200"`)
	assert.Contains(t, body, `<option value="sedentary" selected>Sedentary</option>`)
	assert.Contains(t, body, "<td>2.200</td>", "dataset uses Indonesian grouping")
	assert.Contains(t, body, "|--- calories &lt;= 1975.00")
	assert.NotContains(t, body, "Prediksi Status Gizi: <strong>")

	w = serve(t, routes, httptest.NewRequest(http.MethodGet, "/?tab=dataset", nil))
	assert.Contains(t, w.Body.String(), `id="tab-dataset" checked`)

	w = serve(t, routes, httptest.NewRequest(http.MethodGet, "/?tab=bogus", nil))
	assert.Contains(t, w.Body.String(), `id="tab-prediksi" checked`)
}

func TestPredictForm(t *testing.T) {
	routes := newTestHandler(t).Routes()

	w := serve(t, routes, postForm("/predict", validForm()))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Prediksi Status Gizi: <strong>Normal</strong>")
	assert.Contains(t, body, "<tr><td>Normal</td><td>"+newNumberFormat().Percent(1)+"</td></tr>")
	assert.Contains(t, body, "/chart/probabilities.png?activity=sedentary&amp;calories=2200&amp;protein=60&amp;sleep=7")

	i := strings.Index(body, "<tr><td>Normal</td>")
	j := strings.Index(body, "<tr><td>Kurang</td>")
	assert.Less(t, i, j, "highest probability listed first")
}

func TestPredictForm_InvalidInput(t *testing.T) {
	routes := newTestHandler(t).Routes()

	tests := []struct {
		name   string
		field  string
		value  string
		expect string
	}{
		{"unknown activity", "activity", "jogging", "Aktivitas fisik tidak dikenal."},
		{"not a number", "calories", "banyak", "Input tidak valid"},
		{"below range", "calories", "999", "Input tidak valid"},
		{"above range", "sleep", "13", "Input tidak valid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			form.Set(tt.field, tt.value)
			w := serve(t, routes, postForm("/predict", form))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.expect)
			assert.NotContains(t, w.Body.String(), "Prediksi Status Gizi: <strong>")
		})
	}
}

func TestFailPage(t *testing.T) {
	h := newTestHandler(t)
	req := postForm("/predict", validForm())

	w := httptest.NewRecorder()
	h.failPage(w, req, features.DefaultQuery(), errors.New("tree exploded"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Terjadi kesalahan pada server")
	assert.NotContains(t, w.Body.String(), "tree exploded")

	w = httptest.NewRecorder()
	h.failPage(w, req, features.DefaultQuery(), errors.NewValueError("Query.Validate", "bad sleep"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Input tidak valid")
}

func TestProbabilityChart_Cached(t *testing.T) {
	h := newTestHandler(t)
	routes := h.Routes()
	target := "/chart/probabilities.png?" + validForm().Encode()

	w := serve(t, routes, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, visualize.IsPNG(w.Body.Bytes()))
	assert.Equal(t, 1, h.charts.Len())

	again := serve(t, routes, httptest.NewRequest(http.MethodGet, target, nil))
	assert.Equal(t, w.Body.Bytes(), again.Body.Bytes())
	assert.Equal(t, 1, h.charts.Len())

	// Label and key spellings of the same activity share one entry.
	form := validForm()
	form.Set("activity", "Sedentary")
	serve(t, routes, httptest.NewRequest(http.MethodGet, "/chart/probabilities.png?"+form.Encode(), nil))
	assert.Equal(t, 1, h.charts.Len())

	bad := serve(t, routes, httptest.NewRequest(http.MethodGet, "/chart/probabilities.png?calories=1", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestTreeChart(t *testing.T) {
	routes := newTestHandler(t).Routes()
	w := serve(t, routes, httptest.NewRequest(http.MethodGet, "/chart/tree.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, visualize.IsPNG(w.Body.Bytes()))
}

func TestAPIPredict(t *testing.T) {
	routes := newTestHandler(t).Routes()

	w := serve(t, routes, httptest.NewRequest(http.MethodGet, "/api/predict?"+validForm().Encode(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"status": "Normal",
		"probabilities": [
			{"status": "Normal", "probability": 1},
			{"status": "Kurang", "probability": 0},
			{"status": "Lebih", "probability": 0}
		]
	}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/predict",
		strings.NewReader(`{"calories":2200,"protein":70,"activity":"Sedang","sleep":7}`))
	w = serve(t, routes, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dataset.Normal, resp.Status)
	require.Len(t, resp.Probabilities, 3)
}

func TestAPIPredict_BadRequests(t *testing.T) {
	routes := newTestHandler(t).Routes()

	bodies := map[string]string{
		"unknown activity": `{"calories":2200,"protein":70,"activity":"jogging","sleep":7}`,
		"unknown field":    `{"calories":2200,"protein":70,"activity":"light","sleep":7,"age":20}`,
		"out of range":     `{"calories":20000,"protein":70,"activity":"light","sleep":7}`,
		"malformed":        `{"calories":`,
		"missing activity": `{"calories":2200,"protein":60,"sleep":7}`,
		"null activity":    `{"calories":2200,"protein":60,"activity":null,"sleep":7}`,
		"missing protein":  `{"calories":2200,"activity":"light","sleep":7}`,
		"missing calories": `{"protein":60,"activity":"light","sleep":7}`,
		"null sleep":       `{"calories":2200,"protein":60,"activity":"light","sleep":null}`,
		"empty object":     `{}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			w := serve(t, routes, httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	w := serve(t, routes, httptest.NewRequest(http.MethodGet, "/api/predict?calories=2200", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictRequest_Query(t *testing.T) {
	intp := func(v int) *int { return &v }
	light := dataset.Light

	q, err := PredictRequest{Calories: intp(2200), Protein: intp(0), Activity: &light, Sleep: intp(7)}.Query()
	require.NoError(t, err)
	assert.Equal(t, features.Query{Calories: 2200, Protein: 0, Activity: dataset.Light, Sleep: 7}, q)

	_, err = PredictRequest{Calories: intp(2200), Protein: intp(60), Sleep: intp(7)}.Query()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownActivity))

	_, err = PredictRequest{Calories: intp(2200), Activity: &light, Sleep: intp(7)}.Query()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "protein")
}

func TestAPIDatasetAndTree(t *testing.T) {
	routes := newTestHandler(t).Routes()

	w := serve(t, routes, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var ds DatasetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ds))
	require.Len(t, ds.Rows, 20)
	assert.Equal(t, DatasetRow{Calories: 2200, Protein: 70, Activity: dataset.Moderate, Sleep: 7, Status: dataset.Normal}, ds.Rows[0])
	assert.Equal(t, map[string]int{"Kurang": 7, "Lebih": 4, "Normal": 9}, ds.Counts)
	assert.Len(t, ds.Summary, 3)

	w = serve(t, routes, httptest.NewRequest(http.MethodGet, "/api/tree", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var tr TreeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tr))
	assert.Equal(t, 2, tr.Depth)
	assert.Equal(t, 3, tr.Leaves)
	assert.Len(t, tr.Nodes, 5)
	assert.Equal(t, []string{"Kurang", "Lebih", "Normal"}, tr.Classes)
	assert.Equal(t, 1.0, tr.TrainingAccuracy)
	assert.True(t, strings.HasPrefix(tr.Text, "|--- calories <= 1975.00"))
}

func TestRouting(t *testing.T) {
	routes := newTestHandler(t).Routes()

	w := serve(t, routes, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serve(t, routes, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, routes, httptest.NewRequest(http.MethodDelete, "/api/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestParseQuery(t *testing.T) {
	q, err := parseQuery(url.Values{
		"calories": {" 2500 "}, "protein": {"80"}, "activity": {"Berat"}, "sleep": {"5"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2500, q.Calories)
	assert.Equal(t, dataset.Heavy, q.Activity)

	_, err = parseQuery(url.Values{"calories": {"2500"}})
	assert.Error(t, err)
}
