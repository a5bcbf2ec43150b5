package server

import (
	"encoding/json"
	"net/http"

	"github.com/ezoic/nutritrack/dataset"
	"github.com/ezoic/nutritrack/features"
	"github.com/ezoic/nutritrack/nutrition"
	"github.com/ezoic/nutritrack/pkg/errors"
	"github.com/ezoic/nutritrack/pkg/log"
	"github.com/ezoic/nutritrack/sklearn/tree"
)

// PredictResponse is the body of /api/predict.
type PredictResponse struct {
	Status        dataset.Status               `json:"status"`
	Probabilities []nutrition.ClassProbability `json:"probabilities"`
}

// DatasetRow is one sample in /api/dataset.
type DatasetRow struct {
	Calories int              `json:"calories"`
	Protein  int              `json:"protein"`
	Activity dataset.Activity `json:"activity"`
	Sleep    int              `json:"sleep"`
	Status   dataset.Status   `json:"status"`
}

// DatasetResponse is the body of /api/dataset.
type DatasetResponse struct {
	Rows    []DatasetRow             `json:"rows"`
	Summary []dataset.FeatureSummary `json:"summary"`
	Counts  map[string]int           `json:"status_counts"`
}

// TreeResponse is the body of /api/tree.
type TreeResponse struct {
	Columns          []string           `json:"columns"`
	Classes          []string           `json:"classes"`
	Depth            int                `json:"depth"`
	Leaves           int                `json:"leaves"`
	TrainingAccuracy float64            `json:"training_accuracy"`
	Importances      map[string]float64 `json:"feature_importances"`
	Nodes            []tree.NodeInfo    `json:"nodes"`
	Text             string             `json:"text"`
}

// PredictRequest is the JSON body of POST /api/predict. Every field is
// required; a missing or null field is rejected rather than left at its zero
// value.
type PredictRequest struct {
	Calories *int              `json:"calories"`
	Protein  *int              `json:"protein"`
	Activity *dataset.Activity `json:"activity"`
	Sleep    *int              `json:"sleep"`
}

// Query checks that every field is present and returns the validated query.
func (req PredictRequest) Query() (features.Query, error) {
	const op = "api.predict"
	switch {
	case req.Calories == nil:
		return features.Query{}, errors.NewValueError(op, "calories is required")
	case req.Protein == nil:
		return features.Query{}, errors.NewValueError(op, "protein is required")
	case req.Activity == nil:
		return features.Query{}, errors.Wrap(errors.ErrUnknownActivity, "activity is required")
	case req.Sleep == nil:
		return features.Query{}, errors.NewValueError(op, "sleep is required")
	}
	q := features.Query{Calories: *req.Calories, Protein: *req.Protein, Activity: *req.Activity, Sleep: *req.Sleep}
	if err := q.Validate(); err != nil {
		return features.Query{}, err
	}
	return q, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleAPIPredict accepts query parameters on GET and a PredictRequest on POST.
func (h *Handler) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	var (
		q   features.Query
		err error
	)
	if r.Method == http.MethodPost {
		q, err = decodePredictRequest(r)
	} else {
		q, err = parseQuery(r.URL.Query())
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pred, err := h.model.Predict(q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, PredictResponse{Status: pred.Status, Probabilities: pred.Probabilities})
}

func decodePredictRequest(r *http.Request) (features.Query, error) {
	var req PredictRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, errors.ErrUnknownActivity) {
			return features.Query{}, err
		}
		return features.Query{}, errors.NewValueErrorf("api.predict", "invalid JSON body: %v", err)
	}
	return req.Query()
}

func (h *Handler) handleAPIDataset(w http.ResponseWriter, r *http.Request) {
	samples := dataset.Load()
	rows := make([]DatasetRow, len(samples))
	for i, s := range samples {
		rows[i] = DatasetRow(s)
	}
	counts := make(map[string]int)
	for s, n := range dataset.StatusCounts() {
		counts[s.String()] = n
	}
	respondJSON(w, http.StatusOK, DatasetResponse{Rows: rows, Summary: dataset.Summary(), Counts: counts})
}

func (h *Handler) handleAPITree(w http.ResponseWriter, r *http.Request) {
	dt := h.model.Tree()
	respondJSON(w, http.StatusOK, TreeResponse{
		Columns:          h.model.Columns(),
		Classes:          h.model.ClassNames(),
		Depth:            dt.GetDepth(),
		Leaves:           dt.GetNLeaves(),
		TrainingAccuracy: h.model.TrainingAccuracy(),
		Importances:      h.model.FeatureImportances(),
		Nodes:            dt.Nodes(),
		Text:             h.model.TreeText(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.GetLoggerWithName("http").Warn("Failed to encode JSON", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}
