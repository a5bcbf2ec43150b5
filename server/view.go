package server

import (
	"github.com/ezoic/nutritrack/dataset"
	"github.com/ezoic/nutritrack/features"
	"github.com/ezoic/nutritrack/nutrition"
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

type bounds struct {
	Min, Max int
}

type probabilityRow struct {
	Status  string
	Percent string
}

type resultView struct {
	Status        string
	Probabilities []probabilityRow
	ChartURL      string
}

type sampleRow struct {
	No       int
	Calories string
	Protein  string
	Activity string
	Sleep    string
	Status   string
}

type summaryRow struct {
	Name, Unit           string
	Min, Max, Mean, Std string
}

type countRow struct {
	Status string
	Count  string
}

type importanceRow struct {
	Column string
	Value  string
}

type pageData struct {
	Tab   string
	Error string

	Query      features.Query
	Activities []option
	Calories   bounds
	Protein    bounds
	Sleep      bounds
	Result     *resultView

	TreeText    string
	Depth       int
	Leaves      int
	Accuracy    string
	Importances []importanceRow

	Rows    []sampleRow
	Summary []summaryRow
	Counts  []countRow
}

// newPage fills everything except Result and Error, with q in the form.
func (h *Handler) newPage(q features.Query) pageData {
	nf := newNumberFormat()
	dt := h.model.Tree()

	page := pageData{
		Tab:      TabPredict,
		Query:    q,
		Calories: bounds{features.MinCalories, features.MaxCalories},
		Protein:  bounds{features.MinProtein, features.MaxProtein},
		Sleep:    bounds{features.MinSleep, features.MaxSleep},
		TreeText: h.model.TreeText(),
		Depth:    dt.GetDepth(),
		Leaves:   dt.GetNLeaves(),
		Accuracy: nf.Percent(h.model.TrainingAccuracy()),
	}

	for _, a := range dataset.Activities() {
		page.Activities = append(page.Activities, option{
			Value:    a.Key(),
			Label:    a.String(),
			Selected: a == q.Activity,
		})
	}

	imp := h.model.FeatureImportances()
	for _, col := range h.model.Columns() {
		page.Importances = append(page.Importances, importanceRow{Column: col, Value: nf.Float(imp[col])})
	}

	for i, s := range dataset.Load() {
		page.Rows = append(page.Rows, sampleRow{
			No:       i + 1,
			Calories: nf.Int(s.Calories),
			Protein:  nf.Int(s.Protein),
			Activity: s.Activity.String(),
			Sleep:    nf.Int(s.Sleep),
			Status:   s.Status.String(),
		})
	}
	for _, fs := range dataset.Summary() {
		page.Summary = append(page.Summary, summaryRow{
			Name: fs.Name, Unit: fs.Unit,
			Min: nf.Float(fs.Min), Max: nf.Float(fs.Max),
			Mean: nf.Float(fs.Mean), Std: nf.Float(fs.StdDev),
		})
	}
	counts := dataset.StatusCounts()
	for _, s := range dataset.Statuses() {
		page.Counts = append(page.Counts, countRow{Status: s.String(), Count: nf.Int(counts[s])})
	}
	return page
}

func (h *Handler) newResult(pred nutrition.Prediction) *resultView {
	nf := newNumberFormat()
	res := &resultView{
		Status:   pred.Status.String(),
		ChartURL: chartURL(pred.Query),
	}
	for _, cp := range pred.Probabilities {
		res.Probabilities = append(res.Probabilities, probabilityRow{
			Status:  cp.Status.String(),
			Percent: nf.Percent(cp.Probability),
		})
	}
	return res
}
