// Package nutrition trains the nutrition status classifier on the fixed
// student dataset and answers prediction queries.
//
// A Model is built once with Train and is read-only afterwards, so a single
// instance can serve every request of the process.
package nutrition

import (
	"slices"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/nutritrack/dataset"
	"github.com/ezoic/nutritrack/features"
	"github.com/ezoic/nutritrack/metrics"
	"github.com/ezoic/nutritrack/pkg/errors"
	"github.com/ezoic/nutritrack/pkg/log"
	"github.com/ezoic/nutritrack/sklearn/tree"
)

// Fixed training hyperparameters.
const (
	MaxDepth    = 3
	RandomState = 42
)

// ClassProbability is the predicted probability of one status.
type ClassProbability struct {
	Status      dataset.Status `json:"status"`
	Probability float64        `json:"probability"`
}

// Prediction is the model's answer to a Query.
type Prediction struct {
	Query  features.Query `json:"query"`
	Status dataset.Status `json:"status"`
	// Probabilities is sorted by descending probability, ties in class order.
	Probabilities []ClassProbability `json:"probabilities"`
	// Path lists the tree node ids visited, root first.
	Path []int `json:"path"`
}

// ProbabilityMap returns the status -> probability mapping.
func (p Prediction) ProbabilityMap() map[dataset.Status]float64 {
	m := make(map[dataset.Status]float64, len(p.Probabilities))
	for _, cp := range p.Probabilities {
		m[cp.Status] = cp.Probability
	}
	return m
}

// Model is the trained classifier together with its encoder.
type Model struct {
	encoder *features.Encoder
	clf     *tree.DecisionTreeClassifier
	classes []dataset.Status
	logger  log.Logger

	trainingAccuracy float64
	confusion        *mat.Dense
	trainedAt        time.Time
}

// Train encodes the fixed dataset and fits the classifier.
//
// It fails if the encoder's columns differ from the columns the classifier
// was trained on, or if the classifier reports a class outside Status.
func Train() (*Model, error) {
	logger := log.GetLoggerWithName("nutrition")
	start := time.Now()

	encoder, err := features.NewEncoder()
	if err != nil {
		return nil, err
	}

	samples := dataset.Load()
	X, err := encoder.Encode(samples)
	if err != nil {
		return nil, errors.Wrap(err, "encode training data")
	}
	y := encoder.Labels(samples)

	clf := tree.NewDecisionTreeClassifier(
		tree.WithMaxDepth(MaxDepth),
		tree.WithDTRandomState(RandomState),
		tree.WithFeatureNames(encoder.Columns()),
	)
	if err := clf.Fit(X, y); err != nil {
		return nil, errors.Wrap(err, "fit decision tree")
	}

	m := &Model{encoder: encoder, clf: clf, logger: logger, trainedAt: time.Now()}
	if err := m.checkModel(X); err != nil {
		return nil, err
	}
	if err := m.evaluate(X, y); err != nil {
		return nil, err
	}

	logger.Info("Model ready",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseStartup,
		log.SamplesKey, len(samples),
		log.FeaturesKey, features.NumColumns,
		log.DepthKey, clf.GetDepth(),
		log.LeavesKey, clf.GetNLeaves(),
		"training_accuracy", m.trainingAccuracy,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return m, nil
}

// checkModel asserts that inference will see the columns training saw.
func (m *Model) checkModel(X mat.Matrix) error {
	_, c := X.Dims()
	if c != m.clf.NFeatures() {
		return errors.Wrapf(errors.ErrColumnMismatch, "model has %d features, encoder produced %d", m.clf.NFeatures(), c)
	}
	if err := features.MatchColumns(m.clf.FeatureNamesIn(), m.encoder.Columns()); err != nil {
		return err
	}

	probe, err := m.encoder.EncodeQuery(features.DefaultQuery())
	if err != nil {
		return errors.Wrap(err, "encode probe query")
	}
	if _, pc := probe.Dims(); pc != c {
		return errors.Wrapf(errors.ErrColumnMismatch, "query has %d columns, training data %d", pc, c)
	}

	for _, label := range m.clf.Classes() {
		s := dataset.Status(label)
		if !s.Valid() {
			return errors.Wrapf(errors.ErrUnknownStatus, "class %d", label)
		}
		m.classes = append(m.classes, s)
	}
	return nil
}

func (m *Model) evaluate(X, y *mat.Dense) error {
	pred, err := m.clf.Predict(X)
	if err != nil {
		return err
	}
	n, _ := X.Dims()
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, y.At(i, 0))
		yPred.SetVec(i, pred.At(i, 0))
	}

	acc, err := metrics.Accuracy(yTrue, yPred)
	if err != nil {
		return err
	}
	cm, err := metrics.ConfusionMatrix(yTrue, yPred, m.clf.Classes())
	if err != nil {
		return err
	}
	m.trainingAccuracy = acc
	m.confusion = cm
	return nil
}

// Predict validates and encodes q, then returns the predicted status and the
// class probabilities.
func (m *Model) Predict(q features.Query) (Prediction, error) {
	if err := q.Validate(); err != nil {
		return Prediction{}, err
	}
	X, err := m.encoder.EncodeQuery(q)
	if err != nil {
		return Prediction{}, err
	}

	proba, err := m.clf.PredictProba(X)
	if err != nil {
		return Prediction{}, err
	}
	pred, err := m.clf.Predict(X)
	if err != nil {
		return Prediction{}, err
	}
	path, err := m.clf.DecisionPath(X.RawRowView(0))
	if err != nil {
		return Prediction{}, err
	}

	probs := make([]ClassProbability, len(m.classes))
	for j, s := range m.classes {
		probs[j] = ClassProbability{Status: s, Probability: proba.At(0, j)}
	}
	sort.SliceStable(probs, func(a, b int) bool {
		return probs[a].Probability > probs[b].Probability
	})

	status := dataset.Status(int(pred.At(0, 0)))
	m.logger.Debug("Prediction",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		"query", q.Key(),
		"status", status.String(),
	)

	return Prediction{Query: q, Status: status, Probabilities: probs, Path: path}, nil
}

// Classes returns the statuses in the classifier's class order.
func (m *Model) Classes() []dataset.Status { return slices.Clone(m.classes) }

// ClassNames returns the display labels in class order.
func (m *Model) ClassNames() []string {
	names := make([]string, len(m.classes))
	for i, s := range m.classes {
		names[i] = s.String()
	}
	return names
}

// Columns returns the feature columns the classifier was trained on.
func (m *Model) Columns() []string { return m.encoder.Columns() }

// Tree returns the fitted classifier. Callers must not modify it.
func (m *Model) Tree() *tree.DecisionTreeClassifier { return m.clf }

// TreeText renders the fitted tree as indented rules.
func (m *Model) TreeText() string {
	return m.clf.ExportText(m.Columns(), m.ClassNames())
}

// TrainingAccuracy is the accuracy on the training rows.
func (m *Model) TrainingAccuracy() float64 { return m.trainingAccuracy }

// ConfusionMatrix returns a copy of the training confusion matrix, rows are
// true classes and columns predicted classes, both in Classes() order.
func (m *Model) ConfusionMatrix() *mat.Dense { return mat.DenseCopyOf(m.confusion) }

// FeatureImportances returns the normalized importance of each column.
func (m *Model) FeatureImportances() map[string]float64 {
	imp := m.clf.GetFeatureImportances()
	out := make(map[string]float64, len(imp))
	for i, name := range m.Columns() {
		out[name] = imp[i]
	}
	return out
}

// TrainedAt is when Train finished fitting.
func (m *Model) TrainedAt() time.Time { return m.trainedAt }
