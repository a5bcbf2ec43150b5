package tree

import (
	"fmt"
	"slices"
	"strings"
)

// NodeInfo is a flat, read-only view of one tree node.
type NodeInfo struct {
	ID          int     `json:"id"`
	Depth       int     `json:"depth"`
	IsLeaf      bool    `json:"is_leaf"`
	Feature     int     `json:"feature"`   // -1 for leaves
	Threshold   float64 `json:"threshold"` // 0 for leaves
	Impurity    float64 `json:"impurity"`
	NSamples    int     `json:"n_samples"`
	ClassCounts []int   `json:"class_counts"`
	Class       int     `json:"class"` // majority class label
	Left        int     `json:"left"`  // -1 for leaves
	Right       int     `json:"right"` // -1 for leaves
}

// Nodes returns every node in pre-order (root first, left subtree before right).
func (dt *DecisionTreeClassifier) Nodes() []NodeInfo {
	out := make([]NodeInfo, len(dt.nodes_))
	for i, n := range dt.nodes_ {
		info := NodeInfo{
			ID:          n.ID,
			Depth:       n.Depth,
			IsLeaf:      n.IsLeaf,
			Feature:     -1,
			Impurity:    n.Impurity,
			NSamples:    n.NSamples,
			ClassCounts: slices.Clone(n.ClassCounts),
			Class:       dt.classes_[n.PredictClass],
			Left:        -1,
			Right:       -1,
		}
		if !n.IsLeaf {
			info.Feature = n.Feature
			info.Threshold = n.Threshold
			info.Left = n.Left.ID
			info.Right = n.Right.ID
		}
		out[i] = info
	}
	return out
}

// ExportText renders the fitted tree as indented rules:
//
//	|--- calories <= 1975.00
//	|   |--- class: Kurang
//	|--- calories >  1975.00
//	...
//
// featureNames and classNames may be nil; missing names fall back to
// "feature_<i>" and the numeric class label.
func (dt *DecisionTreeClassifier) ExportText(featureNames, classNames []string) string {
	if dt.tree_ == nil {
		return ""
	}

	feature := func(i int) string {
		if i < len(featureNames) {
			return featureNames[i]
		}
		return fmt.Sprintf("feature_%d", i)
	}
	class := func(idx int) string {
		if idx < len(classNames) {
			return classNames[idx]
		}
		return fmt.Sprint(dt.classes_[idx])
	}

	var b strings.Builder
	var walk func(n *TreeNode, depth int)
	walk = func(n *TreeNode, depth int) {
		indent := strings.Repeat("|   ", depth) + "|--- "
		if n.IsLeaf {
			fmt.Fprintf(&b, "%sclass: %s\n", indent, class(n.PredictClass))
			return
		}
		fmt.Fprintf(&b, "%s%s <= %.2f\n", indent, feature(n.Feature), n.Threshold)
		walk(n.Left, depth+1)
		fmt.Fprintf(&b, "%s%s >  %.2f\n", indent, feature(n.Feature), n.Threshold)
		walk(n.Right, depth+1)
	}
	walk(dt.tree_, 0)
	return b.String()
}
