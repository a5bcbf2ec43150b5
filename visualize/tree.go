package visualize

import (
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ezoic/nutritrack/pkg/errors"
	"github.com/ezoic/nutritrack/pkg/log"
	"github.com/ezoic/nutritrack/sklearn/tree"
)

// NodePosition is where a node is drawn in plot coordinates. Depth grows
// downward, so Y is the negated depth.
type NodePosition struct {
	ID   int
	X, Y float64
}

// LayoutTree places leaves at consecutive integer X positions in left to
// right order and centers every split node over its two children.
func LayoutTree(nodes []tree.NodeInfo) ([]NodePosition, error) {
	if len(nodes) == 0 {
		return nil, errors.ErrEmptyData
	}

	pos := make([]NodePosition, len(nodes))
	nextLeaf := 0.0
	var place func(id int) (float64, error)
	place = func(id int) (float64, error) {
		if id < 0 || id >= len(nodes) {
			return 0, errors.NewValueErrorf("LayoutTree", "node id %d out of range", id)
		}
		n := nodes[id]
		var x float64
		if n.IsLeaf {
			x = nextLeaf
			nextLeaf++
		} else {
			lx, err := place(n.Left)
			if err != nil {
				return 0, err
			}
			rx, err := place(n.Right)
			if err != nil {
				return 0, err
			}
			x = (lx + rx) / 2
		}
		pos[id] = NodePosition{ID: id, X: x, Y: -float64(n.Depth)}
		return x, nil
	}
	if _, err := place(0); err != nil {
		return nil, err
	}
	return pos, nil
}

// NodeLabel formats the text drawn inside a node.
func NodeLabel(n tree.NodeInfo, featureNames, classNames []string, criterion string) string {
	var b strings.Builder
	if !n.IsLeaf {
		name := fmt.Sprintf("feature_%d", n.Feature)
		if n.Feature < len(featureNames) {
			name = featureNames[n.Feature]
		}
		fmt.Fprintf(&b, "%s <= %.1f\n", name, n.Threshold)
	}
	fmt.Fprintf(&b, "%s = %.3f\n", criterion, n.Impurity)
	fmt.Fprintf(&b, "samples = %d\n", n.NSamples)
	fmt.Fprintf(&b, "value = %v\n", n.ClassCounts)
	fmt.Fprintf(&b, "class = %s", className(n, classNames))
	return b.String()
}

// className resolves the majority class of n to a display name.
func className(n tree.NodeInfo, classNames []string) string {
	idx := majority(n.ClassCounts)
	if idx < len(classNames) {
		return classNames[idx]
	}
	return fmt.Sprint(n.Class)
}

func majority(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}

// NodeColor is the majority class color faded by impurity: pure nodes get
// the full color, evenly mixed nodes are close to white.
func NodeColor(n tree.NodeInfo) color.RGBA {
	if n.NSamples == 0 || len(n.ClassCounts) == 0 {
		return blend(ClassColor(0), 0)
	}
	idx := majority(n.ClassCounts)
	k := float64(len(n.ClassCounts))
	share := float64(n.ClassCounts[idx]) / float64(n.NSamples)
	alpha := 1.0
	if k > 1 {
		alpha = (share - 1/k) / (1 - 1/k)
	}
	return blend(ClassColor(idx), alpha)
}

// TreePlot builds a diagram of the fitted classifier, one box per node
// colored by majority class, with edges from each split to its children.
func TreePlot(dt *tree.DecisionTreeClassifier, featureNames, classNames []string) (*plot.Plot, error) {
	if dt == nil || !dt.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "TreePlot")
	}
	logger := log.GetLoggerWithName("visualize").With(log.OperationKey, log.OperationRender)

	nodes := dt.Nodes()
	pos, err := LayoutTree(nodes)
	if err != nil {
		return nil, err
	}
	criterion, _ := dt.GetParams()["criterion"].(string)

	p := plot.New()
	p.Title.Text = "Decision Tree Status Gizi"
	p.HideAxes()

	for _, n := range nodes {
		if n.IsLeaf {
			continue
		}
		for _, child := range []int{n.Left, n.Right} {
			edge, err := plotter.NewLine(plotter.XYs{
				{X: pos[n.ID].X, Y: pos[n.ID].Y},
				{X: pos[child].X, Y: pos[child].Y},
			})
			if err != nil {
				return nil, errors.Wrap(err, "tree edge")
			}
			edge.Color = color.Gray{Y: 0x80}
			edge.Width = vg.Points(1)
			p.Add(edge)
		}
	}

	xys := make(plotter.XYs, len(nodes))
	labels := make([]string, len(nodes))
	for i, n := range nodes {
		xys[i] = plotter.XY{X: pos[i].X, Y: pos[i].Y}
		labels[i] = NodeLabel(n, featureNames, classNames, criterion)
	}

	boxes, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, errors.Wrap(err, "tree nodes")
	}
	boxes.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  NodeColor(nodes[i]),
			Radius: vg.Points(34),
			Shape:  draw.BoxGlyph{},
		}
	}
	p.Add(boxes)

	nodeText, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, errors.Wrap(err, "tree labels")
	}
	for i := range nodeText.TextStyle {
		nodeText.TextStyle[i].XAlign = text.XCenter
		nodeText.TextStyle[i].YAlign = text.YCenter
		nodeText.TextStyle[i].Font.Size = vg.Points(6)
	}
	p.Add(nodeText)

	maxDepth := float64(dt.GetDepth())
	p.X.Min, p.X.Max = -0.6, float64(dt.GetNLeaves()-1)+0.6
	p.Y.Min, p.Y.Max = -maxDepth-0.5, 0.5

	logger.Debug("Tree plot built",
		log.DepthKey, dt.GetDepth(),
		log.LeavesKey, dt.GetNLeaves(),
	)
	return p, nil
}

// TreePNG renders TreePlot at the default tree size.
func TreePNG(dt *tree.DecisionTreeClassifier, featureNames, classNames []string) ([]byte, error) {
	p, err := TreePlot(dt, featureNames, classNames)
	if err != nil {
		return nil, err
	}
	return RenderPNG(p, TreeWidth, TreeHeight)
}
