package analyzer

import "github.com/sqlsage/sqlsage/internal/plan"

// Engine walks a normalized plan and turns rule findings into rendered
// recommendations. It holds no mutable state, so one Engine serves any
// number of concurrent evaluations.
type Engine struct {
	renderer  Renderer
	nodeRules []nodeRule
	planRules []planRule
}

func New(renderer Renderer) *Engine {
	return &Engine{
		renderer:  renderer,
		nodeRules: defaultNodeRules,
		planRules: defaultPlanRules,
	}
}

// Evaluate visits every node exactly once, depth-first and pre-order with
// children in normalized order, applies each node rule at each node and each
// plan rule once, and renders the findings in traversal order. Identical
// inputs yield identical output.
func (e *Engine) Evaluate(root *plan.Node, ctx *Context) []Recommendation {
	if root == nil {
		return nil
	}
	if ctx == nil {
		ctx = &Context{}
	}

	var found []finding
	e.walk(root, ctx, &found)
	for _, rule := range e.planRules {
		found = append(found, rule(root, ctx)...)
	}

	recs := make([]Recommendation, 0, len(found))
	for _, f := range found {
		text := e.renderer.Render(f.Type, f.Params)
		recs = append(recs, Recommendation{
			Type:       f.Type,
			Severity:   f.Severity,
			Message:    text.Message,
			Suggestion: text.Suggestion,
			Details:    text.Details,
		})
	}
	return recs
}

func (e *Engine) walk(n *plan.Node, ctx *Context, found *[]finding) {
	for _, rule := range e.nodeRules {
		*found = append(*found, rule(n, ctx)...)
	}
	for _, child := range n.Children {
		e.walk(child, ctx, found)
	}
}
