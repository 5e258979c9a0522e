package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/controls"
	"golang.org/x/sync/errgroup"
)

const evaluationFailureReason = "Unable to evaluate control: "

// RunAll evaluates every category in reporting order.
func RunAll(ctx context.Context, in controls.Inputs) []model.CategoryGroup {
	groups := make([]model.CategoryGroup, 0, len(model.Categories))
	for _, cat := range model.Categories {
		groups = append(groups, RunCategory(ctx, cat, in))
	}
	return groups
}

// RunCategory evaluates the controls of one category. Results keep the
// declared control order whatever order the controls finish in.
func RunCategory(ctx context.Context, cat model.Category, in controls.Inputs) model.CategoryGroup {
	return runControls(ctx, cat, controls.ByCategory(cat), in)
}

func runControls(ctx context.Context, cat model.Category, ctrls []controls.Control, in controls.Inputs) model.CategoryGroup {
	results := make([]model.ControlResult, len(ctrls))

	var g errgroup.Group
	limit := in.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, c := range ctrls {
		g.Go(func() error {
			results[i] = evaluate(ctx, c, in)
			return nil
		})
	}
	_ = g.Wait()

	return model.CategoryGroup{Category: cat, Results: results}
}

// evaluate runs one control and always yields a valid result.
func evaluate(ctx context.Context, c controls.Control, in controls.Inputs) (res model.ControlResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("control panicked", "control", c.ID(), "panic", r)
			res = unevaluated(c, fmt.Errorf("%v", r))
		}
	}()

	res, err := c.Run(ctx, in)
	if err != nil {
		slog.Warn("control could not be evaluated", "control", c.ID(), "error", err)
		return unevaluated(c, err)
	}
	if res.Category != c.Category || res.Index != c.Index {
		err = fmt.Errorf("%w: control %s returned result for %s", model.ErrInvalidControlResult, c.ID(), res.ControlID())
		return invalid(c, res, err)
	}
	if err := res.Validate(); err != nil {
		return invalid(c, res, err)
	}
	return res
}

func unevaluated(c controls.Control, err error) model.ControlResult {
	return model.Failed(c.Category, c.Index, "Control "+c.ID(), true, evaluationFailureReason+err.Error(), nil, nil)
}

func invalid(c controls.Control, res model.ControlResult, err error) model.ControlResult {
	slog.Error("control returned an invalid result", "control", c.ID(), "error", err)
	description := res.Description
	if description == "" {
		description = "Control " + c.ID()
	}
	return model.Failed(c.Category, c.Index, description, res.Scored, evaluationFailureReason+err.Error(), nil, nil)
}
