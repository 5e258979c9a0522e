package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/controls"
)

func passing(cat model.Category, idx int, delay time.Duration) controls.Control {
	return controls.Control{Category: cat, Index: idx, Run: func(ctx context.Context, _ controls.Inputs) (model.ControlResult, error) {
		time.Sleep(delay)
		return model.Passed(cat, idx, "passing control", true), nil
	}}
}

func TestRunControlsKeepsDeclaredOrder(t *testing.T) {
	var ctrls []controls.Control
	for i := 1; i <= 8; i++ {
		// Later controls finish first.
		ctrls = append(ctrls, passing(model.CategoryIAM, i, time.Duration(9-i)*time.Millisecond))
	}

	group := runControls(context.Background(), model.CategoryIAM, ctrls, controls.Inputs{Concurrency: 4})

	require.Len(t, group.Results, 8)
	assert.Equal(t, model.CategoryIAM, group.Category)
	for i, r := range group.Results {
		assert.Equal(t, i+1, r.Index)
		assert.Equal(t, model.ResultPass, r.Result)
	}
}

func TestRunControlsRespectsConcurrency(t *testing.T) {
	var running, peak int32
	var ctrls []controls.Control
	for i := 1; i <= 6; i++ {
		idx := i
		ctrls = append(ctrls, controls.Control{Category: model.CategoryLogging, Index: idx, Run: func(ctx context.Context, _ controls.Inputs) (model.ControlResult, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return model.Passed(model.CategoryLogging, idx, "passing control", true), nil
		}})
	}

	runControls(context.Background(), model.CategoryLogging, ctrls, controls.Inputs{Concurrency: 2})
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))

	// Zero concurrency still runs everything, one at a time.
	atomic.StoreInt32(&peak, 0)
	group := runControls(context.Background(), model.CategoryLogging, ctrls, controls.Inputs{})
	assert.Len(t, group.Results, 6)
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestEvaluateTurnsFailuresIntoFailedResults(t *testing.T) {
	tests := []struct {
		name        string
		run         func(context.Context, controls.Inputs) (model.ControlResult, error)
		description string
		scored      bool
		reason      string
	}{
		{
			name: "error",
			run: func(context.Context, controls.Inputs) (model.ControlResult, error) {
				return model.ControlResult{}, errors.New("AccessDenied: not authorized")
			},
			description: "Control 2.5",
			scored:      true,
			reason:      "Unable to evaluate control: AccessDenied: not authorized",
		},
		{
			name: "panic",
			run: func(context.Context, controls.Inputs) (model.ControlResult, error) {
				panic("config recorder missing")
			},
			description: "Control 2.5",
			scored:      true,
			reason:      "Unable to evaluate control: config recorder missing",
		},
		{
			name: "wrong id",
			run: func(context.Context, controls.Inputs) (model.ControlResult, error) {
				return model.Passed(model.CategoryLogging, 6, "Ensure bucket logging", false), nil
			},
			description: "Ensure bucket logging",
			scored:      false,
			reason:      "Unable to evaluate control: ",
		},
		{
			name: "fail without reason",
			run: func(context.Context, controls.Inputs) (model.ControlResult, error) {
				return model.ControlResult{Category: model.CategoryLogging, Index: 5, Description: "Ensure config", Result: model.ResultFail, Scored: true}, nil
			},
			description: "Ensure config",
			scored:      true,
			reason:      "Unable to evaluate control: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := controls.Control{Category: model.CategoryLogging, Index: 5, Run: tt.run}
			res := evaluate(context.Background(), c, controls.Inputs{})

			assert.Equal(t, "2.5", res.ControlID())
			assert.Equal(t, model.ResultFail, res.Result)
			assert.Equal(t, tt.description, res.Description)
			assert.Equal(t, tt.scored, res.Scored)
			assert.True(t, strings.HasPrefix(res.FailReason, tt.reason), res.FailReason)
			assert.NoError(t, res.Validate())
		})
	}
}

func TestRunCategoryUsesCatalogue(t *testing.T) {
	group := RunCategory(context.Background(), model.CategoryNetworking, controls.Inputs{
		Snapshot: &model.Snapshot{Regions: []string{"us-east-1"}},
		Regional: &mockRegional{},
	})

	require.Len(t, group.Results, 5)
	for i, r := range group.Results {
		assert.Equal(t, i+1, r.Index)
		assert.Equal(t, model.ResultPass, r.Result, r.ControlID())
	}
}
