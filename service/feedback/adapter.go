// Package feedback reports the verdict of a rule-triggered run back to AWS Config.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/aggregate"
)

const (
	resourceType = "AWS::::Account"
	// Config rejects longer annotations.
	maxAnnotationLen = 256
)

var (
	// ErrAlreadyReported is returned by a second Report call.
	ErrAlreadyReported = errors.New("evaluation already reported")
	// ErrNotEvaluated is returned when Report runs before Evaluate.
	ErrNotEvaluated = errors.New("no evaluation to report")
)

// ConfigClientAPI is the interface for the AWS Config client methods used by the adapter.
type ConfigClientAPI interface {
	PutEvaluations(ctx context.Context, params *configservice.PutEvaluationsInput, optFns ...func(*configservice.Options)) (*configservice.PutEvaluationsOutput, error)
}

// State is the lifecycle position of an adapter.
type State int

const (
	StateTriggered State = iota
	StateEvaluated
	StateReported
)

func (s State) String() string {
	switch s {
	case StateTriggered:
		return "Triggered"
	case StateEvaluated:
		return "Evaluated"
	case StateReported:
		return "Reported"
	}
	return "Unknown"
}

// Adapter carries one Config rule invocation from trigger to reported verdict.
type Adapter struct {
	client ConfigClientAPI
	event  model.ConfigRuleEvent

	mu         sync.Mutex
	state      State
	evaluation types.Evaluation
}

// NewAdapter creates an adapter for event in the Triggered state.
func NewAdapter(client ConfigClientAPI, event model.ConfigRuleEvent) *Adapter {
	return &Adapter{client: client, event: event}
}

// NewConfigClient creates the AWS Config client the adapter reports through.
func NewConfigClient(cfg aws.Config) ConfigClientAPI {
	return configservice.NewFromConfig(cfg)
}

// ParseEvent decodes a Config rule event. The nested invokingEvent must be a
// JSON string carrying notificationCreationTime.
func ParseEvent(raw []byte) (model.ConfigRuleEvent, error) {
	inv, err := model.ParseInvocation(raw)
	if err != nil {
		return model.ConfigRuleEvent{}, err
	}
	if inv.Mode != model.InvocationRuleTriggered {
		return model.ConfigRuleEvent{}, errors.New("event is not a config rule invocation")
	}
	return *inv.Event, nil
}

// State returns the current state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Evaluate derives the verdict from annotation. Calling it again before
// Report replaces the verdict.
func (a *Adapter) Evaluate(annotation aggregate.Annotation) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateReported {
		return ErrAlreadyReported
	}
	inv, err := a.event.Decode()
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrFeedback, err)
	}

	a.evaluation = types.Evaluation{
		ComplianceResourceType: aws.String(resourceType),
		ComplianceResourceId:   aws.String(a.event.AccountID),
		ComplianceType:         types.ComplianceTypeCompliant,
		OrderingTimestamp:      aws.Time(inv.NotificationCreationTime.UTC()),
	}
	if !annotation.Empty() {
		a.evaluation.ComplianceType = types.ComplianceTypeNonCompliant
		a.evaluation.Annotation = aws.String(fitAnnotation(annotation))
	}
	a.state = StateEvaluated
	return nil
}

// fitAnnotation renders annotation within the Config size limit, replacing
// the ids that do not fit with a trailing "etc".
func fitAnnotation(annotation aggregate.Annotation) string {
	text := annotation.String()
	if len(text) <= maxAnnotationLen {
		return text
	}
	ids := annotation.Failed
	for n := len(ids) - 1; n >= 0; n-- {
		short := aggregate.Annotation{Failed: append(slices.Clone(ids[:n]), "etc")}.String()
		if len(short) <= maxAnnotationLen {
			return short
		}
	}
	return `{"Failed": ["etc"]}`
}

// Evaluation returns the pending or submitted verdict.
func (a *Adapter) Evaluation() types.Evaluation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.evaluation
}

// Report submits the verdict exactly once.
func (a *Adapter) Report(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateTriggered:
		return ErrNotEvaluated
	case StateReported:
		return ErrAlreadyReported
	}

	_, err := a.client.PutEvaluations(ctx, &configservice.PutEvaluationsInput{
		Evaluations: []types.Evaluation{a.evaluation},
		ResultToken: aws.String(a.event.ResultToken),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrFeedback, err)
	}
	a.state = StateReported
	return nil
}

