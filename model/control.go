package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Category is one of the five top-level control groupings.
type Category int

const (
	CategoryIAM Category = iota + 1
	CategoryLogging
	CategoryMonitoring
	CategoryNetworking
	CategoryCustom
)

// Categories lists every category in reporting order.
var Categories = []Category{
	CategoryIAM,
	CategoryLogging,
	CategoryMonitoring,
	CategoryNetworking,
	CategoryCustom,
}

var categoryLabels = map[Category]string{
	CategoryIAM:        "IAM",
	CategoryLogging:    "Logging",
	CategoryMonitoring: "Monitoring",
	CategoryNetworking: "Networking",
	CategoryCustom:     "Custom",
}

// Label returns the display label of the category.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return "Unknown"
}

func (c Category) String() string {
	return strconv.Itoa(int(c))
}

// Result is the tri-state outcome of a control.
type Result string

const (
	ResultPass   Result = "Pass"
	ResultFail   Result = "Fail"
	ResultManual Result = "Manual"
)

// ManualReason is attached to every control that cannot be automated.
const ManualReason = "Control not implemented using API, please verify manually"

// ControlResult is the outcome of evaluating one control.
type ControlResult struct {
	Category      Category
	Index         int
	Description   string
	Result        Result
	Scored        bool
	FailReason    string
	Offenders     []string
	OffenderLinks []string
}

// ControlID returns the dotted "<category>.<index>" identifier.
func (r ControlResult) ControlID() string {
	return fmt.Sprintf("%d.%d", r.Category, r.Index)
}

// Passed builds a passing result.
func Passed(cat Category, idx int, description string, scored bool) ControlResult {
	return ControlResult{
		Category:    cat,
		Index:       idx,
		Description: description,
		Result:      ResultPass,
		Scored:      scored,
	}
}

// Failed builds a failing result. links may be shorter than offenders.
func Failed(cat Category, idx int, description string, scored bool, reason string, offenders, links []string) ControlResult {
	return ControlResult{
		Category:      cat,
		Index:         idx,
		Description:   description,
		Result:        ResultFail,
		Scored:        scored,
		FailReason:    reason,
		Offenders:     offenders,
		OffenderLinks: links,
	}
}

// Manual builds a result for a control that must be verified by hand.
func Manual(cat Category, idx int, description string, scored bool) ControlResult {
	return ControlResult{
		Category:    cat,
		Index:       idx,
		Description: description,
		Result:      ResultManual,
		Scored:      scored,
		FailReason:  ManualReason,
	}
}

// Validate checks the structural rules every result must satisfy.
func (r ControlResult) Validate() error {
	if _, ok := categoryLabels[r.Category]; !ok {
		return fmt.Errorf("%w: unknown category %d", ErrInvalidControlResult, r.Category)
	}
	if r.Index <= 0 {
		return fmt.Errorf("%w: control %s has non-positive index", ErrInvalidControlResult, r.ControlID())
	}
	switch r.Result {
	case ResultFail:
		if r.FailReason == "" {
			return fmt.Errorf("%w: control %s fails without a reason", ErrInvalidControlResult, r.ControlID())
		}
	case ResultPass:
		if r.FailReason != "" {
			return fmt.Errorf("%w: control %s passes with a fail reason", ErrInvalidControlResult, r.ControlID())
		}
	case ResultManual:
		if r.FailReason == "" {
			return fmt.Errorf("%w: control %s is manual without a reason", ErrInvalidControlResult, r.ControlID())
		}
	default:
		return fmt.Errorf("%w: control %s has unknown result %q", ErrInvalidControlResult, r.ControlID(), r.Result)
	}
	if len(r.OffenderLinks) > len(r.Offenders) {
		return fmt.Errorf("%w: control %s has more links than offenders", ErrInvalidControlResult, r.ControlID())
	}
	return nil
}

type controlResultJSON struct {
	ControlID     string   `json:"ControlId"`
	Description   string   `json:"Description"`
	Result        Result   `json:"Result"`
	FailReason    string   `json:"failReason"`
	Offenders     []string `json:"Offenders"`
	OffenderLinks []string `json:"OffendersLinks"`
	Scored        bool     `json:"ScoredControl"`
}

// MarshalJSON emits the result with the field names external consumers expect.
func (r ControlResult) MarshalJSON() ([]byte, error) {
	out := controlResultJSON{
		ControlID:     r.ControlID(),
		Description:   r.Description,
		Result:        r.Result,
		FailReason:    r.FailReason,
		Offenders:     r.Offenders,
		OffenderLinks: r.OffenderLinks,
		Scored:        r.Scored,
	}
	if out.Offenders == nil {
		out.Offenders = []string{}
	}
	if out.OffenderLinks == nil {
		out.OffenderLinks = []string{}
	}
	return json.Marshal(out)
}

// CategoryGroup is the ordered list of results for one category.
type CategoryGroup struct {
	Category Category
	Results  []ControlResult
}
