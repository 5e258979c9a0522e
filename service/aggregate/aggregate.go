// Package aggregate turns category groups into the result document, the
// failed-control annotation and a run summary.
package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/thirukguru/aws-cloud-wellness/model"
)

// Annotation is the short form of a run: the ids of every failing control.
type Annotation struct {
	Failed []string `json:"Failed"`
}

// Empty reports whether no control failed.
func (a Annotation) Empty() bool {
	return len(a.Failed) == 0
}

// String returns the annotation text, e.g. {"Failed": ["1.1", "2.3"]}.
func (a Annotation) String() string {
	quoted := make([]string, len(a.Failed))
	for i, id := range a.Failed {
		b, _ := json.Marshal(id)
		quoted[i] = string(b)
	}
	return `{"Failed": [` + strings.Join(quoted, ", ") + `]}`
}

// Summary counts the results of a run.
type Summary struct {
	Total        int
	Passed       int
	Failed       int
	Manual       int
	ScoredPassed int
	ScoredFailed int
}

// Score is the share of scored, automated controls that passed, in percent.
// A run with no scored automated controls scores 100.
func (s Summary) Score() float64 {
	evaluated := s.ScoredPassed + s.ScoredFailed
	if evaluated == 0 {
		return 100
	}
	return float64(s.ScoredPassed) * 100 / float64(evaluated)
}

// Document renders the structured result document:
// {"<label>": {"<index>": result, ...}, ...} with four space indentation.
// Labels are sorted and indexes appear in numeric order, so equal input
// always renders to the same bytes.
func Document(groups []model.CategoryGroup) ([]byte, error) {
	doc := make(map[string]indexedResults, len(groups))
	for _, g := range groups {
		doc[g.Category.Label()] = newIndexedResults(g.Results)
	}
	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result document: %w", err)
	}
	return out, nil
}

// indexedResults marshals as an object keyed by control index. A map[int]
// would sort its keys as strings and put 10 before 2.
type indexedResults []model.ControlResult

func newIndexedResults(results []model.ControlResult) indexedResults {
	byIndex := make(map[int]model.ControlResult, len(results))
	for _, r := range results {
		byIndex[r.Index] = r
	}
	indexes := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	out := make(indexedResults, len(indexes))
	for i, idx := range indexes {
		out[i] = byIndex[idx]
	}
	return out
}

func (r indexedResults) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, res := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(res.Index)))
		buf.WriteByte(':')
		b, err := json.Marshal(res)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Failed returns the ids of failing controls in category then index order.
func Failed(groups []model.CategoryGroup) []string {
	var ids []string
	for _, g := range groups {
		for _, r := range g.Results {
			if r.Result == model.ResultFail {
				ids = append(ids, r.ControlID())
			}
		}
	}
	return ids
}

// Annotate builds the annotation of groups.
func Annotate(groups []model.CategoryGroup) Annotation {
	return Annotation{Failed: Failed(groups)}
}

// Summarize counts the results of groups.
func Summarize(groups []model.CategoryGroup) Summary {
	var s Summary
	for _, g := range groups {
		for _, r := range g.Results {
			s.Total++
			switch r.Result {
			case model.ResultPass:
				s.Passed++
				if r.Scored {
					s.ScoredPassed++
				}
			case model.ResultFail:
				s.Failed++
				if r.Scored {
					s.ScoredFailed++
				}
			case model.ResultManual:
				s.Manual++
			}
		}
	}
	return s
}
