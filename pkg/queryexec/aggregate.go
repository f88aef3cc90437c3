package queryexec

import (
	"relstore/pkg/tuple"
	"relstore/pkg/types"
)

type aggState struct {
	count int64
	sum   float64
	min   float64
	max   float64
	inited bool
}

func (s *aggState) add(v float64) {
	s.sum += v
	s.count++
	if !s.inited {
		s.min, s.max = v, v
		s.inited = true
		return
	}
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
}

func (s *aggState) value(op types.AggOp) float64 {
	switch op {
	case types.AggMin:
		return s.min
	case types.AggMax:
		return s.max
	case types.AggCount:
		return float64(s.count)
	case types.AggSum:
		return s.sum
	case types.AggAvg:
		if s.count == 0 {
			return 0
		}
		return s.sum / float64(s.count)
	default:
		return 0
	}
}

func numericValue(v tuple.Value) float64 {
	if v.Type == types.RealType {
		return float64(v.Real)
	}
	return float64(v.Int)
}

// Aggregate computes a single aggregate operator over one attribute,
// optionally grouped by another attribute. Ungrouped, it produces
// exactly one output row; grouped, one row per distinct group key,
// emitted once the input is exhausted (this operator is fully blocking,
// the same way the reference Aggregate operator materializes its group
// map before producing output).
type Aggregate struct {
	aggAttrIdx   int
	op           types.AggOp
	groupAttrIdx int // -1 for ungrouped
	attrs        []types.Attribute
	results      []Row
	pos          int
}

// NewAggregate drains input fully, aggregating input.Attrs()[aggAttrIdx]
// with op, grouped by input.Attrs()[groupAttrIdx] if groupAttrIdx >= 0.
func NewAggregate(input Iterator, aggAttrIdx int, op types.AggOp, groupAttrIdx int) (*Aggregate, error) {
	srcAttrs := input.Attrs()
	aggName := aggOpName(op) + "(" + srcAttrs[aggAttrIdx].Name + ")"
	var attrs []types.Attribute
	if groupAttrIdx >= 0 {
		attrs = []types.Attribute{srcAttrs[groupAttrIdx], {Name: aggName, Type: types.RealType, Length: types.FixedFieldSize}}
	} else {
		attrs = []types.Attribute{{Name: aggName, Type: types.RealType, Length: types.FixedFieldSize}}
	}

	if groupAttrIdx < 0 {
		state := &aggState{}
		for {
			row, ok, err := input.Next()
			if err != nil {
				input.Close()
				return nil, err
			}
			if !ok {
				break
			}
			state.add(numericValue(row.Values[aggAttrIdx]))
		}
		input.Close()
		results := []Row{{Values: []tuple.Value{tuple.RealValue(float32(state.value(op)))}}}
		return &Aggregate{aggAttrIdx: aggAttrIdx, op: op, groupAttrIdx: -1, attrs: attrs, results: results}, nil
	}

	order := []any{}
	groups := make(map[any]*aggState)
	groupKeys := make(map[any]tuple.Value)
	for {
		row, ok, err := input.Next()
		if err != nil {
			input.Close()
			return nil, err
		}
		if !ok {
			break
		}
		key := valueKey(row.Values[groupAttrIdx])
		state, ok := groups[key]
		if !ok {
			state = &aggState{}
			groups[key] = state
			groupKeys[key] = row.Values[groupAttrIdx]
			order = append(order, key)
		}
		state.add(numericValue(row.Values[aggAttrIdx]))
	}
	input.Close()

	results := make([]Row, 0, len(order))
	for _, key := range order {
		state := groups[key]
		results = append(results, Row{Values: []tuple.Value{groupKeys[key], tuple.RealValue(float32(state.value(op)))}})
	}
	return &Aggregate{aggAttrIdx: aggAttrIdx, op: op, groupAttrIdx: groupAttrIdx, attrs: attrs, results: results}, nil
}

func aggOpName(op types.AggOp) string {
	switch op {
	case types.AggMin:
		return "MIN"
	case types.AggMax:
		return "MAX"
	case types.AggCount:
		return "COUNT"
	case types.AggSum:
		return "SUM"
	case types.AggAvg:
		return "AVG"
	default:
		return "AGG"
	}
}

func (a *Aggregate) Next() (Row, bool, error) {
	if a.pos >= len(a.results) {
		return Row{}, false, nil
	}
	row := a.results[a.pos]
	a.pos++
	return row, true, nil
}

func (a *Aggregate) Attrs() []types.Attribute { return a.attrs }
func (a *Aggregate) Close()                   { a.pos = len(a.results) }
