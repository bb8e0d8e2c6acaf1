package query

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Wire format: a JSON array of query objects, e.g.
//
//	{"select": ["day", {"SUM": "bid_price"}],
//	 "from": "events_table",
//	 "where": [{"col": "type", "op": "eq", "val": "click"}],
//	 "group_by": ["day"]}

type specWire struct {
	Select  []json.RawMessage `json:"select"`
	From    string            `json:"from"`
	Where   []predicateWire   `json:"where"`
	GroupBy []string          `json:"group_by"`
	OrderBy []orderingWire    `json:"order_by"`
	Limit   *int64            `json:"limit"`
}

type predicateWire struct {
	Col string      `json:"col"`
	Op  string      `json:"op"`
	Val interface{} `json:"val"`
}

type orderingWire struct {
	Col string `json:"col"`
	Dir string `json:"dir"`
}

// ParseFile reads an ordered sequence of query specs from a JSON file.
// Specs are decoded but not validated; call Validate per spec so one bad
// query does not sink the rest of the file.
func ParseFile(path string) ([]*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queries file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON array of query specs.
func Parse(data []byte) ([]*Spec, error) {
	var wires []specWire
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, fmt.Errorf("decode queries: %w", err)
	}

	specs := make([]*Spec, 0, len(wires))
	for i, w := range wires {
		spec, err := w.toSpec()
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (w specWire) toSpec() (*Spec, error) {
	spec := &Spec{
		From:    w.From,
		GroupBy: w.GroupBy,
		Limit:   w.Limit,
	}
	if spec.From == "" {
		spec.From = DefaultTable
	}

	for _, raw := range w.Select {
		proj, err := decodeProjection(raw)
		if err != nil {
			return nil, err
		}
		spec.Select = append(spec.Select, proj)
	}

	for _, p := range w.Where {
		spec.Where = append(spec.Where, Predicate{Col: p.Col, Op: p.Op, Val: p.Val})
	}

	for _, o := range w.OrderBy {
		dir := strings.ToLower(o.Dir)
		if dir == "" {
			dir = "asc"
		}
		spec.OrderBy = append(spec.OrderBy, Ordering{Col: o.Col, Dir: dir})
	}

	return spec, nil
}

// decodeProjection accepts a bare column name or a single-key aggregate
// object like {"SUM": "bid_price"}.
func decodeProjection(raw json.RawMessage) (Projection, error) {
	var col string
	if err := json.Unmarshal(raw, &col); err == nil {
		return Projection{Column: col}, nil
	}

	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Projection{}, fmt.Errorf("projection must be a column name or an aggregate object: %s", raw)
	}
	if len(obj) != 1 {
		return Projection{}, fmt.Errorf("aggregate projection must have exactly one function key: %s", raw)
	}
	for fn, arg := range obj {
		return Projection{Fn: AggFn(strings.ToUpper(fn)), Arg: arg}, nil
	}
	return Projection{}, fmt.Errorf("empty projection object")
}
