package rollup

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jetpham/calhacks25/internal/query"
)

// catalogFile is the YAML shape of a curated catalog override:
//
//	source: events_table
//	rollups:
//	  - dimensions: [type, day]
//	    measures:
//	      - {fn: SUM, column: bid_price}
//	      - {fn: COUNT}
type catalogFile struct {
	Source  string        `yaml:"source"`
	Rollups []rollupEntry `yaml:"rollups"`
}

type rollupEntry struct {
	Name       string         `yaml:"name"`
	Dimensions []string       `yaml:"dimensions"`
	Measures   []measureEntry `yaml:"measures"`
}

type measureEntry struct {
	Fn     string `yaml:"fn"`
	Column string `yaml:"column"`
}

// LoadFile reads a curated catalog from a YAML file, replacing the built-in
// registry. Entry names default to the dimension-derived table name; an
// empty measure list gets the standard measure set.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog file: %w", err)
	}
	if file.Source == "" {
		file.Source = query.DefaultTable
	}

	descriptors := make([]*Descriptor, 0, len(file.Rollups))
	for i, entry := range file.Rollups {
		if len(entry.Dimensions) == 0 {
			return nil, fmt.Errorf("catalog entry %d: dimensions are required", i+1)
		}
		d := &Descriptor{
			Name:       entry.Name,
			Source:     file.Source,
			Dimensions: entry.Dimensions,
		}
		if d.Name == "" {
			d.Name = TableName(entry.Dimensions)
		}
		if len(entry.Measures) == 0 {
			d.Measures = standardMeasures()
		} else {
			for _, m := range entry.Measures {
				fn := query.AggFn(strings.ToUpper(m.Fn))
				if !query.ValidAggFn(fn) {
					return nil, fmt.Errorf("catalog entry %q: unknown aggregate function %q", d.Name, m.Fn)
				}
				d.Measures = append(d.Measures, Aggregate{Fn: fn, Column: m.Column})
			}
		}
		descriptors = append(descriptors, d)
	}
	return New(descriptors...), nil
}
