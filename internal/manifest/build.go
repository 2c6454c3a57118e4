package manifest

import (
	"encoding/json"
	"sort"
)

// Build merges scanned components with download counts and audit results.
// Stats and security entries whose key matches no component are dropped.
// Component sections are sorted by path and templates by name.
func Build(components map[string][]Component, templates []Template, downloads map[string]int, security map[string]Security) *Manifest {
	m := &Manifest{Templates: []Template{}}
	for _, typ := range ComponentTypes {
		sec := m.section(typ)
		*sec = []Entry{}
		for _, c := range components[typ] {
			e := Entry{Component: c, Downloads: downloads[c.Key()]}
			if s, ok := security[c.Key()]; ok {
				e.Security = s
			}
			if e.Security.Validators == nil {
				e.Security.Validators = map[string]json.RawMessage{}
			}
			*sec = append(*sec, e)
		}
		sort.SliceStable(*sec, func(i, j int) bool { return (*sec)[i].Path < (*sec)[j].Path })
	}

	m.Templates = append(m.Templates, templates...)
	sort.SliceStable(m.Templates, func(i, j int) bool { return m.Templates[i].Name < m.Templates[j].Name })
	return m
}
