package schema

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var boundsSplit = regexp.MustCompile(`[\[\]:]`)

// BuildFromCSV builds both dictionaries from the entity and type rule
// tables. List-valued cells are bracketed, comma separated; parameter type
// cells carry the declared type, optional cardinality bounds like [1:?] or
// [2:?][3:3], a trailing "?" for optional slots and a trailing FIX marker
// for typed (non-entity) slots.
func BuildFromCSV(entityFile, typeFile string) (*Dict, error) {
	d := NewDict()

	rows, header, err := readTable(entityFile)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		name := cell(row, header, "Method")
		if name == "" {
			continue
		}
		e, err := parseEntityRow(row, header)
		if err != nil {
			return nil, fmt.Errorf("%s row %d (%s): %v", entityFile, i+2, name, err)
		}
		d.Entities[name] = e
	}

	rows, header, err = readTable(typeFile)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		name := cell(row, header, "Type")
		if name == "" {
			continue
		}
		var kind TypeKind
		if err := kind.UnmarshalText([]byte(cell(row, header, "Definition_Type"))); err != nil {
			return nil, fmt.Errorf("%s row %d (%s): %v", typeFile, i+2, name, err)
		}
		d.Types[name] = &TypeDef{
			Kind:        kind,
			Items:       listCell(cell(row, header, "Definition_List")),
			Description: cell(row, header, "Description"),
			Reference:   cell(row, header, "Reference_of_documentation"),
		}
	}

	return d, nil
}

func readTable(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %v", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: empty table", path)
	}
	header := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		header[strings.TrimSpace(h)] = i
	}
	return records[1:], header, nil
}

func cell(row []string, header map[string]int, name string) string {
	i, ok := header[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// listCell splits a bracketed list cell; empty cells yield no entries.
func listCell(raw string) []string {
	raw = strings.Trim(raw, "[]")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ", ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseEntityRow(row []string, header map[string]int) (*Entity, error) {
	e := &Entity{
		Supertypes:  listCell(cell(row, header, "Supertypes")),
		Rules:       listCell(cell(row, header, "Rules_Name")),
		Description: cell(row, header, "Description"),
		Reference:   cell(row, header, "Reference_of_documentation"),
	}

	names := listCell(cell(row, header, "Parameter_Name"))
	specs := listCell(cell(row, header, "Parameter_Type"))
	for i, spec := range specs {
		fields := strings.Fields(spec)
		if len(fields) == 0 {
			continue
		}
		if i >= len(names) {
			return nil, fmt.Errorf("parameter type %q has no matching name", spec)
		}
		p, err := parseParameter(names[i], fields)
		if err != nil {
			return nil, err
		}
		e.Parameters = append(e.Parameters, p)
	}

	callNames := listCell(cell(row, header, "Calling_Parameters"))
	callSpecs := listCell(cell(row, header, "Calling_Param_Types"))
	for i, spec := range callSpecs {
		fields := strings.Fields(spec)
		if len(fields) == 0 {
			continue
		}
		if i >= len(callNames) {
			return nil, fmt.Errorf("calling parameter type %q has no matching name", spec)
		}
		cp, err := parseCallingParameter(callNames[i], fields)
		if err != nil {
			return nil, err
		}
		e.CallingParameters = append(e.CallingParameters, cp)
	}

	aliases := listCell(cell(row, header, "Called_from_x_as"))
	roles := listCell(cell(row, header, "Called_element_from_x"))
	for i, alias := range aliases {
		role := ""
		if i < len(roles) {
			role = strings.Fields(roles[i])[0]
		}
		e.CalledAs = append(e.CalledAs, CalledAlias{Alias: alias, Role: role})
	}

	return e, nil
}

func parseParameter(name string, fields []string) (Parameter, error) {
	p := Parameter{
		Name: name,
		Type: strings.TrimSuffix(fields[0], "?"),
		Kind: KindEntity,
	}

	if len(fields) > 1 && strings.Contains(fields[1], "[") {
		if err := parseBounds(fields[1], &p); err != nil {
			return p, err
		}
	}

	last := fields[len(fields)-1]
	if last == "FIX" {
		p.Kind = KindType
		p.Required = len(fields) < 2 || !strings.HasSuffix(fields[len(fields)-2], "?")
	} else {
		p.Required = !strings.HasSuffix(last, "?")
	}

	// A non-list slot holds at most one value; optional slots may be absent.
	if p.List == ListNone {
		p.Max = 1
		if p.Required {
			p.Min = 1
		}
	}
	return p, nil
}

func parseCallingParameter(name string, fields []string) (CallingParameter, error) {
	cp := CallingParameter{
		Name: name,
		Type: strings.TrimSuffix(fields[0], "?"),
		Min:  -1,
		Max:  -1,
	}
	if len(fields) > 1 {
		cp.Role = strings.TrimPrefix(strings.TrimSuffix(fields[1], "?"), "@")
	}
	if len(fields) > 2 && strings.Contains(fields[2], "[") {
		parts := boundsSplit.Split(fields[2], -1)
		if len(parts) < 3 {
			return cp, fmt.Errorf("malformed bounds %q", fields[2])
		}
		min, err := parseBound(parts[1])
		if err != nil {
			return cp, err
		}
		max, err := parseBound(parts[2])
		if err != nil {
			return cp, err
		}
		cp.List = true
		cp.Min, cp.Max = min, max
	}
	cp.Required = !strings.HasSuffix(fields[len(fields)-1], "?")
	return cp, nil
}

func parseBounds(spec string, p *Parameter) error {
	parts := boundsSplit.Split(spec, -1)
	if len(parts) > 5 {
		p.List = ListDouble
		vals := []*int{&p.Min, &p.Max, &p.Min2, &p.Max2}
		for i, idx := range []int{1, 2, 4, 5} {
			v, err := parseBound(parts[idx])
			if err != nil {
				return err
			}
			*vals[i] = v
		}
		return nil
	}
	if len(parts) < 3 {
		return fmt.Errorf("malformed bounds %q", spec)
	}
	min, err := parseBound(parts[1])
	if err != nil {
		return err
	}
	max, err := parseBound(parts[2])
	if err != nil {
		return err
	}
	p.List = ListSingle
	p.Min, p.Max = min, max
	return nil
}

func parseBound(s string) (int, error) {
	if s == "?" {
		return Unbounded, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("malformed bound %q", s)
	}
	return v, nil
}
