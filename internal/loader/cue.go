package loader

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// documentFields lists the fields each CUE struct may declare. CUE decoding
// ignores unknown fields, so they are checked before decoding.
var documentFields = map[string][]string{
	"":              {"name", "object_types", "relationships", "constraints", "rules"},
	"object_types":  {"name", "kind", "independent", "data_type", "nests"},
	"relationships": {"name", "roles", "derived"},
	"constraints": {
		"name", "kind", "roles", "min", "max", "identifies", "join",
		"target", "values", "ranges", "subset", "superset",
		"subtype", "supertype", "preferred", "ring", "cardinality",
	},
}

// LoadCUE loads a schema from CUE source. The value must be concrete;
// every problem carries the CUE position of the offending field.
func LoadCUE(data []byte, filename string, opts ...Option) (*Result, []error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueErrors(ErrCodeBuildFailed, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueErrors(ErrCodeBuildFailed, err)
	}
	if errs := unknownFields(v); len(errs) > 0 {
		return nil, errs
	}

	var doc Document
	if err := v.Decode(&doc); err != nil {
		return nil, cueErrors(ErrCodeParseFailed, err)
	}

	res, berrs := build(&doc, opts)
	if len(berrs) == 0 {
		return res, nil
	}
	errs := make([]error, 0, len(berrs))
	for _, be := range berrs {
		errs = append(errs, &LoadError{
			Code:    be.code,
			Message: be.at.String() + ": " + be.message,
			Pos:     cueValue(v, be.at).Pos(),
			File:    filename,
		})
	}
	return nil, errs
}

// cueErrors converts every CUE error into a positioned LoadError.
func cueErrors(code string, err error) []error {
	list := errors.Errors(err)
	if len(list) == 0 {
		return []error{&LoadError{Code: code, Message: err.Error()}}
	}
	out := make([]error, 0, len(list))
	for _, e := range list {
		le := &LoadError{Code: code, Message: e.Error()}
		if positions := errors.Positions(e); len(positions) > 0 {
			le.Pos = positions[0]
		}
		out = append(out, le)
	}
	return out
}

// cueValue finds the value addressed by at, falling back to the closest
// enclosing value that exists.
func cueValue(root cue.Value, at location) cue.Value {
	if at.section == "" {
		return root
	}
	section := root.LookupPath(cue.MakePath(cue.Str(at.section)))
	if !section.Exists() {
		return root
	}
	entry := section.LookupPath(cue.MakePath(cue.Index(at.index)))
	if !entry.Exists() {
		return section
	}
	if at.field == "" {
		return entry
	}
	if field := entry.LookupPath(cue.MakePath(cue.Str(at.field))); field.Exists() {
		return field
	}
	return entry
}

func unknownFields(root cue.Value) []error {
	var errs []error
	check := func(v cue.Value, section string, at string) {
		allowed := documentFields[section]
		iter, err := v.Fields()
		if err != nil {
			errs = append(errs, cueErrors(ErrCodeParseFailed, err)...)
			return
		}
		for iter.Next() {
			label := iter.Selector().Unquoted()
			if !slices.Contains(allowed, label) {
				errs = append(errs, &LoadError{
					Code:    ErrCodeParseFailed,
					Message: fmt.Sprintf("%s: field %s not found in type", at, label),
					Pos:     iter.Value().Pos(),
				})
			}
		}
	}

	check(root, "", "document")
	for _, section := range []string{"object_types", "relationships", "constraints"} {
		list := root.LookupPath(cue.MakePath(cue.Str(section)))
		if !list.Exists() {
			continue
		}
		items, err := list.List()
		if err != nil {
			errs = append(errs, cueErrors(ErrCodeParseFailed, err)...)
			continue
		}
		for i := 0; items.Next(); i++ {
			check(items.Value(), section, location{section, i, ""}.String())
		}
	}
	return errs
}
