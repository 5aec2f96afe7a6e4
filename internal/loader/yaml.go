package loader

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

var yamlLine = regexp.MustCompile(`line (\d+)`)

// LoadYAML loads a schema from YAML. Unknown fields are rejected. Build
// problems carry the line and column of the offending field.
func LoadYAML(data []byte, filename string, opts ...Option) (*Result, []error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, []error{&LoadError{Code: ErrCodeMissingField, Message: "document is empty", File: filename}}
		}
		return nil, yamlErrors(err, filename)
	}

	res, berrs := build(&doc, opts)
	if len(berrs) == 0 {
		return res, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeParseFailed, Message: err.Error(), File: filename}}
	}
	errs := make([]error, 0, len(berrs))
	for _, be := range berrs {
		le := &LoadError{Code: be.code, Message: be.at.String() + ": " + be.message, File: filename}
		if n := yamlNode(&root, be.at); n != nil {
			le.Line, le.Column = n.Line, n.Column
		}
		errs = append(errs, le)
	}
	return nil, errs
}

// yamlErrors splits a decoder error into one LoadError per reported line.
func yamlErrors(err error, filename string) []error {
	msgs := []string{err.Error()}
	var te *yaml.TypeError
	if errors.As(err, &te) {
		msgs = te.Errors
	}
	out := make([]error, 0, len(msgs))
	for _, msg := range msgs {
		le := &LoadError{Code: ErrCodeParseFailed, Message: msg, File: filename}
		if m := yamlLine.FindStringSubmatch(msg); m != nil {
			le.Line, _ = strconv.Atoi(m[1])
		}
		out = append(out, le)
	}
	return out
}

// yamlNode finds the node addressed by at, falling back to the closest
// enclosing node that exists.
func yamlNode(root *yaml.Node, at location) *yaml.Node {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil
	}
	doc := root.Content[0]
	if at.section == "" {
		return doc
	}
	section := mappingValue(doc, at.section)
	if section == nil {
		return doc
	}
	if section.Kind != yaml.SequenceNode || at.index >= len(section.Content) {
		return section
	}
	entry := section.Content[at.index]
	if at.field == "" {
		return entry
	}
	if v := mappingValue(entry, at.field); v != nil {
		return v
	}
	return entry
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
