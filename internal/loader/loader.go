package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile loads a schema file, choosing the front end by extension
// (.cue, .yaml, .yml). It returns every problem found.
func LoadFile(path string, opts ...Option) (*Result, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema file not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema file: %v", err)}}
	}
	if info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a file: %s", path)}}
	}

	load, ok := frontEnd(path)
	if !ok {
		return nil, []error{&LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported schema format %q (want .cue, .yaml or .yml)", filepath.Ext(path)), File: path}}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), File: path}}
	}
	res, errs := load(data, path, opts...)
	if res != nil && res.Name == "" {
		res.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return res, errs
}

func frontEnd(path string) (func([]byte, string, ...Option) (*Result, []error), bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE, true
	case ".yaml", ".yml":
		return LoadYAML, true
	default:
		return nil, false
	}
}
