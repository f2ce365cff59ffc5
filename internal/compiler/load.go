package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// SourceExtensions are the file extensions Load understands.
var SourceExtensions = []string{".cue", ".json", ".yaml", ".yml"}

// IsSourceFile reports whether path has one of SourceExtensions.
func IsSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads rules, engines and vehicles from path.
//
// A file is compiled according to its extension. A directory is loaded as
// one CUE instance (all .cue files unified) followed by every document file
// in lexical order. All errors are collected and joined.
func Load(path string) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if !info.IsDir() {
		bundle, errs := loadFile(path)
		return bundle, errors.Join(errs...)
	}

	cueFiles, docFiles, err := findSourceFiles(path)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	if len(cueFiles) == 0 && len(docFiles) == 0 {
		return nil, fmt.Errorf("no rule sources found in %s", path)
	}

	bundle := &Bundle{}
	var errs []error

	if len(cueFiles) > 0 {
		b, cueErrs := loadCUEDir(path)
		errs = append(errs, cueErrs...)
		if b != nil {
			b.Files = cueFiles
			bundle.Merge(b)
		}
	}

	for _, f := range docFiles {
		b, docErrs := loadFile(f)
		errs = append(errs, docErrs...)
		bundle.Merge(b)
	}

	return bundle, errors.Join(errs...)
}

func loadFile(path string) (*Bundle, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{fmt.Errorf("reading %s: %w", path, err)}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return CompileCUE(path, data)
	case ".json", ".yaml", ".yml":
		return DecodeDocumentBytes(path, data)
	default:
		return nil, []error{fmt.Errorf("%s: unsupported rule source extension", path)}
	}
}

// CompileCUE compiles a single CUE source. filename is recorded in
// positions.
func CompileCUE(filename string, src []byte) (*Bundle, []error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}
	bundle, errs := CompileValue(value)
	bundle.Files = []string{filename}
	return bundle, errs
}

// loadCUEDir loads every .cue file in dir as one CUE instance.
func loadCUEDir(dir string) (*Bundle, []error) {
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{fmt.Errorf("%s: no CUE instances loaded", dir)}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{fmt.Errorf("loading CUE files: %w", formatCUEError(inst.Err))}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{fmt.Errorf("building CUE value: %w", formatCUEError(err))}
	}

	return CompileValue(value)
}

// findSourceFiles returns the .cue files and the document files directly
// inside dir, each sorted by name. Subdirectories are not descended into,
// matching how a CUE instance is formed.
func findSourceFiles(dir string) (cueFiles, docFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !IsSourceFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if strings.EqualFold(filepath.Ext(path), ".cue") {
			cueFiles = append(cueFiles, path)
		} else {
			docFiles = append(docFiles, path)
		}
	}
	sort.Strings(cueFiles)
	sort.Strings(docFiles)
	return cueFiles, docFiles, nil
}
