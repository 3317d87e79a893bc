// Package definition loads the YAML resource and content definitions that
// drive the admin pages, validates them, and serves them from a registry
// with atomic snapshot swap.
package definition

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cebeepredict/admin/model"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Loader scans directories for YAML definition files, parses them, and computes
// SHA-256 checksums.
type Loader struct{}

// NewLoader creates a new definition Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadBuiltin returns the definitions compiled into the binary: the CeBee
// Predict resources and CMS documents.
func (l *Loader) LoadBuiltin() ([]model.DomainDefinition, error) {
	return l.LoadFS(builtinFS, "builtin")
}

// LoadConfigured returns the built-in definitions when builtin is set,
// followed by those found in directories.
func (l *Loader) LoadConfigured(builtin bool, directories []string) ([]model.DomainDefinition, error) {
	var defs []model.DomainDefinition
	if builtin {
		embedded, err := l.LoadBuiltin()
		if err != nil {
			return nil, fmt.Errorf("builtin definitions: %w", err)
		}
		defs = append(defs, embedded...)
	}
	if len(directories) > 0 {
		extra, err := l.LoadAll(directories)
		if err != nil {
			return nil, err
		}
		defs = append(defs, extra...)
	}
	return defs, nil
}

// LoadAll recursively scans directories for *.yaml and *.yml files and parses
// each into a DomainDefinition.
func (l *Loader) LoadAll(directories []string) ([]model.DomainDefinition, error) {
	var defs []model.DomainDefinition

	for _, dir := range directories {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isYAML(path) {
				return nil
			}

			def, err := l.LoadFile(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			defs = append(defs, def)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning directory %s: %w", dir, err)
		}
	}

	return defs, nil
}

// LoadFS parses every YAML file under root in fsys.
func (l *Loader) LoadFS(fsys fs.FS, root string) ([]model.DomainDefinition, error) {
	var defs []model.DomainDefinition

	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		def, err := parse(data, path)
		if err != nil {
			return err
		}
		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return defs, nil
}

// LoadFile loads and parses a single YAML definition file. It computes the
// SHA-256 checksum and records the source file path.
func (l *Loader) LoadFile(path string) (model.DomainDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.DomainDefinition{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return parse(data, path)
}

func parse(data []byte, source string) (model.DomainDefinition, error) {
	var def model.DomainDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return model.DomainDefinition{}, fmt.Errorf("parsing %s: %w", source, err)
	}

	def.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))
	def.SourceFile = source
	return def, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
