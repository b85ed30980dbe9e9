// Package configuration loads the json5 config files the clipharvest
// binaries read: a committed `<name>.json5`, optionally overridden by a
// gitignored `<name>.local.json5` sitting next to it.
package configuration

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

const ext = ".json5"

func localName(name string) string {
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// decodeFile reads one json5 file into `into`. A missing or empty file
// reports found=false rather than an error.
func decodeFile[T any](path string, into *T) (found bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	return true, json5.Unmarshal(data, into)
}

// ReadConfig reads `name` and merges its `.local` sibling over it, the
// local file winning field by field. os.ErrNotExist when neither file
// exists, so callers can fall back to built-in defaults.
func ReadConfig[T any](name string) (T, error) {
	var out T

	found, err := decodeFile(name, &out)
	if err != nil {
		return out, err
	}

	local := localName(name)
	var override T
	foundLocal, err := decodeFile(local, &override)
	if err != nil {
		return out, err
	}
	if foundLocal {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Debug("merged local config overrides", "path", local)
	}

	if !found && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively walks from the working directory toward the
// filesystem root looking for `name`, so the CLI behaves the same from
// any subdirectory of a collection.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	dir, err := os.Getwd()
	if err != nil {
		return zero, err
	}
	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if !os.IsNotExist(err) {
			return config, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return zero, os.ErrNotExist
		}
		dir = parent
	}
}
