package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-ini/ini"
)

// FileName is the name of the configuration file that Loader.Load looks for.
const FileName = ".zpl"

// Loader can be used for loading .zpl configuration as well as overridden with default settings.
type Loader struct {
	// Profile is the AWS profile to use, taking precedence over bucket-based AWS profile setting.
	Profile string

	cfg           *ini.File
	s3clientCache sync.Map
}

// NewLoader returns a Loader with empty configuration.
func NewLoader() *Loader {
	return &Loader{cfg: ini.Empty()}
}

// Load will traverse the directory hierarchy upwards from the working directory to find the first ".zpl" file
// available and load its contents into the Loader.
//
// The name of the .zpl file is returned, or an empty string if none was found.
func (l *Loader) Load(ctx context.Context) (string, error) {
	cur, err := os.Getwd()
	if err != nil {
		return "", err
	}

	path, err := find(ctx, cur)
	if err != nil || path == "" {
		return "", err
	}

	return path, l.LoadFile(path)
}

// LoadFile loads the named file into the Loader, replacing any previous configuration.
func (l *Loader) LoadFile(name string) (err error) {
	if l.cfg, err = ini.Load(name); err != nil {
		l.cfg = ini.Empty()
		return fmt.Errorf("load config file %s error: %w", name, err)
	}

	return nil
}

// find returns the path of the first regular .zpl file in dir or any of its ancestors.
func find(ctx context.Context, dir string) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		path := filepath.Join(dir, FileName)
		switch fi, err := os.Stat(path); {
		case err == nil && !fi.IsDir():
			return path, nil
		case err == nil, errors.Is(err, os.ErrNotExist):
			parent := filepath.Dir(dir)
			if parent == dir {
				return "", nil
			}

			dir = parent
		default:
			return "", err
		}
	}
}

func (l *Loader) section(name string) (*ini.Section, bool) {
	if l.cfg == nil {
		return nil, false
	}

	sec, err := l.cfg.GetSection(name)
	return sec, err == nil
}
