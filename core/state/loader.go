// Package state loads the agent profiles the arbiter works with.
package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/xlog"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported agents file format")

// DefaultDebounce is how long Watch waits for the file to settle.
const DefaultDebounce = 250 * time.Millisecond

// Registrar receives the loaded agents.
type Registrar interface {
	UpsertAgent(types.AgentProfile) error
	UnregisterAgent(id string) error
}

// LoadProfiles reads a JSON or YAML agents file, chosen by extension.
func LoadProfiles(path string) ([]types.AgentProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var configs []AgentConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		configs, err = decodeJSON(data)
	case ".yaml", ".yml":
		configs, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	profiles := make([]types.AgentProfile, 0, len(configs))
	seen := map[string]bool{}
	for i, c := range configs {
		if c.ID == "" {
			return nil, fmt.Errorf("%s: agent #%d has no agent_id", path, i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("%s: duplicate agent_id %q", path, c.ID)
		}
		seen[c.ID] = true
		profiles = append(profiles, c.Profile())
	}
	return profiles, nil
}

func decodeJSON(data []byte) ([]AgentConfig, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []AgentConfig
		err := json.Unmarshal(data, &list)
		return list, err
	}
	var file AgentsFile
	err := json.Unmarshal(data, &file)
	return file.Agents, err
}

func decodeYAML(data []byte) ([]AgentConfig, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var list []AgentConfig
		err := node.Content[0].Decode(&list)
		return list, err
	}
	var file AgentsFile
	err := node.Content[0].Decode(&file)
	return file.Agents, err
}

// Loader keeps a registrar in sync with an agents file. Agents registered
// by other means are left alone.
type Loader struct {
	sync.Mutex
	path    string
	managed map[string]bool
}

func NewLoader(path string) *Loader {
	return &Loader{
		path:    path,
		managed: map[string]bool{},
	}
}

// Apply loads the file and registers, updates or unregisters agents so
// that the registrar matches it.
func (l *Loader) Apply(r Registrar) error {
	l.Lock()
	defer l.Unlock()

	profiles, err := LoadProfiles(l.path)
	if err != nil {
		return err
	}

	current := map[string]bool{}
	var errs []error
	for _, p := range profiles {
		if err := r.UpsertAgent(p); err != nil {
			errs = append(errs, err)
			continue
		}
		current[p.ID] = true
	}
	for id := range l.managed {
		if current[id] {
			continue
		}
		if err := r.UnregisterAgent(id); err != nil {
			xlog.Debug("Agent already gone", "agent", id, "error", err)
		}
	}

	l.managed = current
	xlog.Info("Agents loaded", "file", l.path, "count", len(current))
	return errors.Join(errs...)
}

// Watch reloads the file once it stayed unchanged for debounce after a
// write, until ctx is done.
func (l *Loader) Watch(ctx context.Context, r Registrar, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// editors replace the file on save, only the directory survives it
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		return fmt.Errorf("watching %s: %w", l.path, err)
	}
	target := filepath.Clean(l.path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := l.Apply(r); err != nil {
				xlog.Error("Failed to reload agents", "file", l.path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			xlog.Warn("Agents file watcher error", "file", l.path, "error", err)
		}
	}
}
