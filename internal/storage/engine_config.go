// Package storage persists named engine profiles as a JSON file so the same
// engine setup can be reused across invocations.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ehlowr0ld/agent-zero/internal/engine"
)

var ErrProfileNotFound = errors.New("engine profile not found")

// EngineProfile is a saved engine configuration under a user-chosen name.
type EngineProfile struct {
	Name         string                   `json:"name"`
	Type         string                   `json:"type"`
	Model        string                   `json:"model,omitempty"`
	WorkingDir   string                   `json:"working_dir,omitempty"`
	SystemPrompt string                   `json:"system_prompt,omitempty"`
	Env          map[string]string        `json:"env,omitempty"`
	MCPServers   []engine.MCPServerConfig `json:"mcp_servers,omitempty"`
	DryRun       bool                     `json:"dry_run,omitempty"`
	Custom       map[string]any           `json:"custom,omitempty"`
}

// ToEngineConfig converts the profile into a runnable engine config.
func (p EngineProfile) ToEngineConfig() engine.Config {
	return engine.Config{
		Type:         p.Type,
		Model:        p.Model,
		WorkingDir:   p.WorkingDir,
		Environment:  p.Env,
		SystemPrompt: p.SystemPrompt,
		MCPServers:   p.MCPServers,
		DryRun:       p.DryRun,
		Custom:       p.Custom,
	}
}

// EngineConfigStorage manages engine profiles in <baseDir>/engines.json.
type EngineConfigStorage struct {
	baseDir string
	mu      sync.RWMutex
}

func NewEngineConfigStorage(baseDir string) *EngineConfigStorage {
	return &EngineConfigStorage{baseDir: baseDir}
}

func (s *EngineConfigStorage) configPath() string {
	return filepath.Join(s.baseDir, "engines.json")
}

// List returns all saved profiles.
func (s *EngineConfigStorage) List() ([]EngineProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listUnlocked()
}

// Get returns the profile with the given name.
func (s *EngineConfigStorage) Get(name string) (*EngineProfile, error) {
	profiles, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// Save writes a profile, replacing any existing profile with the same name.
func (s *EngineConfigStorage) Save(profile EngineProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.listUnlocked()
	if err != nil {
		return err
	}

	found := false
	for i, p := range profiles {
		if p.Name == profile.Name {
			profiles[i] = profile
			found = true
			break
		}
	}
	if !found {
		profiles = append(profiles, profile)
	}

	return s.writeUnlocked(profiles)
}

// Delete removes the profile with the given name.
func (s *EngineConfigStorage) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.listUnlocked()
	if err != nil {
		return err
	}

	kept := make([]EngineProfile, 0, len(profiles))
	found := false
	for _, p := range profiles {
		if p.Name != name {
			kept = append(kept, p)
		} else {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	return s.writeUnlocked(kept)
}

func (s *EngineConfigStorage) listUnlocked() ([]EngineProfile, error) {
	data, err := os.ReadFile(s.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return []EngineProfile{}, nil
		}
		return nil, fmt.Errorf("failed to read engines config: %w", err)
	}

	var profiles []EngineProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse engines config: %w", err)
	}
	return profiles, nil
}

func (s *EngineConfigStorage) writeUnlocked(profiles []EngineProfile) error {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode engines config: %w", err)
	}

	tmpPath := s.configPath() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write engines config: %w", err)
	}
	if err := os.Rename(tmpPath, s.configPath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace engines config: %w", err)
	}
	return nil
}
