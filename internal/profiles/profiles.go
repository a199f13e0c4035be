// Package profiles loads named distribution configurations from TOML
package profiles

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"sheetsort/domain/core"
	"sheetsort/domain/distribution"

	"github.com/BurntSushi/toml"
)

// DefaultName is the profile used when none is requested
const DefaultName = "default"

// DefaultProfilesTOML documents the file format and holds the built-in
// profiles
const DefaultProfilesTOML = `# Distribution profiles
#
# group_key_index is the zero-based column position (1 = column B).
# group_key_column addresses the column by header name instead.
# source_sheet names the sheet to distribute; empty means the first sheet.

[[profile]]
name = "default"
description = "Praxis-Verteilung nach Spalte B"
group_key_index = 1

[[profile]]
name = "dashboard"
description = "Dashboard-Zeilen nach Aufgabenbereich"
source_sheet = "Dashboard"
group_key_column = "Aufgabenbereich"
`

type profileEntry struct {
	Name           string `toml:"name"`
	Description    string `toml:"description"`
	SourceSheet    string `toml:"source_sheet"`
	GroupKeyIndex  *int   `toml:"group_key_index"`
	GroupKeyColumn string `toml:"group_key_column"`
}

type profilesFile struct {
	Profile []profileEntry `toml:"profile"`
}

// Profile is a named distribution configuration
type Profile struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Config      distribution.Config `json:"-"`
}

// Registry holds the available profiles by name
type Registry struct {
	profiles map[string]Profile
}

// Parse parses TOML profile definitions
func Parse(data []byte) (*Registry, error) {
	var file profilesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if len(file.Profile) == 0 {
		return nil, fmt.Errorf("no profiles defined")
	}

	r := &Registry{profiles: make(map[string]Profile, len(file.Profile))}
	for i, entry := range file.Profile {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("profile[%d]: name is required", i)
		}
		if _, dup := r.profiles[name]; dup {
			return nil, fmt.Errorf("profile %q defined twice", name)
		}

		cfg := distribution.Config{
			Name:           name,
			GroupKeyIndex:  distribution.DefaultGroupKeyIndex,
			GroupKeyColumn: strings.TrimSpace(entry.GroupKeyColumn),
			SourceSheet:    strings.TrimSpace(entry.SourceSheet),
		}
		if entry.GroupKeyIndex != nil {
			if *entry.GroupKeyIndex < 0 {
				return nil, fmt.Errorf("profile %q: group_key_index must not be negative", name)
			}
			cfg.GroupKeyIndex = *entry.GroupKeyIndex
		}
		r.profiles[name] = Profile{Name: name, Description: entry.Description, Config: cfg}
	}
	return r, nil
}

// Builtin returns the built-in profiles
func Builtin() *Registry {
	r, err := Parse([]byte(DefaultProfilesTOML))
	if err != nil {
		panic(err)
	}
	return r
}

// Load reads a profile file; an empty path yields the built-in profiles.
// Built-in profiles not redefined by the file stay available.
func Load(path string) (*Registry, error) {
	r := Builtin()
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	custom, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for name, p := range custom.profiles {
		r.profiles[name] = p
	}
	return r, nil
}

// Get returns the distribution config of a profile. An empty name selects
// the default profile.
func (r *Registry) Get(name string) (distribution.Config, error) {
	if name == "" {
		name = DefaultName
	}
	p, ok := r.profiles[name]
	if !ok {
		return distribution.Config{}, fmt.Errorf("%w: %s", core.ErrProfileNotFound, name)
	}
	return p.Config, nil
}

// SetDefaultGroupKeyIndex overrides the key column of the default profile
func (r *Registry) SetDefaultGroupKeyIndex(index int) {
	p, ok := r.profiles[DefaultName]
	if !ok || p.Config.GroupKeyColumn != "" {
		return
	}
	p.Config.GroupKeyIndex = index
	r.profiles[DefaultName] = p
}

// List returns all profiles sorted by name
func (r *Registry) List() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
