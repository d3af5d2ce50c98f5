// Copyright 2025 Kubecheck Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package benchmark loads declarative benchmark control files: one YAML
// document per component family, containing groups of checks.
package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bearslyricattack/kubecheck/pkg/models"
	"gopkg.in/yaml.v3"
)

// Controls is one benchmark section: every group and check for a single
// component family.
type Controls struct {
	Version string  `yaml:"version,omitempty"`
	ID      string  `yaml:"id"`
	Text    string  `yaml:"text"`
	Type    string  `yaml:"type"`
	Groups  []Group `yaml:"groups"`
}

// Group is a numbered group of related checks.
type Group struct {
	ID     string                   `yaml:"id"`
	Text   string                   `yaml:"text"`
	Checks []models.CheckDefinition `yaml:"checks"`
}

// Checks flattens every check in the section.
func (c *Controls) Checks() []models.CheckDefinition {
	var all []models.CheckDefinition
	for _, g := range c.Groups {
		all = append(all, g.Checks...)
	}
	return all
}

// Check finds a check by ID.
func (c *Controls) Check(id string) (models.CheckDefinition, bool) {
	for _, g := range c.Groups {
		for _, chk := range g.Checks {
			if chk.ID == id {
				return chk, true
			}
		}
	}
	return models.CheckDefinition{}, false
}

// legacyAllCompliant lists policy check IDs that predate the declared
// aggregation field. Upstream check files without an aggregation
// annotation keep working through this mapping.
var legacyAllCompliant = map[string]bool{
	"5.1.1": true,
	"5.1.5": true,
	"5.1.6": true,
	"5.2.2": true,
	"5.2.3": true,
	"5.2.4": true,
	"5.2.5": true,
	"5.2.6": true,
	"5.2.9": true,
}

const legacyRoleSplitID = "5.1.3"

// rawControls mirrors Controls but defers check decoding so defaults
// can be applied per check.
type rawControls struct {
	Version string `yaml:"version,omitempty"`
	ID      string `yaml:"id"`
	Text    string `yaml:"text"`
	Type    string `yaml:"type"`
	Groups  []struct {
		ID     string      `yaml:"id"`
		Text   string      `yaml:"text"`
		Checks []yaml.Node `yaml:"checks"`
	} `yaml:"groups"`
}

// Load reads and parses one benchmark control file. Checks default to
// scored; the legacy policy IDs are mapped onto declared aggregation
// modes.
func Load(path string) (*Controls, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmark file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("benchmark file is empty: %s", path)
	}

	var raw rawControls
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse benchmark file %s: %w", path, err)
	}

	controls := &Controls{
		Version: raw.Version,
		ID:      raw.ID,
		Text:    raw.Text,
		Type:    raw.Type,
	}
	for _, g := range raw.Groups {
		group := Group{ID: g.ID, Text: g.Text}
		for i := range g.Checks {
			def := models.CheckDefinition{Scored: true}
			if err := g.Checks[i].Decode(&def); err != nil {
				return nil, fmt.Errorf("failed to decode check in group %s: %w", g.ID, err)
			}
			applyLegacyAggregation(&def)
			group.Checks = append(group.Checks, def)
		}
		controls.Groups = append(controls.Groups, group)
	}
	return controls, nil
}

func applyLegacyAggregation(def *models.CheckDefinition) {
	if def.Aggregation != models.AggregationDefault {
		return
	}
	if legacyAllCompliant[def.ID] {
		def.Aggregation = models.AggregationAllCompliant
	} else if def.ID == legacyRoleSplitID {
		def.Aggregation = models.AggregationRoleSplit
	}
}

// Registry resolves benchmark sections by component family from a
// directory of control files named <family>.yaml.
type Registry struct {
	dir string
}

// NewRegistry creates a registry over a benchmark directory.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// Load reads the control file for one component family.
func (r *Registry) Load(family string) (*Controls, error) {
	return Load(filepath.Join(r.dir, family+".yaml"))
}

// Available lists the component families that have a control file.
func (r *Registry) Available() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmark directory: %w", err)
	}

	var families []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		families = append(families, strings.TrimSuffix(name, ".yaml"))
	}
	sort.Strings(families)
	return families, nil
}
