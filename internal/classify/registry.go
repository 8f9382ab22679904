package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"daybook/internal/textutil"
)

// Project is a known internal project matched by title keywords. Keyword
// matches take the highest classification priority, overriding
// attendee-based logic.
type Project struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Entity is a customer or client organization reachable through one or more
// mail domains.
type Entity struct {
	Name    string   `yaml:"name"`
	Display string   `yaml:"display,omitempty"`
	Domains []string `yaml:"domains"`
	// Stage is the relationship signal the prep rule table consumes
	// (e.g. "new", "established").
	Stage string `yaml:"stage,omitempty"`
}

// Registry is the known-project and entity index loaded from the YAML
// entities file.
type Registry struct {
	Projects []Project `yaml:"projects"`
	Entities []Entity  `yaml:"entities"`

	byDomain map[string][]string
	byName   map[string]Entity
}

// LoadRegistry reads the entity registry. An empty path yields an empty
// registry, which classifies everything as internal/external/personal.
func LoadRegistry(path string) (*Registry, error) {
	reg := &Registry{}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read entity registry: %w", err)
		}
		if err := yaml.Unmarshal(data, reg); err != nil {
			return nil, fmt.Errorf("parse entity registry: %w", err)
		}
	}
	reg.index()
	return reg, nil
}

func (r *Registry) index() {
	r.byDomain = make(map[string][]string)
	r.byName = make(map[string]Entity)
	for i := range r.Entities {
		entity := &r.Entities[i]
		entity.Name = textutil.SanitizeToken(entity.Name)
		if entity.Display == "" {
			entity.Display = textutil.DisplayName(entity.Name)
		}
		r.byName[entity.Name] = *entity
		for _, domain := range entity.Domains {
			domain = strings.ToLower(strings.TrimSpace(domain))
			if domain == "" {
				continue
			}
			r.byDomain[domain] = append(r.byDomain[domain], entity.Name)
		}
	}
}

// EntitiesForDomain returns every entity name mapped to a mail domain.
func (r *Registry) EntitiesForDomain(domain string) []string {
	return r.byDomain[strings.ToLower(strings.TrimSpace(domain))]
}

// Entity returns the registry record for an entity name.
func (r *Registry) Entity(name string) (Entity, bool) {
	entity, ok := r.byName[name]
	return entity, ok
}

// MatchProject returns the first project whose keyword appears in the title.
func (r *Registry) MatchProject(title string) (Project, bool) {
	lowered := strings.ToLower(title)
	for _, project := range r.Projects {
		for _, keyword := range project.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" && strings.Contains(lowered, keyword) {
				return project, true
			}
		}
	}
	return Project{}, false
}
