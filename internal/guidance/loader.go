// Package guidance loads the content behind the rules tier: navigator answer
// categories and care-plan templates. Built-in defaults ship with the binary;
// a guidance directory of YAML files can override or extend them.
package guidance

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog holds the loaded guidance content.
type Catalog struct {
	mu         sync.RWMutex
	categories []Category
	templates  map[string]PlanTemplate
}

// NewCatalog returns a catalog with the built-in defaults.
func NewCatalog() *Catalog {
	return &Catalog{
		categories: defaultCategories(),
		templates:  defaultTemplates(),
	}
}

// Load builds a catalog from defaults plus any *.category.yaml and
// *.plan.yaml files under rootDir. An empty rootDir yields defaults only.
func Load(rootDir string) (*Catalog, error) {
	c := NewCatalog()
	if rootDir == "" {
		return c, nil
	}

	if err := c.loadDir(rootDir); err != nil {
		return nil, fmt.Errorf("loading guidance: %w", err)
	}

	slog.Info("guidance loaded",
		"dir", rootDir,
		"categories", len(c.categories),
		"templates", len(c.templates),
	)
	return c, nil
}

// Categories returns the navigator categories in match-precedence order.
func (c *Catalog) Categories() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Category{}, c.categories...)
}

// Template returns a care-plan template by ID.
func (c *Catalog) Template(id string) (PlanTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[id]
	return t, ok
}

func (c *Catalog) loadDir(rootDir string) error {
	return filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		switch {
		case strings.HasSuffix(path, ".category.yaml"), strings.HasSuffix(path, ".category.yml"):
			return c.loadCategory(path)
		case strings.HasSuffix(path, ".plan.yaml"), strings.HasSuffix(path, ".plan.yml"):
			return c.loadTemplate(path)
		}
		return nil
	})
}

func (c *Catalog) loadCategory(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cat Category
	if err := yaml.Unmarshal(data, &cat); err != nil {
		slog.Warn("skipping invalid category YAML", "path", path, "error", err)
		return nil
	}
	if cat.ID == "" || len(cat.Keywords) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Same ID replaces the default; new IDs append after it.
	for i, existing := range c.categories {
		if existing.ID == cat.ID {
			c.categories[i] = cat
			return nil
		}
	}
	c.categories = append(c.categories, cat)
	return nil
}

func (c *Catalog) loadTemplate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var tmpl PlanTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		slog.Warn("skipping invalid plan YAML", "path", path, "error", err)
		return nil
	}
	if tmpl.ID == "" {
		return nil
	}

	c.mu.Lock()
	c.templates[tmpl.ID] = tmpl
	c.mu.Unlock()
	return nil
}
