// Package templates holds the sprint template catalog and the calculations derived from it.
package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

const (
	CustomTemplateID = "custom"
	MaxDurationDays  = 365
)

// ErrUnknownTemplate is returned when a template key is not in the catalog.
var ErrUnknownTemplate = errors.New("unknown template")

// Phase is a contiguous block of days within a template.
type Phase struct {
	Name     string `yaml:"name" json:"name"`
	Duration int    `yaml:"duration" json:"duration"`
	Focus    string `yaml:"focus" json:"focus"`
}

// Config describes a sprint template.
type Config struct {
	ID                    string   `yaml:"-" json:"id"`
	Name                  string   `yaml:"name" json:"name"`
	Duration              int      `yaml:"duration" json:"duration"`
	Difficulty            string   `yaml:"difficulty" json:"difficulty"`
	RecommendedTasks      int      `yaml:"recommendedTasks" json:"recommendedTasks"`
	RecommendedMilestones int      `yaml:"recommendedMilestones" json:"recommendedMilestones"`
	Phases                []Phase  `yaml:"phases" json:"phases"`
	SuitableFor           []string `yaml:"suitableFor" json:"suitableFor"`
	SuccessFactors        []string `yaml:"successFactors" json:"successFactors"`
	Tips                  []string `yaml:"tips" json:"tips"`
}

// Recommendations is the result of scaling a template to a duration.
type Recommendations struct {
	TemplateID            string `json:"templateId"`
	Duration              int    `json:"duration"`
	RecommendedTasks      int    `json:"recommendedTasks"`
	RecommendedMilestones int    `json:"recommendedMilestones"`
	DailyTimeMinutes      int    `json:"dailyTimeMinutes"`
	TotalTimeMinutes      int    `json:"totalTimeMinutes"`
}

var dailyMinutes = map[string]int{
	"beginner":     60,
	"intermediate": 90,
	"advanced":     120,
	"expert":       150,
}

// DailyMinutes returns the suggested daily time commitment for a difficulty level.
func DailyMinutes(difficulty string) int {
	if m, ok := dailyMinutes[difficulty]; ok {
		return m
	}
	return dailyMinutes["intermediate"]
}

// Catalog is an immutable set of templates keyed by ID.
type Catalog struct {
	templates map[string]Config
}

type catalogFile struct {
	Templates map[string]Config `yaml:"templates"`
}

// Parse decodes a YAML catalog and validates every entry.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template catalog: %w", err)
	}
	if len(f.Templates) == 0 {
		return nil, errors.New("template catalog is empty")
	}
	c := &Catalog{templates: make(map[string]Config, len(f.Templates))}
	for id, cfg := range f.Templates {
		cfg.ID = id
		if errs := ValidateConfig(cfg); len(errs) > 0 {
			return nil, fmt.Errorf("template %q is invalid: %v", id, errs)
		}
		c.templates[id] = cfg
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic("built-in template catalog: " + err.Error())
	}
	return c
}

// Load reads a catalog from path, falling back to the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Get returns the template with the given ID.
func (c *Catalog) Get(id string) (Config, error) {
	cfg, ok := c.templates[id]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}
	return cfg, nil
}

// List returns all templates ordered by duration, custom last.
func (c *Catalog) List() []Config {
	out := make([]Config, 0, len(c.templates))
	for _, cfg := range c.templates {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].ID == CustomTemplateID) != (out[j].ID == CustomTemplateID) {
			return out[j].ID == CustomTemplateID
		}
		if out[i].Duration != out[j].Duration {
			return out[i].Duration < out[j].Duration
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CalculateRecommendations scales task and milestone counts to customDuration
// days, rounding up. A customDuration <= 0 keeps the template's own duration.
func (c *Catalog) CalculateRecommendations(templateID string, customDuration int) (Recommendations, error) {
	cfg, err := c.Get(templateID)
	if err != nil {
		return Recommendations{}, err
	}
	duration := cfg.Duration
	if customDuration > 0 {
		duration = customDuration
	}
	daily := DailyMinutes(cfg.Difficulty)
	return Recommendations{
		TemplateID:            templateID,
		Duration:              duration,
		RecommendedTasks:      scaleUp(cfg.RecommendedTasks, duration, cfg.Duration),
		RecommendedMilestones: scaleUp(cfg.RecommendedMilestones, duration, cfg.Duration),
		DailyTimeMinutes:      daily,
		TotalTimeMinutes:      daily * duration,
	}, nil
}

// scaleUp computes ceil(n * to / from) in integers. Equivalent to
// (n / (from/7)) * (to/7) rounded up, without the float error.
func scaleUp(n, to, from int) int {
	if from <= 0 {
		return n
	}
	return (n*to + from - 1) / from
}

// EndDate returns start plus the template duration (or customDuration when > 0) in days.
func (c *Catalog) EndDate(templateID string, start time.Time, customDuration int) (time.Time, int, error) {
	cfg, err := c.Get(templateID)
	if err != nil {
		return time.Time{}, 0, err
	}
	duration := cfg.Duration
	if customDuration > 0 {
		duration = customDuration
	}
	return start.AddDate(0, 0, duration), duration, nil
}

// PhaseAt returns the phase covering zero-based day index day of the template.
func (c *Catalog) PhaseAt(templateID string, day int) (Phase, bool) {
	cfg, err := c.Get(templateID)
	if err != nil || day < 0 {
		return Phase{}, false
	}
	for _, p := range cfg.Phases {
		if day < p.Duration {
			return p, true
		}
		day -= p.Duration
	}
	return Phase{}, false
}

// ValidateConfig checks a template definition and returns human-readable
// problems. An empty result means the config is valid.
func ValidateConfig(cfg Config) []string {
	var errs []string
	if cfg.Name == "" {
		errs = append(errs, "Template name is required")
	}
	if cfg.Duration <= 0 || cfg.Duration > MaxDurationDays {
		errs = append(errs, fmt.Sprintf("Duration must be between 1 and %d days", MaxDurationDays))
	}
	if len(cfg.Phases) == 0 {
		errs = append(errs, "At least one phase is required")
		return errs
	}
	sum := 0
	for _, p := range cfg.Phases {
		sum += p.Duration
	}
	if sum != cfg.Duration {
		errs = append(errs, fmt.Sprintf("Phase durations (%d) must equal total duration (%d)", sum, cfg.Duration))
	}
	return errs
}
