package session

import (
	"fmt"
	"sort"
	"time"
)

// DefaultSubject is used whenever a subject name is not recognized.
const DefaultSubject = "Self Study"

// SubjectConfig holds the per-subject timing thresholds.
type SubjectConfig struct {
	Name           string
	DurationTarget time.Duration
	WarningDelay   time.Duration
	AlarmDelay     time.Duration
}

// Validate checks that the delays are positive and ordered.
func (c SubjectConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("subject name is empty")
	}
	if c.WarningDelay <= 0 {
		return fmt.Errorf("subject %s: warning delay must be positive", c.Name)
	}
	if c.AlarmDelay <= c.WarningDelay {
		return fmt.Errorf("subject %s: alarm delay (%s) must be greater than warning delay (%s)",
			c.Name, c.AlarmDelay, c.WarningDelay)
	}
	return nil
}

// Presets returns the built-in subject configurations.
func Presets() map[string]SubjectConfig {
	return map[string]SubjectConfig{
		"SQL":          preset("SQL", 120, 15, 45),
		"Maths":        preset("Maths", 120, 10, 30),
		"Physics":      preset("Physics", 120, 10, 30),
		"Chemistry":    preset("Chemistry", 120, 10, 30),
		DefaultSubject: preset(DefaultSubject, 180, 20, 60),
	}
}

func preset(name string, targetMin, warningSec, alarmSec int) SubjectConfig {
	return SubjectConfig{
		Name:           name,
		DurationTarget: time.Duration(targetMin) * time.Minute,
		WarningDelay:   time.Duration(warningSec) * time.Second,
		AlarmDelay:     time.Duration(alarmSec) * time.Second,
	}
}

// Subjects is a read-only lookup of subject configurations.
type Subjects struct {
	configs map[string]SubjectConfig
}

// NewSubjects merges the presets with the given overrides.
// An override replaces the preset of the same name.
func NewSubjects(overrides map[string]SubjectConfig) (*Subjects, error) {
	configs := Presets()
	for name, c := range overrides {
		c.Name = name
		if err := c.Validate(); err != nil {
			return nil, err
		}
		configs[name] = c
	}
	return &Subjects{configs: configs}, nil
}

// DefaultSubjects returns a lookup over the built-in presets only.
func DefaultSubjects() *Subjects {
	return &Subjects{configs: Presets()}
}

// Lookup returns the configuration for name, falling back to the
// DefaultSubject configuration when name is unknown.
func (s *Subjects) Lookup(name string) SubjectConfig {
	if c, ok := s.configs[name]; ok {
		return c
	}
	return s.configs[DefaultSubject]
}

// Has reports whether name is a configured subject.
func (s *Subjects) Has(name string) bool {
	_, ok := s.configs[name]
	return ok
}

// List returns all configurations sorted by name.
func (s *Subjects) List() []SubjectConfig {
	out := make([]SubjectConfig, 0, len(s.configs))
	for _, c := range s.configs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
