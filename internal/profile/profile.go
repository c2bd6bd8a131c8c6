// Package profile describes the tunables of each simulation type and
// validates single edits against them before they reach the engine.
package profile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var builtin []byte

var (
	// ErrUnknownField is returned when a key is not part of the profile.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue is returned when a value fails the field's bounds or type.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnknownSimulation is returned by Set.Lookup for a missing profile.
	ErrUnknownSimulation = errors.New("unknown simulation")
)

// Kind is the value type of a field.
type Kind string

const (
	KindNumber Kind = "number"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindString Kind = "string"
	KindEnum   Kind = "enum"
)

// Section selects which record a field lives in.
type Section int

const (
	SectionSettings Section = iota
	SectionState
)

func (s Section) String() string {
	if s == SectionState {
		return "state"
	}
	return "settings"
}

// Field describes one tunable.
type Field struct {
	Name    string   `yaml:"name"`
	Label   string   `yaml:"label"`
	Kind    Kind     `yaml:"kind"`
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	Step    float64  `yaml:"step"`
	Options []string `yaml:"options"`
	// Resync marks fields whose change alters other fields on the engine side.
	Resync bool `yaml:"resync"`
}

// Profile is the field list of one simulation type.
type Profile struct {
	Name     string
	Title    string
	Settings []Field
	State    []Field

	schemas [2]*jsonschema.Schema
}

// Set is every known profile keyed by simulation name.
type Set map[string]*Profile

type rawFile struct {
	Simulations map[string]struct {
		Title    string  `yaml:"title"`
		Settings []Field `yaml:"settings"`
		State    []Field `yaml:"state"`
	} `yaml:"simulations"`
}

// Load reads profiles from path, or the built-in profiles when path is empty.
func Load(path string) (Set, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(builtin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return Parse(data)
}

// Builtin returns the profiles compiled into the binary.
func Builtin() Set {
	set, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("profile: builtin profiles invalid: %v", err))
	}
	return set
}

// Parse decodes YAML profiles and compiles their validation schemas.
func Parse(data []byte) (Set, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if len(raw.Simulations) == 0 {
		return nil, fmt.Errorf("parse profiles: no simulations defined")
	}

	set := make(Set, len(raw.Simulations))
	for name, rp := range raw.Simulations {
		p := &Profile{Name: name, Title: rp.Title, Settings: rp.Settings, State: rp.State}
		if p.Title == "" {
			p.Title = name
		}
		if err := p.compile(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
		set[name] = p
	}
	return set, nil
}

// Names returns the simulation names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the named profile.
func (s Set) Lookup(name string) (*Profile, error) {
	p, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSimulation, name)
	}
	return p, nil
}

// Fields returns the fields of a section.
func (p *Profile) Fields(section Section) []Field {
	if section == SectionState {
		return p.State
	}
	return p.Settings
}

// Field returns the named field in a section.
func (p *Profile) Field(section Section, name string) (Field, bool) {
	for _, f := range p.Fields(section) {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ValidateSetting checks a single settings edit.
func (p *Profile) ValidateSetting(key string, value any) error {
	return p.validate(SectionSettings, key, value)
}

// ValidateState checks a single runtime state edit.
func (p *Profile) ValidateState(key string, value any) error {
	return p.validate(SectionState, key, value)
}

func (p *Profile) validate(section Section, key string, value any) error {
	if _, ok := p.Field(section, key); !ok {
		return fmt.Errorf("%w: %s %q", ErrUnknownField, section, key)
	}
	if f, ok := toFloat(value); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return fmt.Errorf("%w: %s is not a finite number", ErrInvalidValue, key)
	}
	doc, err := normalize(map[string]any{key: value})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	if err := p.schemas[section].Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	return nil
}

// ParseValue converts text typed by the user into a value of the field's kind.
func ParseValue(f Field, text string) (any, error) {
	trimmed := strings.TrimSpace(text)
	switch f.Kind {
	case KindNumber:
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, trimmed)
		}
		return v, nil
	case KindInt:
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, trimmed)
		}
		return float64(v), nil
	case KindBool:
		v, err := strconv.ParseBool(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not true/false", ErrInvalidValue, trimmed)
		}
		return v, nil
	default:
		return trimmed, nil
	}
}

func (p *Profile) compile() error {
	for _, section := range []Section{SectionSettings, SectionState} {
		doc, err := schemaFor(p.Fields(section))
		if err != nil {
			return err
		}
		url := fmt.Sprintf("simdeck://profiles/%s/%s.json", p.Name, section)
		c := jsonschema.NewCompiler()
		if err := c.AddResource(url, bytes.NewReader(doc)); err != nil {
			return fmt.Errorf("add %s schema: %w", section, err)
		}
		schema, err := c.Compile(url)
		if err != nil {
			return fmt.Errorf("compile %s schema: %w", section, err)
		}
		p.schemas[section] = schema
	}
	return nil
}

func schemaFor(fields []Field) ([]byte, error) {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field without name")
		}
		if _, dup := props[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		prop := map[string]any{}
		switch f.Kind {
		case KindNumber, KindInt:
			prop["type"] = "number"
			if f.Kind == KindInt {
				prop["type"] = "integer"
			}
			if f.Min != nil {
				prop["minimum"] = *f.Min
			}
			if f.Max != nil {
				prop["maximum"] = *f.Max
			}
		case KindBool:
			prop["type"] = "boolean"
		case KindString:
			prop["type"] = "string"
		case KindEnum:
			if len(f.Options) == 0 {
				return nil, fmt.Errorf("enum field %q has no options", f.Name)
			}
			prop["enum"] = f.Options
		default:
			return nil, fmt.Errorf("field %q has unknown kind %q", f.Name, f.Kind)
		}
		props[f.Name] = prop
	}
	return json.Marshal(map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	})
}

// normalize round-trips v through JSON so the validator sees decoded types.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
