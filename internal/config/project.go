package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Project is the optional marina.yaml / marina.toml configuration.
type Project struct {
	// ANSI is auto, always or never
	ANSI string `yaml:"ansi" toml:"ansi"`

	// InkeyTimeoutMs is the default Inkey() timeout; 0 blocks
	InkeyTimeoutMs int `yaml:"inkey_timeout_ms" toml:"inkey_timeout_ms"`

	// MaxSteps aborts a run after this many instructions; 0 is unlimited
	MaxSteps int `yaml:"max_steps" toml:"max_steps"`

	Disassemble bool `yaml:"disassemble" toml:"disassemble"`

	// Entry overrides the Main/main entry function
	Entry string `yaml:"entry" toml:"entry"`

	// Path is the file the project was loaded from (set at load time)
	Path string `yaml:"-" toml:"-"`
}

// DefaultProject returns the settings used when no project file exists.
func DefaultProject() *Project {
	return &Project{ANSI: "auto"}
}

// LoadProject reads and parses a project file. The format follows the
// file extension.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseProject(data, path)
}

// ParseProject parses project file content. The path selects the format
// and is used in error messages.
func ParseProject(data []byte, path string) (*Project, error) {
	p := DefaultProject()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	if err := p.validate(path); err != nil {
		return nil, err
	}
	p.Path = path
	return p, nil
}

func (p *Project) validate(path string) error {
	p.ANSI = strings.ToLower(strings.TrimSpace(p.ANSI))
	switch p.ANSI {
	case "":
		p.ANSI = "auto"
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%s: ansi must be auto, always or never, got %q", path, p.ANSI)
	}
	if p.InkeyTimeoutMs < 0 {
		return fmt.Errorf("%s: inkey_timeout_ms must not be negative", path)
	}
	if p.MaxSteps < 0 {
		return fmt.Errorf("%s: max_steps must not be negative", path)
	}
	return nil
}

// FindProject searches for a project file starting from dir and walking up
// to parent directories. It returns "" when none is found.
func FindProject(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{ProjectFileYAML, ProjectFileYML, ProjectFileTOML} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// FindAndLoad finds the nearest project file above startDir and loads it.
// Defaults are returned when there is none. Environment overrides apply
// in both cases.
func FindAndLoad(startDir string) (*Project, error) {
	path, err := FindProject(startDir)
	if err != nil {
		return nil, err
	}
	p := DefaultProject()
	if path != "" {
		if p, err = LoadProject(path); err != nil {
			return nil, err
		}
	}
	p.applyEnv()
	return p, nil
}

func (p *Project) applyEnv() {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvANSI))); v == "auto" || v == "always" || v == "never" {
		p.ANSI = v
	}
	if _, ok := os.LookupEnv(EnvNoColor); ok && p.ANSI == "auto" {
		p.ANSI = "never"
	}
}
