// Package catalog holds the static platform and feature descriptions the
// panel renders: names, icons, colours and per-mode form copy.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/user/crawler-panel/internal/entity"
)

//go:embed catalog.yaml
var rawCatalog []byte

// Platform is a crawl target as shown on the landing page.
type Platform struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Icon  string `yaml:"icon"`
	Color string `yaml:"color"`
}

// FormCopy is the text of one form page.
type FormCopy struct {
	Subtitle    string `yaml:"subtitle"` // %s is replaced by the platform name
	Heading     string `yaml:"heading"`
	Label       string `yaml:"label"`
	Placeholder string `yaml:"placeholder"`
	Example     string `yaml:"example"`
	Multiline   bool   `yaml:"multiline"`
	EmptyNotice string `yaml:"empty_notice"`
	SyncLabel   string `yaml:"sync_label"`
	AsyncLabel  string `yaml:"async_label"`
	SyncBusy    string `yaml:"sync_busy"`
	AsyncBusy   string `yaml:"async_busy"`
}

// Feature is a crawl mode as shown on the landing page.
type Feature struct {
	ID          entity.Operation `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Icon        string           `yaml:"icon"`
	Color       string           `yaml:"color"`
	Form        FormCopy         `yaml:"form"`
}

// Option is a select entry.
type Option struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type Catalog struct {
	Platforms   []Platform `yaml:"platforms"`
	Features    []Feature  `yaml:"features"`
	LoginTypes  []Option   `yaml:"login_types"`
	SaveOptions []Option   `yaml:"save_options"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(rawCatalog)
}

// Parse decodes a catalog document and checks every operation has a feature.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, op := range entity.Operations {
		if _, ok := c.Feature(op); !ok {
			return nil, fmt.Errorf("catalog has no feature %q", op)
		}
	}
	return &c, nil
}

// MustLoad is Load for package initialisation and tests.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Platform(id string) (Platform, bool) {
	for _, p := range c.Platforms {
		if p.ID == id {
			return p, true
		}
	}
	return Platform{}, false
}

// PlatformName returns the display name of a platform ID, or the ID itself
// when it is unknown.
func (c *Catalog) PlatformName(id string) string {
	if p, ok := c.Platform(id); ok {
		return p.Name
	}
	return id
}

func (c *Catalog) Feature(op entity.Operation) (Feature, bool) {
	for _, f := range c.Features {
		if f.ID == op {
			return f, true
		}
	}
	return Feature{}, false
}

// EmptyNotice is the warning shown when an operation's primary field is blank.
func (c *Catalog) EmptyNotice(op entity.Operation) string {
	if f, ok := c.Feature(op); ok && f.Form.EmptyNotice != "" {
		return f.Form.EmptyNotice
	}
	return "请填写必填项"
}
