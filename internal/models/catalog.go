package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor describes one downloadable model.
type Descriptor struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	FileName    string `yaml:"file_name"`
	URL         string `yaml:"url"`
	SizeLabel   string `yaml:"size_label"`
	Description string `yaml:"description"`

	LocalPath string `yaml:"-"`
	Exists    bool   `yaml:"-"`
}

// Refresh re-checks whether the model file is present on disk.
func (d *Descriptor) Refresh() {
	info, err := os.Stat(d.LocalPath)
	d.Exists = err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Stem returns the file name without extension (e.g. "ggml-base.en").
func (d Descriptor) Stem() string {
	return strings.TrimSuffix(d.FileName, filepath.Ext(d.FileName))
}

var builtinModels = []Descriptor{
	{ID: "tiny.en", Name: "Tiny (English)", FileName: "ggml-tiny.en.bin", SizeLabel: "~75 MB", Description: "Fastest, English-only."},
	{ID: "tiny", Name: "Tiny", FileName: "ggml-tiny.bin", SizeLabel: "~75 MB", Description: "Fastest multilingual."},
	{ID: "base.en", Name: "Base (English)", FileName: "ggml-base.en.bin", SizeLabel: "~142 MB", Description: "Balanced speed and quality, English-only."},
	{ID: "base", Name: "Base", FileName: "ggml-base.bin", SizeLabel: "~142 MB", Description: "Balanced speed and quality."},
	{ID: "small.en", Name: "Small (English)", FileName: "ggml-small.en.bin", SizeLabel: "~466 MB", Description: "Higher quality, English-only."},
	{ID: "small", Name: "Small", FileName: "ggml-small.bin", SizeLabel: "~466 MB", Description: "Higher quality multilingual."},
	{ID: "medium.en", Name: "Medium (English)", FileName: "ggml-medium.en.bin", SizeLabel: "~1.5 GB", Description: "High quality, English-only."},
	{ID: "medium", Name: "Medium", FileName: "ggml-medium.bin", SizeLabel: "~1.5 GB", Description: "High quality multilingual."},
	{ID: "large-v2", Name: "Large v2", FileName: "ggml-large-v2.bin", SizeLabel: "~2.9 GB", Description: "Very high quality multilingual."},
	{ID: "large-v3", Name: "Large v3", FileName: "ggml-large-v3.bin", SizeLabel: "~2.9 GB", Description: "Latest large multilingual."},
	{ID: "large-v3-turbo", Name: "Large v3 Turbo", FileName: "ggml-large-v3-turbo.bin", SizeLabel: "~1.6 GB", Description: "Faster large-v3 variant."},
}

// Catalog is the ordered set of known models bound to a models directory.
type Catalog struct {
	dir     string
	entries []Descriptor
}

type overrideFile struct {
	Models []Descriptor `yaml:"models"`
}

// NewCatalog builds the built-in catalog with download URLs under baseURL and
// local paths under dir.
func NewCatalog(dir, baseURL string) *Catalog {
	c := &Catalog{dir: dir}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	for _, d := range builtinModels {
		d.URL = base + "/" + d.FileName
		c.entries = append(c.entries, d)
	}
	c.bindLocal()
	return c
}

// LoadOverrides merges entries from a YAML file. Entries whose ID matches a
// known model replace it in place; the rest are appended in file order. A
// missing file is not an error.
func (c *Catalog) LoadOverrides(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read model catalog: %w", err)
	}
	var parsed overrideFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse model catalog %s: %w", path, err)
	}
	for i, d := range parsed.Models {
		d.ID = strings.TrimSpace(d.ID)
		d.FileName = strings.TrimSpace(d.FileName)
		if d.ID == "" || d.FileName == "" {
			return fmt.Errorf("parse model catalog %s: entry %d needs id and file_name", path, i+1)
		}
		if d.FileName != filepath.Base(d.FileName) {
			return fmt.Errorf("parse model catalog %s: file_name %q must not contain directories", path, d.FileName)
		}
		if strings.TrimSpace(d.URL) == "" {
			return fmt.Errorf("parse model catalog %s: entry %q needs url", path, d.ID)
		}
		if d.Name == "" {
			d.Name = d.ID
		}
		if idx := c.indexOf(d.ID); idx >= 0 {
			c.entries[idx] = d
		} else {
			c.entries = append(c.entries, d)
		}
	}
	c.bindLocal()
	return nil
}

func (c *Catalog) bindLocal() {
	for i := range c.entries {
		c.entries[i].LocalPath = filepath.Join(c.dir, c.entries[i].FileName)
		c.entries[i].Refresh()
	}
}

func (c *Catalog) indexOf(id string) int {
	for i, d := range c.entries {
		if strings.EqualFold(d.ID, id) {
			return i
		}
	}
	return -1
}

// Dir returns the models directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Models returns a copy of the catalog in display order.
func (c *Catalog) Models() []Descriptor {
	out := make([]Descriptor, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup matches ref against IDs, file names, and file stems, ignoring case.
// Path-like references match on their base name.
func (c *Catalog) Lookup(ref string) (Descriptor, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Descriptor{}, false
	}
	if strings.ContainsAny(ref, `/\`) {
		ref = filepath.Base(ref)
	}
	for _, d := range c.entries {
		if strings.EqualFold(d.ID, ref) || strings.EqualFold(d.FileName, ref) || strings.EqualFold(d.Stem(), ref) {
			return d, true
		}
	}
	return Descriptor{}, false
}
