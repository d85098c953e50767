package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SupplierConfig holds per-supplier settings loaded from the suppliers file.
// Column mappings and encodings declared here override adapter defaults.
type SupplierConfig struct {
	Code       string            `yaml:"code" validate:"required,lowercase"`
	Name       string            `yaml:"name" validate:"required"`
	SupplierID string            `yaml:"supplier_id"`
	FTP        *SupplierFTP      `yaml:"ftp"`
	API        *SupplierAPI      `yaml:"api"`
	Delimiter  string            `yaml:"delimiter"`
	Encoding   string            `yaml:"encoding"`
	SkipRows   int               `yaml:"skip_header_rows"`
	Mappings   map[string]string `yaml:"column_mappings"`
}

// SupplierFTP configures FTP pickup for one supplier.
type SupplierFTP struct {
	RemoteDir string `yaml:"remote_dir"`
	Pattern   string `yaml:"pattern" validate:"required"`
}

// SupplierAPI configures the live API endpoint for one supplier.
type SupplierAPI struct {
	Endpoint string `yaml:"endpoint" validate:"required,url"`
}

// SuppliersFile is the top-level structure of suppliers.yaml.
type SuppliersFile struct {
	Suppliers []SupplierConfig `yaml:"suppliers"`
}

// LoadSuppliers reads and parses the suppliers YAML file.
// A missing file is not an error: the engine can run purely on adapter
// defaults when no overrides are configured.
func LoadSuppliers(path string) (*SuppliersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SuppliersFile{}, nil
		}
		return nil, fmt.Errorf("read suppliers file: %w", err)
	}

	var file SuppliersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse suppliers file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Suppliers))
	for _, s := range file.Suppliers {
		if s.Code == "" {
			return nil, fmt.Errorf("supplier entry missing code")
		}
		if _, dup := seen[s.Code]; dup {
			return nil, fmt.Errorf("duplicate supplier code %q", s.Code)
		}
		seen[s.Code] = struct{}{}
	}

	return &file, nil
}

// Get returns the configuration for a supplier code, if present.
func (f *SuppliersFile) Get(code string) (SupplierConfig, bool) {
	for _, s := range f.Suppliers {
		if s.Code == code {
			return s, true
		}
	}
	return SupplierConfig{}, false
}
