package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileData struct {
	Permissions []Definition `yaml:"permissions"`
}

// Load reads a catalog from a YAML file of the form
//
//	permissions:
//	  - type: Camera
//	    identify: [camera, камера]
//	    allow: [allow, ok]
//	    deny: [deny, cancel]
//
// Definition order in the file is match order.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f fileData
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Permissions) == 0 {
		return nil, fmt.Errorf("catalog has no permissions")
	}
	return New(f.Permissions...), nil
}
