package models

import (
	"path"
	"strings"
)

// DocumentMeta is the optional sidecar stored next to a corpus document as
// "<name>.meta.yaml". Empty fields are inferred at ingest time.
type DocumentMeta struct {
	Title        string `yaml:"title,omitempty" json:"title,omitempty"`
	SourceType   string `yaml:"source_type,omitempty" json:"source_type,omitempty"`
	SourceURL    string `yaml:"source_url,omitempty" json:"source_url,omitempty"`
	Jurisdiction string `yaml:"jurisdiction,omitempty" json:"jurisdiction,omitempty"`
	Authority    string `yaml:"authority,omitempty" json:"authority,omitempty"`
}

// IsZero reports whether no field is set
func (m DocumentMeta) IsZero() bool {
	return m == DocumentMeta{}
}

// DocumentMetaKey returns the sidecar key of a corpus document key
func DocumentMetaKey(key string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + ".meta.yaml"
}

// IsCorpusDocument reports whether key names an ingestable text document
func IsCorpusDocument(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".txt", ".md":
		return true
	}
	return false
}
