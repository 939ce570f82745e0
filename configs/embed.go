// Package configs provides embedded configuration templates for searchhub.
//
// Templates are embedded at build time with go:embed so they are
// available in every distribution. `searchhub init` writes them into
// the working directory as a starting point.
package configs

import _ "embed"

// ConfigTemplate is the annotated main configuration template.
// Written by `searchhub init` as config.yaml.
//
//go:embed config.example.yaml
var ConfigTemplate string

// RegistryTemplate is the source registry template showing one entry
// per adapter kind.
// Written by `searchhub init` as sources.yaml.
//
//go:embed sources.example.yaml
var RegistryTemplate string

// GlossarySeedTemplate seeds the example bleve-backed glossary source.
//
//go:embed glossary-seed.example.json
var GlossarySeedTemplate string

// ScansSeedTemplate seeds the example static scan-results source.
//
//go:embed scans-seed.example.json
var ScansSeedTemplate string
