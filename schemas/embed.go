// Package schemas holds the JSON Schemas for files the tool writes.
package schemas

import _ "embed"

// RunManifest is the schema for manifest.json in a run folder.
//
//go:embed run_manifest.schema.json
var RunManifest string
