package main

import _ "embed"

// embeddedConfig holds YAML configuration baked in at build time. The
// embed_config.yaml staging file ships empty; build scripts may overwrite
// it to bake site-specific defaults into the binary.
//
//go:embed embed_config.yaml
var embeddedConfig []byte
