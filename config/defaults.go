package config

import _ "embed"

//go:embed defaults/neonwreckage.yaml
var defaultYAML []byte
