// Package fixtures embeds test and template assets.
package fixtures

import (
	_ "embed"
)

//go:embed config/valid_config.yaml
var ConfigTemplate []byte
