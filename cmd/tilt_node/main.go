// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/tilt_node/internal/app"
	"github.com/relabs-tech/tilt_node/internal/config"
)

func main() {
	// Optional; defaults apply when the file is absent.
	if err := config.InitGlobal(config.DefaultPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunTiltNode(config.Get()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
