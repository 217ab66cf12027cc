package main

// Blank imports ensure effect init() registration runs for the CLI binary.
import (
	_ "github.com/alexisbeaulieu97/framefx/internal/effects/blur"
	_ "github.com/alexisbeaulieu97/framefx/internal/effects/brightness"
	_ "github.com/alexisbeaulieu97/framefx/internal/effects/edges"
)
