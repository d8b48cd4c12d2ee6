package main

// Default limits for CLI commands.
const (
	DefaultMatchLimit = 10
	DefaultListLimit  = 50
)
