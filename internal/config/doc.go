// Package config loads, validates, and saves the loom.json project
// configuration used by the CLI and the live server.
package config
