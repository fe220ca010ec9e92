// Package file loads OmniMind settings from a TOML or YAML file, a .env
// file and environment variables, and watches the file for changes.
//
// Precedence, lowest first: built-in defaults, the config file, then
// environment variables (including those loaded from .env, which never
// override variables already set in the process).
package file
