// Package config loads form settings using Viper with CUE as the file format.
//
// Settings come from, in increasing priority: built-in defaults, a form.cue
// file (the --config path, or form.cue in the working directory), and
// FORM_* environment variables. Command-line flags are applied on top by
// the CLI. Files are validated against the embedded config_schema.cue.
package config
