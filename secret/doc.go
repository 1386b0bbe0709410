// Package secret provides strict environment-variable expansion for
// configuration values.
//
// config.Load uses ExpandEnvStrict to resolve "${VAR}" references inside
// the disk and socket path fields of the JSON config file, failing
// startup if a referenced variable is not set rather than silently
// substituting an empty string.
package secret
