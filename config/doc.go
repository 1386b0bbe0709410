// Package config loads the three-field JSON configuration the
// reference implementation's ConfigHandler reads: the in-memory tier's
// size cap, the durable tier's database file, and the listening
// socket's path. All fields are required; a missing or unparseable
// field aborts startup, matching the reference's "assume keys exist,
// throw otherwise" behavior.
package config
