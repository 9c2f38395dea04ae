// Package types defines the shared vocabulary of the atlas: directions,
// link records, the entity contract the movement host must satisfy, the
// per-entity teleport flag, backend configuration, and the standard errors.
package types
