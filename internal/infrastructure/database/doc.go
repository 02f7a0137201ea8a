// Package database provides the SQLite connection used by the optional
// event journal: pragmas, permissions, lifecycle, and health checks.
package database
