// Package tools provides command execution helpers shared by the
// clipboard and archiver adapters.
package tools
