//go:build !debug

// Package debug provides a centralized, categorized debug logging system.
// This is the no-op version for release builds.
package debug

import "io"

// Enabled indicates whether debug logging is active
const Enabled = false

// Category represents a debug logging category
type Category string

const (
	APP     Category = "APP"
	FS      Category = "FS"
	SCAN    Category = "SCAN"
	SEARCH  Category = "SEARCH"
	STORE   Category = "STORE"
	TAGS    Category = "TAGS"
	ENTRY   Category = "ENTRY"
	THUMB   Category = "THUMB"
	FS_WALK Category = "FS_WALK"
)

// Log is a no-op in release builds
func Log(cat Category, format string, args ...interface{}) {}

// Enable is a no-op in release builds
func Enable(cat Category) {}

// Disable is a no-op in release builds
func Disable(cat Category) {}

// IsEnabled always returns false in release builds
func IsEnabled(cat Category) bool { return false }

// EnableAll is a no-op in release builds
func EnableAll() {}

// DisableAll is a no-op in release builds
func DisableAll() {}

// SetCategories is a no-op in release builds
func SetCategories(cats map[Category]bool) {}

// ListEnabled returns nil in release builds
func ListEnabled() []Category { return nil }

// SetOutput is a no-op in release builds
func SetOutput(w io.Writer) {}
