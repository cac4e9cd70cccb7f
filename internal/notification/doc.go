// Package notification defines the plain-data notification record shared by
// every other package: the record itself, its closed enumerations (type,
// priority, channel), partial updates and the display view model.
//
// This package imports nothing internal. Records handed out by the store are
// deep copies (see Clone), so callers may hold them without locking.
package notification
