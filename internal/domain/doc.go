// Package domain holds the core types and sentinel errors of the holdfast
// supervisor. It has no dependencies on other holdfast packages.
package domain
