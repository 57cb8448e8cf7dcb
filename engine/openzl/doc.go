//go:build !openzl || !cgo

// Package openzl binds the OpenZL structured compression library through cgo.
// It is empty unless built with the openzl tag and cgo enabled.
package openzl
