//go:build mage

// Package main provides build targets for the atlas project using Mage.
//
// Usage:
//
//	mage build       Compile the atlas binary to bin/
//	mage test:all    Run all tests
//	mage test:unit   Run tests with the race detector, skipping slow ones
//	mage test:cover  Write a coverage profile and print the per-function summary
//	mage lint        Run golangci-lint
//	mage clean       Remove build artifacts
//	mage install     Install atlas to GOPATH/bin
//	mage stats       Print Go lines of code per package
package main
