// Package manifest records the outcome of overlay builds.
//
// Every build, successful or not, produces a BuildManifest describing the
// upstream the build started from, which files the override tree replaced,
// and how each pipeline step finished. The manifest is persisted as JSON in
// the .crmdev directory and is the authoritative record consumed by the
// status and diff commands.
//
// Key concepts:
//   - BuildManifest: One build's inputs, outputs, and step results
//   - OverriddenFile: A path where the override layer won, with checksums
//   - StepRecord: Exit status and timing for one pipeline step
//   - Store: Interface for persisting and loading the latest manifest
package manifest
