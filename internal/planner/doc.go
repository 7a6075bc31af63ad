// Package planner handles the planning phase of overlay builds.
//
// The planner generates deterministic execution plans for merging the
// upstream and override trees into the build tree. It walks both layers,
// filters ignored paths, and determines which layer wins each path before
// any filesystem mutation happens.
//
// Key responsibilities:
//   - Generate MergePlan with ordered copy operations
//   - Apply ignore patterns to every layer
//   - Record which paths the override layer won
//   - Keep planning free of side effects so plans can be previewed
package planner
