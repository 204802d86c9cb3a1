// Package scenario holds the built-in benchmark scenarios. Each scenario
// registers its setup and measure operations on a runner.Runner and talks
// to the target cluster through a Cluster.
package scenario
