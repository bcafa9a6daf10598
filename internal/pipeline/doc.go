// Package pipeline streams records from a reader through processing stages
// into one or more sinks, either for a single partition or for every
// partition of a file in parallel.
//
// The only contracts to implement are Source and Sink.
// This keeps the pipeline swappable and testable.
package pipeline
