// Package writers maps output formats to sink constructors.
//
// Design:
//   - Sinks own all presentation knowledge (record format, tabular format).
//   - Pipeline stays orchestration-only and sees only the Sink interface.
package writers
