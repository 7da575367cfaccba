// Package catalog keeps a SQLite record of harvest runs and face crops.
//
// The catalog is optional. When configured, the extract command passes it
// to faces.BatchRunner as the ArtifactRecorder and the harvest command
// stores each run's report.
package catalog
