// Package tasks runs long multi-request jobs against the record-store with real-time progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] writes every page of an entity's list to disk:
//
//   - Fetches page 1 to learn the total, then every other page under a rate limit
//   - Hands each page to a pool of workers that render it with [formatter.Export]
//   - Records per-page outcomes so one failed page does not abort the export
//   - Writes export_manifest.json summarizing the run
//
// # Progress Reporting
//
// Operations report through a [ProgressUpdate] channel. Updates are sent with
// select/default, so a slow or absent reader never blocks the export.
package tasks
