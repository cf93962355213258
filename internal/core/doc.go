// Package core provides the session, catalog and simulation logic behind the
// upload page and the sheetload CLI.
//
// The package is independent of any transport. Web handlers and the terminal
// front-end both drive the same [Service].
//
// # Table Catalog
//
// Target tables are registered at init time by the tables package, which
// loads an embedded YAML catalog through [LoadCatalog]. Each
// [TableDefinition] lists the expected columns and, optionally, a canned
// INSERT statement rendered by [SampleSQL].
//
// # Sessions
//
// A session holds one decoded file, the selected table, the last status
// message and the last run. Sessions live in memory only and are evicted by
// [Service.StartSessionSweeper] once idle for longer than the configured TTL.
//
// # Processing Runs
//
// [Service.StartRun] does not validate rows. It starts a timer-driven
// simulation (see [Step]) that advances a counter in fixed batches and
// splits every batch into valid and error counts by a fixed ratio. Progress
// is broadcast to subscribers via [Service.SubscribeProgress] and the final
// [RunResult] carries the sample INSERT for the selected table.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a code for support reference:
//
//   - FILE001-FILE006: file size, format and decoding
//   - SES001: expired sessions
//   - RUN001-RUN007: run preconditions, capacity and cancellation
//   - TBL001: unknown tables
package core
