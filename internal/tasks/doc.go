// Package tasks implements the client-side conversion workflows.
//
// The core abstractions are [Workflow], the upload state machine driving a
// single statement conversion, and [EligibilityGate], which decides whether an
// anonymous visitor may still use the free trial. [Engine.BulkDownload]
// fetches every spreadsheet in the upload history with a rate-limited worker
// pool, emitting progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks
