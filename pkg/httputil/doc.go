// Package httputil provides retry infrastructure, used by the
// document-database client's batch upsert. The loader does not use it.
//
// [Retry] and [RetryWithBackoff] wrap a fallible operation (such as a
// batched upsert against the document database) with
// retry-on-transient-failure semantics: only errors wrapped with
// [RetryableError] trigger a retry, and backoff doubles from an initial
// delay across up to 3 attempts by default.
package httputil
