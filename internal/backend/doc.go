// Package backend implements the query execution contract for each
// supported database engine.
//
// Every adapter follows the same sequence for a call:
//  1. Check the argument list against the descriptor (count, then kinds)
//  2. Open one connection from the configured credentials
//  3. Prepare the descriptor's SQL
//  4. Bind each argument by its declared kind
//  5. Execute, and for reads materialize each column of each row as a
//     tagged value appended to the result list
//  6. Close rows, statement and connection, on every path
//
// Adapters do not pool connections, retry, or impose timeouts; cancellation
// is whatever the caller's context provides.
//
// Failures are returned as *query.Error values whose Code identifies the
// stage (resource, prepare, bind, execute, fetch, type) and whose
// EngineCode carries the native error number when the engine supplies one.
// Each failure is logged once by the adapter that observed it.
//
// Adapters are safe to share between goroutines because they hold no
// per-call state, but the lists they return are not.
package backend
