// Package zcached implements a streaming, length-prefixed TCP cache server
// and client: GET/SET/DELETE/FLUSH against a shared in-memory string-to-string
// store.
//
// The hard part is not the map, it's the per-connection framing loop: a
// buffered read, incremental parse, bounded growable buffer, and partial-frame
// carry-over (see Server and Client). The wire format itself lives in
// internal/wire; the shared map lives in internal/store.
package zcached
