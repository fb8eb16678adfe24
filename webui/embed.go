// Package webui provides the embedded timer page for pomoflow.
//
// This package uses Go's embed directive to include the timer HTML at
// compile time, enabling single-binary deployment without external asset
// files. Besides the visible timer, the page runs the client half of the
// liveness protocol: a heartbeat fetch on a fixed interval while loaded,
// and a best-effort sendBeacon disconnect on pagehide.
package webui

import "embed"

// Assets is an embedded filesystem containing the timer web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Timer page with inline CSS and JavaScript
//
// Assets is served by the server package at the root path. The heartbeat
// interval placeholder in the HTML is substituted at serve time.
//
//go:embed assets/*
var Assets embed.FS
