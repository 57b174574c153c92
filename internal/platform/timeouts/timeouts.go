// Package timeouts defines shared timeout constants.
//
// Backend calls made by the console carry no client-side deadline; a request
// resolves or fails on the caller's context alone. The values here only bound
// process housekeeping.
package timeouts

import "time"

// TelemetryShutdown limits how long span export may block process exit.
const TelemetryShutdown = 5 * time.Second
