// SPDX-License-Identifier: EPL-2.0

// Package server exposes an engine.Session over HTTP.
//
// Routes:
//
//	GET   /api/tracks
//	PATCH /api/tracks/{id}            {"title", "volume", "pan", "muted"}
//	POST  /api/tracks/{id}/mute
//	POST  /api/tracks/{id}/solo
//	GET   /api/tracks/{id}/waveform   ?buckets=200
//	GET   /api/transport
//	POST  /api/transport/play|pause|stop
//	POST  /api/transport/seek         {"time": 12.5}
//	GET   /api/transport/ws           websocket feed of transport updates
//	POST  /api/mixdown                WAVE bytes, or {"url"} with an uploader
package server
