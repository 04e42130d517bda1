// SPDX-License-Identifier: EPL-2.0

// Package engine holds the live state of an open multi-track project.
//
// A Session owns one TrackNode per track and a Transport. Each node carries
// the track's volume, pan, mute and solo flags and drives one bound Player
// with the resulting left/right gains. Tracks load concurrently; one that
// fails is marked StatusError and the rest stay playable.
//
// The Transport starts every loaded player in one pass and reads the shared
// time from a reference track on a fixed cadence, 16 ms by default. Players
// run on their own, so tracks stay within one poll interval of each other
// rather than in sample lockstep. A track that finishes loading while the
// transport plays is seeked to the live time and started.
//
// Offline rendering goes through package mixdown, see Session.Mixdown.
package engine
