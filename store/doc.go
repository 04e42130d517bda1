// SPDX-License-Identifier: EPL-2.0

// Package store persists tracks in MySQL through gorm and caches waveform
// envelopes in Redis.
package store
