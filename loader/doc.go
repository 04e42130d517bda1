// SPDX-License-Identifier: EPL-2.0

// Package loader turns a track's resource reference into a decoded buffer.
//
// A Loader fetches the payload (HTTP, file paths or file:// URLs via
// SchemeFetcher), sniffs the container, decodes it with the matching
// registry entry and resamples it to the session rate.
//
// Durations are resolved by an ordered list of strategies, first success
// wins:
//
//	d := loader.ResolveDuration(
//	    loader.Native(declared),
//	    loader.Persisted(record.Duration),
//	    loader.Estimated(len(payload), 128000),
//	)
//
// The result carries its DurationSource so callers can tell a measured
// length from a stored or estimated one. A container that reports NaN or an
// infinite length never fails a load.
//
// Errors are typed: *NetworkError when the bytes could not be fetched,
// *DecodeError when they could not be decoded. Both unwrap to the cause.
package loader
