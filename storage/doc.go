// SPDX-License-Identifier: EPL-2.0

// Package storage uploads recordings and mixdowns to S3 compatible object
// storage with minio-go.
package storage
