// SPDX-License-Identifier: EPL-2.0

package store

import "errors"

var ErrNoClient = errors.New("store client not initialized")
