// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RecordingKey is the object key for a take on a track.
func RecordingKey(projectID, trackID string, id uuid.UUID, mimeType string) string {
	return fmt.Sprintf("projects/%s/tracks/%s/%s%s", keyPart(projectID), keyPart(trackID), id, extension(mimeType))
}

// MixdownKey is the object key for a rendered mix.
func MixdownKey(projectID string, id uuid.UUID) string {
	return fmt.Sprintf("projects/%s/mixdowns/%s.wav", keyPart(projectID), id)
}

func keyPart(s string) string {
	if s == "" {
		return "default"
	}
	return strings.NewReplacer("/", "_", "..", "_").Replace(s)
}

func extension(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(strings.ToLower(base)) {
	case "audio/wav", "audio/wave", "audio/x-wav":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	case "audio/aiff", "audio/x-aiff":
		return ".aiff"
	default:
		return ""
	}
}
