// SPDX-License-Identifier: EPL-2.0

package loader

import (
	"bytes"
	"net/url"
	"path"
	"strings"
)

// Format keys produced by Sniff; they match multitrack.NewRegistry.
const (
	FormatWAV    = "wav"
	FormatMP3    = "mp3"
	FormatVorbis = "ogg"
	FormatAIFF   = "aiff"
)

// Sniff identifies the container from its leading bytes. It returns "" when
// nothing matches.
func Sniff(header []byte) string {
	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return FormatWAV
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC"))):
		return FormatAIFF
	case bytes.HasPrefix(header, []byte("OggS")):
		return FormatVorbis
	case bytes.HasPrefix(header, []byte("ID3")):
		return FormatMP3
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return FormatMP3
	}
	return ""
}

var extensions = map[string]string{
	".wav":  FormatWAV,
	".wave": FormatWAV,
	".mp3":  FormatMP3,
	".ogg":  FormatVorbis,
	".oga":  FormatVorbis,
	".aif":  FormatAIFF,
	".aiff": FormatAIFF,
	".aifc": FormatAIFF,
}

// FormatFromURL guesses the format from the path extension, ignoring any
// query string.
func FormatFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	return extensions[strings.ToLower(path.Ext(p))]
}
