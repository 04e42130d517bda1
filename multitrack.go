// SPDX-License-Identifier: EPL-2.0

package multitrack

import (
	"github.com/ik5/multitrack/audio"
	"github.com/ik5/multitrack/formats/aiff"
	"github.com/ik5/multitrack/formats/mp3"
	"github.com/ik5/multitrack/formats/vorbis"
	"github.com/ik5/multitrack/formats/wav"
)

// Format keys understood by the registry returned from NewRegistry.
const (
	FormatWAV    = "wav"
	FormatMP3    = "mp3"
	FormatVorbis = "ogg"
	FormatAIFF   = "aiff"
)

// NewRegistry returns a decoder registry with every bundled format.
func NewRegistry() *audio.Registry {
	reg := audio.NewRegistry()

	reg.Register(FormatWAV, wav.Decoder{})
	reg.Register(FormatMP3, mp3.Decoder{})
	reg.Register(FormatVorbis, vorbis.Decoder{})
	reg.Register(FormatAIFF, aiff.Decoder{})

	return reg
}
