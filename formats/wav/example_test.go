// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"fmt"

	"github.com/ik5/multitrack/audio"
	"github.com/ik5/multitrack/formats/wav"
)

func ExampleWriteWAV16() {
	var out bytes.Buffer

	// two stereo frames
	if err := wav.WriteWAV16(&out, 8000, 2, []int16{100, -100, 200, -200}); err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(out.Len(), "bytes")

	// Output:
	// 52 bytes
}

func ExampleDecoder_Decode() {
	var file bytes.Buffer
	_ = wav.WriteWAV16(&file, 16000, 1, make([]int16, 8000))

	src, err := wav.Decoder{}.Decode(bytes.NewReader(file.Bytes()))
	if err != nil {
		fmt.Println(err)
		return
	}

	buf, _ := audio.ReadAll(src)
	fmt.Printf("%d Hz, %d ch, %.2fs\n", buf.SampleRate, buf.Channels, buf.Duration())

	// Output:
	// 16000 Hz, 1 ch, 0.50s
}
