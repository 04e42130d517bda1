// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"fmt"

	"github.com/ik5/multitrack/audio"
	"github.com/ik5/multitrack/internal/audiotest"
)

func ExampleReadAll() {
	src := audiotest.NewSineSource(16000, 2, 8000, 440)

	buf, err := audio.ReadAll(src)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("%d frames, %.1fs\n", buf.Frames(), buf.Duration())

	// Output:
	// 8000 frames, 0.5s
}

func ExampleBuffer_Resample() {
	buf, _ := audio.ReadAll(audiotest.NewSilentSource(48000, 1, 48000))

	out, err := buf.Resample(44100)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(out.SampleRate, out.Channels)

	// Output:
	// 44100 1
}

func ExampleLinearPan() {
	for _, pan := range []float64{-1, 0, 0.5} {
		l, r := audio.LinearPan(pan)
		fmt.Printf("pan %+.1f: L=%.2f R=%.2f\n", pan, l, r)
	}

	// Output:
	// pan -1.0: L=1.00 R=0.00
	// pan +0.0: L=1.00 R=1.00
	// pan +0.5: L=0.50 R=1.00
}
