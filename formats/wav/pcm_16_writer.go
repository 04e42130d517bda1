// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	headerSize    = 44
	bitsPerSample = 16
	writeChunk    = 8192 // samples per Write call
)

// WriteWAV16 writes a canonical RIFF/WAVE file: 16-bit little-endian PCM,
// interleaved samples, explicit byte rate and block alignment.
// len(samples) must be a multiple of channels.
func WriteWAV16(w io.Writer, sampleRate, channels int, samples []int16) error {
	if channels < 1 {
		return ErrInvalidChannels
	}
	if len(samples)%channels != 0 {
		return ErrPartialFrame
	}

	if err := writeHeader(w, sampleRate, channels, uint32(len(samples)*2)); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}

	buf := make([]byte, min(len(samples), writeChunk)*2)

	for i := 0; i < len(samples); i += writeChunk {
		chunk := samples[i:min(i+writeChunk, len(samples))]
		buf = buf[:len(chunk)*2]

		for j, s := range chunk {
			binary.LittleEndian.PutUint16(buf[j*2:], uint16(s))
		}

		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("writing wav data: %w", err)
		}
	}

	return nil
}

// WritePCM16 wraps raw little-endian 16-bit PCM bytes, as delivered by capture
// devices, in a WAVE container. A trailing partial frame is dropped.
func WritePCM16(w io.Writer, sampleRate, channels int, pcm []byte) error {
	if channels < 1 {
		return ErrInvalidChannels
	}

	frameBytes := channels * 2
	pcm = pcm[:len(pcm)-len(pcm)%frameBytes]

	if err := writeHeader(w, sampleRate, channels, uint32(len(pcm))); err != nil {
		return err
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("writing wav data: %w", err)
	}

	return nil
}

func writeHeader(w io.Writer, sampleRate, channels int, dataSize uint32) error {
	numChannels := uint16(channels)
	byteRate := uint32(sampleRate) * uint32(numChannels) * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	header := make([]byte, headerSize)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], numChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing wav header: %w", err)
	}

	return nil
}
