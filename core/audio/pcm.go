package audio

import "encoding/binary"

// DecodeS16LE converts raw little-endian 16-bit PCM bytes into samples.
// A trailing odd byte is dropped.
func DecodeS16LE(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
	return samples
}
