package gateway

import "encoding/binary"

// Gemini TTS returns raw little-endian 16-bit mono PCM at 24 kHz. Local
// players want a container, so we frame it as WAV here.
const (
	pcmSampleRate    = 24000
	pcmBitsPerSample = 16
	pcmChannels      = 1
)

// wrapPCM frames raw PCM samples into a playable WAV file.
func wrapPCM(pcm []byte) []byte {
	byteRate := pcmSampleRate * pcmChannels * pcmBitsPerSample / 8
	blockAlign := pcmChannels * pcmBitsPerSample / 8

	out := make([]byte, 44+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(out[22:24], pcmChannels)
	binary.LittleEndian.PutUint32(out[24:28], pcmSampleRate)
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], pcmBitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}
