package detector

// int16FullScale maps signed 16-bit PCM onto [-1, 1)
const int16FullScale = 32768.0

// FromInt16 converts signed 16-bit PCM into a block. dst is reused when it
// has enough capacity, which lets a capture loop convert without allocating.
func FromInt16(dst []float64, pcm []int16, sampleRate int) AudioBlock {
	dst = resize(dst, len(pcm))
	for i, s := range pcm {
		dst[i] = float64(s) / int16FullScale
	}
	return NewAudioBlock(dst, sampleRate)
}

// FromFloat32 converts float32 samples, the format most capture callbacks
// deliver, into a block. dst is reused as in FromInt16.
func FromFloat32(dst []float64, samples []float32, sampleRate int) AudioBlock {
	dst = resize(dst, len(samples))
	for i, s := range samples {
		dst[i] = float64(s)
	}
	return NewAudioBlock(dst, sampleRate)
}

func resize(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	return dst[:n]
}
