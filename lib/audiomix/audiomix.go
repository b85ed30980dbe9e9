// Package audiomix overlays background noise onto acquired clips at a
// chosen signal-to-noise ratio, producing augmented copies next to the
// originals. Downstream consumer of the clip files only.
package audiomix

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Mix adds noise to signal scaled so the result sits at snrDb. The noise
// loops when shorter than the signal. Samples clamp to the given bit
// depth instead of wrapping.
func Mix(signal, noise []int, snrDb float64, bitDepth int) []int {
	out := make([]int, len(signal))
	if len(noise) == 0 {
		copy(out, signal)
		return out
	}

	powSignal := meanSquare(signal)
	powNoise := meanSquare(noise)
	if powNoise == 0 || powSignal == 0 {
		copy(out, signal)
		return out
	}

	scale := math.Sqrt(powSignal / (powNoise * math.Pow(10, snrDb/10)))
	limit := (1 << (bitDepth - 1)) - 1

	for i, s := range signal {
		mixed := float64(s) + scale*float64(noise[i%len(noise)])
		v := int(math.Round(mixed))
		if v > limit {
			v = limit
		}
		if v < -limit-1 {
			v = -limit - 1
		}
		out[i] = v
	}
	return out
}

func meanSquare(samples []int) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return sum / float64(len(samples))
}

// MixFile reads a clip and a noise wav, mixes them at snrDb and writes
// the result to outPath with the clip's original format.
func MixFile(clipPath, noisePath, outPath string, snrDb float64) error {
	clip, clipMeta, err := readWav(clipPath)
	if err != nil {
		return fmt.Errorf("read clip %s: %w", clipPath, err)
	}
	noise, _, err := readWav(noisePath)
	if err != nil {
		return fmt.Errorf("read noise %s: %w", noisePath, err)
	}

	mixed := Mix(clip.Data, noise.Data, snrDb, clipMeta.bitDepth)

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	encoder := wav.NewEncoder(out, clip.Format.SampleRate, clipMeta.bitDepth, clip.Format.NumChannels, clipMeta.audioFormat)
	err = encoder.Write(&audio.IntBuffer{
		Format:         clip.Format,
		Data:           mixed,
		SourceBitDepth: clipMeta.bitDepth,
	})
	if err != nil {
		return err
	}
	return encoder.Close()
}

type wavMeta struct {
	bitDepth    int
	audioFormat int
}

func readWav(path string) (*audio.IntBuffer, wavMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wavMeta{}, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, wavMeta{}, fmt.Errorf("%s is not a valid wav file", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, wavMeta{}, err
	}
	return buf, wavMeta{
		bitDepth:    int(decoder.BitDepth),
		audioFormat: int(decoder.WavAudioFormat),
	}, nil
}
