package audiomix

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

func testSignal(n, amplitude int) []int {
	out := make([]int, n)
	for i := range out {
		// deterministic, nonzero, alternating-ish waveform
		out[i] = amplitude * (1 + i%7) / 7
		if i%2 == 1 {
			out[i] = -out[i]
		}
	}
	return out
}

func TestMixEmptyNoiseIsIdentity(t *testing.T) {
	signal := testSignal(32, 1000)
	out := Mix(signal, nil, 10, 16)
	require.Equal(t, signal, out)
}

func TestMixSilentSignalIsIdentity(t *testing.T) {
	signal := make([]int, 32)
	out := Mix(signal, testSignal(16, 500), 10, 16)
	require.Equal(t, signal, out)
}

func TestMixHitsRequestedSnr(t *testing.T) {
	signal := testSignal(4096, 1000)
	noise := testSignal(1024, 500)
	snrDb := 10.0

	out := Mix(signal, noise, snrDb, 16)
	require.Len(t, out, len(signal))

	added := make([]int, len(signal))
	for i := range signal {
		added[i] = out[i] - signal[i]
	}

	gotSnr := 10 * math.Log10(meanSquare(signal)/meanSquare(added))
	require.InDelta(t, snrDb, gotSnr, 0.5)
}

func TestMixLoopsShortNoise(t *testing.T) {
	signal := testSignal(100, 1000)
	noise := testSignal(10, 500)

	out := Mix(signal, noise, 0, 16)
	// beyond the noise length the loop keeps adding, not falling silent
	changed := false
	for i := len(noise); i < len(signal); i++ {
		if out[i] != signal[i] {
			changed = true
			break
		}
	}
	require.True(t, changed)
}

func TestMixClampsToBitDepth(t *testing.T) {
	signal := testSignal(64, 30000)
	noise := testSignal(64, 30000)

	out := Mix(signal, noise, 0, 16)
	for _, v := range out {
		require.LessOrEqual(t, v, 32767)
		require.GreaterOrEqual(t, v, -32768)
	}
}

func writeTestWav(t *testing.T, path string, samples []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	encoder := wav.NewEncoder(f, 8000, 16, 1, 1)
	err = encoder.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           samples,
		SourceBitDepth: 16,
	})
	require.NoError(t, err)
	require.NoError(t, encoder.Close())
}

func TestMixFilePreservesFormat(t *testing.T) {
	dir := t.TempDir()
	clipPath := filepath.Join(dir, "01.wav")
	noisePath := filepath.Join(dir, "noise.wav")
	outPath := filepath.Join(dir, "01_noisy.wav")

	writeTestWav(t, clipPath, testSignal(256, 1000))
	writeTestWav(t, noisePath, testSignal(64, 500))

	err := MixFile(clipPath, noisePath, outPath, 10)
	require.NoError(t, err)

	buf, meta, err := readWav(outPath)
	require.NoError(t, err)
	require.Equal(t, 256, len(buf.Data))
	require.Equal(t, 8000, buf.Format.SampleRate)
	require.Equal(t, 1, buf.Format.NumChannels)
	require.Equal(t, 16, meta.bitDepth)
}

func TestMixFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := MixFile(filepath.Join(dir, "absent.wav"), filepath.Join(dir, "noise.wav"), filepath.Join(dir, "out.wav"), 10)
	require.Error(t, err)
}
