package trainer

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"tte-forge/internal/dataset"
)

func aeFeatures(n int) [][]float64 {
	rng := rand.New(rand.NewSource(3))
	rows := make([][]float64, n)
	for i := range rows {
		a, b := rng.Float64(), rng.Float64()
		rows[i] = []float64{a, b, a + b, a - b}
	}
	return rows
}

func aeOptions(logs *bytes.Buffer) AutoencoderOptions {
	opts := DefaultAutoencoderOptions()
	opts.Epochs = 25
	opts.BatchSize = 8
	opts.Seed = 9
	opts.Logger = log.New(logs, "", 0)
	return opts
}

func TestTrainAutoencoderLogsAndReturnsCheckpoint(t *testing.T) {
	var logs bytes.Buffer
	ae, err := TrainAutoencoder(context.Background(), aeFeatures(20), aeOptions(&logs))
	require.NoError(t, err)
	assert.Equal(t, 4, ae.Inputs())
	assert.Equal(t, 3, strings.Count(logs.String(), "autoencoder epoch="))
}

func TestTrainAutoencoderDiscardsNoiseByDefault(t *testing.T) {
	var logs bytes.Buffer
	base := aeOptions(&logs)
	shifted := base
	shifted.NoiseMean = 50

	a, err := TrainAutoencoder(context.Background(), aeFeatures(16), base)
	require.NoError(t, err)
	b, err := TrainAutoencoder(context.Background(), aeFeatures(16), shifted)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a.DecOut.Weight, b.DecOut.Weight))

	shifted.KeepNoise = true
	c, err := TrainAutoencoder(context.Background(), aeFeatures(16), shifted)
	require.NoError(t, err)
	assert.False(t, mat.Equal(a.DecOut.Weight, c.DecOut.Weight))
}

func TestTrainAutoencoderRejectsEmpty(t *testing.T) {
	var logs bytes.Buffer
	_, err := TrainAutoencoder(context.Background(), nil, aeOptions(&logs))
	assert.True(t, errors.Is(err, dataset.ErrEmptyTable))
}

func TestAddNoiseDistribution(t *testing.T) {
	x := mat.NewDense(100, 50, nil)
	noisy := addNoise(x, 1, 0.3, rand.New(rand.NewSource(1)))
	data := noisy.RawMatrix().Data
	mean, std := stat.MeanStdDev(data, nil)
	assert.InDelta(t, 1, mean, 0.02)
	assert.InDelta(t, 0.3, std, 0.02)
	assert.Zero(t, x.At(0, 0))
}

func TestReconstructStacksExamplesAsColumns(t *testing.T) {
	var logs bytes.Buffer
	rows := aeFeatures(5)
	ae, err := TrainAutoencoder(context.Background(), aeFeatures(20), aeOptions(&logs))
	require.NoError(t, err)

	out, err := Reconstruct(ae, rows)
	require.NoError(t, err)
	r, c := out.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 5, c)

	single := ae.Forward(mat.NewDense(1, 4, rows[2]))
	assert.InDeltaSlice(t, single.RawRowView(0), mat.Col(nil, 2, out), 1e-12)

	denoised, err := Denoise(ae, rows)
	require.NoError(t, err)
	require.Len(t, denoised, 5)
	assert.InDeltaSlice(t, single.RawRowView(0), denoised[2], 1e-12)

	_, err = Reconstruct(ae, nil)
	assert.True(t, errors.Is(err, dataset.ErrEmptyTable))
	_, err = Reconstruct(ae, [][]float64{{1, 2}})
	assert.True(t, errors.Is(err, dataset.ErrShapeMismatch))
}
