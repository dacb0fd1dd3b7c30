package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearson_PerfectCorrelation(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2, 4, 6, 8, 10}

	res, err := Pearson(xs, ys)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.R, 1e-9)
	assert.InDelta(t, 0.0, res.PValue, 1e-9)
	assert.Equal(t, 5, res.N)
}

func TestPearson_StrongCorrelation(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{1, 2, 3, 4, 6}

	res, err := Pearson(xs, ys)
	require.NoError(t, err)

	assert.InDelta(t, 0.9864, res.R, 0.001)
	assert.Less(t, res.PValue, 0.01)
}

func TestPearson_NoCorrelation(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6}
	ys := []float64{2, 1, 2, 1, 2, 1}

	res, err := Pearson(xs, ys)
	require.NoError(t, err)

	assert.Greater(t, res.PValue, 0.05)
}

func TestPearson_NegativeCorrelation(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{10, 8, 6, 4, 2}

	res, err := Pearson(xs, ys)
	require.NoError(t, err)

	assert.InDelta(t, -1.0, res.R, 1e-9)
	assert.InDelta(t, 0.0, res.PValue, 1e-9)
}

func TestPearson_Errors(t *testing.T) {
	_, err := Pearson([]float64{1, 2}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Pearson([]float64{1, 2, 3}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrZeroVariance)
}

func TestOneWayANOVA_SeparatedGroups(t *testing.T) {
	groups := [][]float64{
		{1.0, 1.1, 0.9},
		{5.0, 5.1, 4.9},
		{9.0, 9.1, 8.9},
	}

	res, err := OneWayANOVA(groups)
	require.NoError(t, err)

	assert.Less(t, res.PValue, 0.001)
	assert.Greater(t, res.EtaSquared, 0.9)
	assert.Equal(t, 3, res.Groups)
	assert.Equal(t, 9, res.N)
}

func TestOneWayANOVA_IdenticalGroups(t *testing.T) {
	groups := [][]float64{
		{1, 2, 3},
		{1, 2, 3},
		{1, 2, 3},
	}

	res, err := OneWayANOVA(groups)
	require.NoError(t, err)

	assert.InDelta(t, 0, res.F, 1e-9)
	assert.Greater(t, res.PValue, 0.9)
}

func TestOneWayANOVA_Errors(t *testing.T) {
	_, err := OneWayANOVA([][]float64{{1, 2, 3}})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = OneWayANOVA([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = OneWayANOVA([][]float64{{2, 2}, {2, 2}})
	assert.ErrorIs(t, err, ErrZeroVariance)
}

func TestWelchT_SeparatedSamples(t *testing.T) {
	xs := []float64{1.0, 1.1, 0.9, 1.0}
	ys := []float64{5.0, 5.1, 4.9, 5.0}

	res, err := WelchT(xs, ys)
	require.NoError(t, err)

	assert.Less(t, res.T, 0.0)
	assert.Less(t, res.PValue, 0.001)
}

func TestWelchT_SameSamples(t *testing.T) {
	xs := []float64{4, 5, 6, 5}
	ys := []float64{5, 4, 6, 5}

	res, err := WelchT(xs, ys)
	require.NoError(t, err)

	assert.Greater(t, res.PValue, 0.5)
}

func TestStudentT_KnownValue(t *testing.T) {
	// Two-tailed p for t=2.0 at 10 degrees of freedom is about 0.073.
	p := studentTTwoTailed(2.0, 10)
	assert.InDelta(t, 0.073, p, 0.005)

	// t=0 is the null itself.
	assert.InDelta(t, 1.0, studentTTwoTailed(0, 10), 1e-9)
}

func TestFDistSF_Bounds(t *testing.T) {
	assert.InDelta(t, 1.0, fDistSF(0, 2, 10), 1e-9)

	// F(2,10) critical value at alpha=0.05 is about 4.10.
	p := fDistSF(4.10, 2, 10)
	assert.InDelta(t, 0.05, p, 0.005)

	assert.Less(t, fDistSF(100, 2, 10), 0.001)
}

func TestProportionZTest(t *testing.T) {
	// 8/10 against a 20% baseline is a large deviation.
	assert.Less(t, ProportionZTest(8, 10, 0.2), 0.001)

	// 2/10 against a 20% baseline is exactly expected.
	assert.Greater(t, ProportionZTest(2, 10, 0.2), 0.9)

	assert.Equal(t, 1.0, ProportionZTest(1, 0, 0.2))
}

func TestMeanVariance(t *testing.T) {
	assert.InDelta(t, 3.0, Mean([]float64{1, 2, 3, 4, 5}), 1e-9)
	assert.InDelta(t, 2.5, Variance([]float64{1, 2, 3, 4, 5}), 1e-9)
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Variance([]float64{7}))
}
