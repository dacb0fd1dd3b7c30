// Package stats implements the small set of significance tests the pattern
// observer needs: Pearson correlation with a two-tailed p-value, one-way
// ANOVA, and Welch's t-test. P-values come from the regularized incomplete
// beta function, which covers both the Student-t and F distributions.
package stats

import (
	"errors"
	"math"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrZeroVariance     = errors.New("zero variance")
)

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Variance returns the sample variance (n-1 denominator).
func Variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(len(xs)-1)
}

// PearsonResult holds a correlation coefficient and its two-tailed p-value
// under the null hypothesis of no correlation.
type PearsonResult struct {
	R      float64
	PValue float64
	N      int
}

// Pearson computes the correlation between paired samples. It needs at least
// three pairs and nonzero variance on both sides.
func Pearson(xs, ys []float64) (PearsonResult, error) {
	n := len(xs)
	if n != len(ys) || n < 3 {
		return PearsonResult{}, ErrInsufficientData
	}

	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return PearsonResult{}, ErrZeroVariance
	}

	r := sxy / math.Sqrt(sxx*syy)
	// Guard against rounding pushing |r| past 1.
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}

	df := float64(n - 2)
	p := 1.0
	if math.Abs(r) < 1 {
		t := r * math.Sqrt(df/(1-r*r))
		p = studentTTwoTailed(t, df)
	} else {
		p = 0
	}

	return PearsonResult{R: r, PValue: p, N: n}, nil
}

// AnovaResult holds a one-way ANOVA F statistic, its p-value, and eta-squared
// as the effect size.
type AnovaResult struct {
	F          float64
	PValue     float64
	EtaSquared float64
	Groups     int
	N          int
}

// OneWayANOVA tests whether group means differ. Every group must have at
// least two members and there must be at least two groups.
func OneWayANOVA(groups [][]float64) (AnovaResult, error) {
	k := len(groups)
	if k < 2 {
		return AnovaResult{}, ErrInsufficientData
	}

	var all []float64
	for _, g := range groups {
		if len(g) < 2 {
			return AnovaResult{}, ErrInsufficientData
		}
		all = append(all, g...)
	}
	n := len(all)
	grand := Mean(all)

	var ssBetween, ssWithin float64
	for _, g := range groups {
		gm := Mean(g)
		ssBetween += float64(len(g)) * (gm - grand) * (gm - grand)
		for _, x := range g {
			ssWithin += (x - gm) * (x - gm)
		}
	}

	dfBetween := float64(k - 1)
	dfWithin := float64(n - k)
	if ssWithin == 0 {
		return AnovaResult{}, ErrZeroVariance
	}

	f := (ssBetween / dfBetween) / (ssWithin / dfWithin)
	p := fDistSF(f, dfBetween, dfWithin)
	eta := ssBetween / (ssBetween + ssWithin)

	return AnovaResult{F: f, PValue: p, EtaSquared: eta, Groups: k, N: n}, nil
}

// WelchResult holds Welch's t statistic and two-tailed p-value for two
// samples with unequal variances.
type WelchResult struct {
	T      float64
	PValue float64
	DF     float64
}

// WelchT compares the means of two independent samples without assuming
// equal variance.
func WelchT(xs, ys []float64) (WelchResult, error) {
	if len(xs) < 2 || len(ys) < 2 {
		return WelchResult{}, ErrInsufficientData
	}

	vx := Variance(xs) / float64(len(xs))
	vy := Variance(ys) / float64(len(ys))
	if vx+vy == 0 {
		return WelchResult{}, ErrZeroVariance
	}

	t := (Mean(xs) - Mean(ys)) / math.Sqrt(vx+vy)

	// Welch-Satterthwaite degrees of freedom.
	df := (vx + vy) * (vx + vy) /
		(vx*vx/float64(len(xs)-1) + vy*vy/float64(len(ys)-1))

	return WelchResult{T: t, PValue: studentTTwoTailed(t, df), DF: df}, nil
}

// ProportionZTest returns the two-tailed p-value for observing k successes
// in n trials against an expected proportion p0, using the normal
// approximation.
func ProportionZTest(k, n int, p0 float64) float64 {
	if n <= 0 {
		return 1
	}
	if p0 <= 0 {
		p0 = 1e-9
	}
	if p0 >= 1 {
		p0 = 1 - 1e-9
	}

	phat := float64(k) / float64(n)
	se := math.Sqrt(p0 * (1 - p0) / float64(n))
	if se == 0 {
		return 1
	}
	z := (phat - p0) / se
	return 2 * normalSF(math.Abs(z))
}

// normalSF is the standard normal survival function P(Z >= z).
func normalSF(z float64) float64 {
	return 0.5 * math.Erfc(z/math.Sqrt2)
}

// studentTTwoTailed returns P(|T| >= |t|) for a Student-t variable with df
// degrees of freedom, via I_x(df/2, 1/2) with x = df/(df+t^2).
func studentTTwoTailed(t, df float64) float64 {
	if df <= 0 {
		return 1
	}
	x := df / (df + t*t)
	return regIncompleteBeta(df/2, 0.5, x)
}

// fDistSF returns P(F >= f) for an F variable with (d1, d2) degrees of
// freedom.
func fDistSF(f, d1, d2 float64) float64 {
	if f <= 0 {
		return 1
	}
	x := d2 / (d2 + d1*f)
	return regIncompleteBeta(d2/2, d1/2, x)
}

// regIncompleteBeta computes the regularized incomplete beta function
// I_x(a, b) using the continued-fraction expansion (Numerical Recipes 6.4).
func regIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lbeta, _ := math.Lgamma(a + b)
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	front := math.Exp(lbeta - la - lb + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaCF(a, b, x) / a
	}
	return 1 - front*betaCF(b, a, 1-x)/b
}

func betaCF(a, b, x float64) float64 {
	const (
		maxIterations = 200
		epsilon       = 3e-14
		fpMin         = 1e-300
	)

	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < fpMin {
		d = fpMin
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIterations; m++ {
		fm := float64(m)
		m2 := 2 * fm

		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpMin {
			d = fpMin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpMin {
			c = fpMin
		}
		d = 1 / d
		h *= d * c

		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpMin {
			d = fpMin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpMin {
			c = fpMin
		}
		d = 1 / d
		del := d * c
		h *= del

		if math.Abs(del-1) < epsilon {
			break
		}
	}
	return h
}
