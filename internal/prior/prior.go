// Package prior provides log-density priors over parameter values.
//
// A prior only adds a regularization term to the training loss; it never
// constrains the parameter. Densities come from gonum's distuv, the
// gradients are closed form.
package prior

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Prior is an element-wise log density over parameter values.
type Prior interface {
	// Name identifies the distribution in logs and configs.
	Name() string

	// LogProb returns log p(v).
	LogProb(v float64) float64

	// GradLogProb returns d log p(v) / dv.
	GradLogProb(v float64) float64
}

// Normal is a Gaussian prior N(Mu, Sigma²).
type Normal struct {
	dist distuv.Normal
}

// NewNormal creates a Normal prior. Sigma must be positive.
func NewNormal(mu, sigma float64) *Normal {
	if sigma <= 0 {
		panic("prior: normal sigma must be positive")
	}
	return &Normal{dist: distuv.Normal{Mu: mu, Sigma: sigma}}
}

// Name returns "normal".
func (p *Normal) Name() string { return "normal" }

// LogProb returns the Gaussian log density at v.
func (p *Normal) LogProb(v float64) float64 {
	return p.dist.LogProb(v)
}

// GradLogProb returns -(v - mu) / sigma².
func (p *Normal) GradLogProb(v float64) float64 {
	return -(v - p.dist.Mu) / (p.dist.Sigma * p.dist.Sigma)
}

// Laplace is a double-exponential prior with location Mu and scale Scale.
type Laplace struct {
	dist distuv.Laplace
}

// NewLaplace creates a Laplace prior. Scale must be positive.
func NewLaplace(mu, scale float64) *Laplace {
	if scale <= 0 {
		panic("prior: laplace scale must be positive")
	}
	return &Laplace{dist: distuv.Laplace{Mu: mu, Scale: scale}}
}

// Name returns "laplace".
func (p *Laplace) Name() string { return "laplace" }

// LogProb returns the Laplace log density at v.
func (p *Laplace) LogProb(v float64) float64 {
	return p.dist.LogProb(v)
}

// GradLogProb returns -sign(v - mu) / scale. The subgradient at mu is 0.
func (p *Laplace) GradLogProb(v float64) float64 {
	d := v - p.dist.Mu
	if d == 0 {
		return 0
	}
	return -math.Copysign(1, d) / p.dist.Scale
}

// LogProbSum sums p's log density over values.
func LogProbSum(p Prior, values []float64) float64 {
	var s float64
	for _, v := range values {
		s += p.LogProb(v)
	}
	return s
}
