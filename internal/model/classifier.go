// Package model holds the trained classifier, its persisted artifact form,
// and the atomic active/previous slot machinery the rest of the system swaps
// models through.
package model

import (
	"errors"
	"math"
)

// Class indices follow the labeling convention: 0 neutral, 1 buy, 2 sell.
const (
	ClassNeutral = 0
	ClassBuy     = 1
	ClassSell    = 2
	NumClasses   = 3
)

// ErrEmptyDataset rejects training on no samples.
var ErrEmptyDataset = errors.New("model: empty training set")

// Classifier is a multinomial logistic regression over standardized
// features. Training is plain full-batch gradient descent with a fixed
// iteration count, so identical datasets always produce identical weights.
type Classifier struct {
	// Weights[c] holds the bias at index 0 followed by one weight per feature.
	Weights [NumClasses][]float64 `json:"weights"`
	Means   []float64             `json:"means"`
	Stds    []float64             `json:"stds"`
}

// TrainParams tune the gradient descent. Zero values fall back to defaults.
type TrainParams struct {
	Epochs       int
	LearningRate float64
	L2           float64
}

func (p TrainParams) withDefaults() TrainParams {
	if p.Epochs <= 0 {
		p.Epochs = 300
	}
	if p.LearningRate <= 0 {
		p.LearningRate = 0.1
	}
	if p.L2 < 0 {
		p.L2 = 0
	}
	return p
}

// Train fits a classifier on the feature matrix and class labels.
func Train(features [][]float64, labels []int, params TrainParams) (*Classifier, error) {
	if len(features) == 0 || len(features) != len(labels) {
		return nil, ErrEmptyDataset
	}
	params = params.withDefaults()
	dim := len(features[0])

	clf := &Classifier{
		Means: make([]float64, dim),
		Stds:  make([]float64, dim),
	}
	for c := 0; c < NumClasses; c++ {
		clf.Weights[c] = make([]float64, dim+1)
	}
	clf.fitScaler(features)

	scaled := make([][]float64, len(features))
	for i, row := range features {
		scaled[i] = clf.scale(row)
	}

	n := float64(len(scaled))
	grad := [NumClasses][]float64{}
	for c := 0; c < NumClasses; c++ {
		grad[c] = make([]float64, dim+1)
	}

	for epoch := 0; epoch < params.Epochs; epoch++ {
		for c := 0; c < NumClasses; c++ {
			for j := range grad[c] {
				grad[c][j] = 0
			}
		}
		for i, row := range scaled {
			probs := clf.probsScaled(row)
			for c := 0; c < NumClasses; c++ {
				delta := probs[c]
				if labels[i] == c {
					delta -= 1
				}
				grad[c][0] += delta
				for j, v := range row {
					grad[c][j+1] += delta * v
				}
			}
		}
		for c := 0; c < NumClasses; c++ {
			for j := range clf.Weights[c] {
				update := grad[c][j] / n
				if j > 0 && params.L2 > 0 {
					update += params.L2 * clf.Weights[c][j]
				}
				clf.Weights[c][j] -= params.LearningRate * update
			}
		}
	}
	return clf, nil
}

// Predict returns the argmax class and the full probability vector.
func (c *Classifier) Predict(features []float64) (int, [NumClasses]float64) {
	probs := c.probsScaled(c.scale(features))
	best := 0
	for i := 1; i < NumClasses; i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best, probs
}

func (c *Classifier) fitScaler(features [][]float64) {
	n := float64(len(features))
	for _, row := range features {
		for j, v := range row {
			c.Means[j] += v
		}
	}
	for j := range c.Means {
		c.Means[j] /= n
	}
	for _, row := range features {
		for j, v := range row {
			d := v - c.Means[j]
			c.Stds[j] += d * d
		}
	}
	for j := range c.Stds {
		c.Stds[j] = math.Sqrt(c.Stds[j] / n)
		if c.Stds[j] == 0 {
			c.Stds[j] = 1
		}
	}
}

func (c *Classifier) scale(features []float64) []float64 {
	out := make([]float64, len(features))
	for j, v := range features {
		out[j] = (v - c.Means[j]) / c.Stds[j]
	}
	return out
}

func (c *Classifier) probsScaled(scaled []float64) [NumClasses]float64 {
	var logits [NumClasses]float64
	maxLogit := math.Inf(-1)
	for i := 0; i < NumClasses; i++ {
		z := c.Weights[i][0]
		for j, v := range scaled {
			z += c.Weights[i][j+1] * v
		}
		logits[i] = z
		if z > maxLogit {
			maxLogit = z
		}
	}
	var probs [NumClasses]float64
	var sum float64
	for i, z := range logits {
		probs[i] = math.Exp(z - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
