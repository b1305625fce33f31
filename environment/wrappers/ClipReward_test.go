package wrappers

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestClipRewardClips(t *testing.T) {
	inner := newTestMountainCar(t)
	clipped := NewClipReward(inner, -0.5, 0.5)

	if _, err := clipped.Reset(); err != nil {
		t.Fatal(err)
	}

	// MountainCar rewards every step with -1
	step, _, err := clipped.Step(mat.NewVecDense(1, []float64{1}))
	if err != nil {
		t.Fatal(err)
	}
	if step.Reward != -0.5 {
		t.Errorf("incorrect clipped reward \n\twant(%v)\n\thave(%v)",
			-0.5, step.Reward)
	}
}
