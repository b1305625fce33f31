// Package render draws environment states to PNG frames so that
// training and evaluation episodes can be inspected visually.
package render

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/mat"

	"github.com/revolvedev/revolve/environment/classiccontrol/cartpole"
	"github.com/revolvedev/revolve/environment/classiccontrol/mountaincar"
	ts "github.com/revolvedev/revolve/timestep"
)

const (
	frameWidth  = 600
	frameHeight = 400
)

// Renderer draws timesteps of a named environment to numbered PNG
// frames in a directory
type Renderer struct {
	dir     string
	envName string
	frame   int
}

// New returns a Renderer writing frames for environment envName into
// dir, creating the directory if needed
func New(dir, envName string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("new: could not create frame directory: %v",
			err)
	}
	return &Renderer{dir: dir, envName: envName}, nil
}

// Render draws the observation of t as the next frame
func (r *Renderer) Render(t ts.TimeStep) error {
	dc := gg.NewContext(frameWidth, frameHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	switch r.envName {
	case "CartPole":
		drawCartPole(dc, t.Observation)
	case "MountainCar":
		drawMountainCar(dc, t.Observation)
	default:
		drawFeatures(dc, t.Observation)
	}

	name := filepath.Join(r.dir, fmt.Sprintf("frame_%06d.png", r.frame))
	r.frame++

	if err := dc.SavePNG(name); err != nil {
		return fmt.Errorf("render: could not save frame: %v", err)
	}
	return nil
}

// drawCartPole draws the cart at its x position with the pole at its
// current angle
func drawCartPole(dc *gg.Context, obs mat.Vector) {
	x := obs.AtVec(0)
	theta := obs.AtVec(2)

	scale := frameWidth / (2 * cartpole.PositionBounds)
	cartX := frameWidth/2 + x*scale
	cartY := float64(frameHeight) * 0.75

	// Track
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(0, cartY+15, frameWidth, cartY+15)
	dc.Stroke()

	// Cart
	dc.DrawRectangle(cartX-30, cartY, 60, 30)
	dc.SetRGB(0.2, 0.2, 0.2)
	dc.Fill()

	// Pole
	poleLen := 2 * cartpole.HalfPoleLength * scale
	tipX := cartX + poleLen*math.Sin(theta)
	tipY := cartY - poleLen*math.Cos(theta)
	dc.SetRGB(0.7, 0.4, 0.1)
	dc.SetLineWidth(6)
	dc.DrawLine(cartX, cartY, tipX, tipY)
	dc.Stroke()
}

// drawMountainCar draws the hill sin(3x) with the car at its position
func drawMountainCar(dc *gg.Context, obs mat.Vector) {
	height := func(x float64) float64 { return math.Sin(3*x)*0.45 + 0.55 }

	toScreen := func(x, y float64) (float64, float64) {
		sx := (x - mountaincar.MinPosition) /
			(mountaincar.MaxPosition - mountaincar.MinPosition) * frameWidth
		sy := frameHeight - y*frameHeight*0.8 - 40
		return sx, sy
	}

	// Hill
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(2)
	steps := 100
	for i := 0; i < steps; i++ {
		x0 := mountaincar.MinPosition + float64(i)/float64(steps)*
			(mountaincar.MaxPosition-mountaincar.MinPosition)
		x1 := mountaincar.MinPosition + float64(i+1)/float64(steps)*
			(mountaincar.MaxPosition-mountaincar.MinPosition)
		sx0, sy0 := toScreen(x0, height(x0))
		sx1, sy1 := toScreen(x1, height(x1))
		dc.DrawLine(sx0, sy0, sx1, sy1)
	}
	dc.Stroke()

	// Car
	pos := obs.AtVec(0)
	cx, cy := toScreen(pos, height(pos))
	dc.SetRGB(0.8, 0.1, 0.1)
	dc.DrawCircle(cx, cy-8, 8)
	dc.Fill()

	// Flag at the goal
	gx, gy := toScreen(mountaincar.GoalPosition,
		height(mountaincar.GoalPosition))
	dc.SetRGB(0.1, 0.5, 0.1)
	dc.SetLineWidth(3)
	dc.DrawLine(gx, gy, gx, gy-30)
	dc.Stroke()
}

// drawFeatures draws a bar per observation feature for environments
// without a bespoke drawing
func drawFeatures(dc *gg.Context, obs mat.Vector) {
	n := obs.Len()
	if n == 0 {
		return
	}

	barWidth := float64(frameWidth) / float64(n)
	mid := float64(frameHeight) / 2

	dc.SetRGB(0.2, 0.3, 0.7)
	for i := 0; i < n; i++ {
		v := obs.AtVec(i)
		h := math.Tanh(v) * mid * 0.9
		top := mid - math.Max(h, 0)
		dc.DrawRectangle(float64(i)*barWidth+2, top, barWidth-4, math.Abs(h))
	}
	dc.Fill()
}
