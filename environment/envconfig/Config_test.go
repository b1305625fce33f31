package envconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAppliesDefaults(t *testing.T) {
	c := Config{Name: CartPole, IsDiscrete: true}
	require.NoError(t, c.Validate())

	require.Equal(t, 500, c.EpisodeCutoff)
	require.Equal(t, 0.99, c.Discount)
	require.Equal(t, 1, c.FrameStack)
}

func TestValidateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"missing name", Config{IsDiscrete: true}},
		{"continuous actions", Config{Name: CartPole}},
		{
			"negative frame stack",
			Config{Name: CartPole, IsDiscrete: true, FrameStack: -1},
		},
		{
			"discount above one",
			Config{Name: CartPole, IsDiscrete: true, Discount: 1.5},
		},
	}

	for _, test := range tests {
		require.Error(t, test.config.Validate(), test.name)
	}
}

func TestCreateClassicControl(t *testing.T) {
	for _, name := range []string{CartPole, MountainCar} {
		c := Config{Name: name, IsDiscrete: true}

		e, first, err := c.Create(14)
		require.NoError(t, err, name)
		require.True(t, first.First(), name)
		require.NotNil(t, first.Observation, name)

		require.Equal(t, first.Observation.Len(),
			e.ObservationSpec().Shape.Len(), name)
	}
}

func TestCreateFrameStacked(t *testing.T) {
	c := Config{Name: CartPole, IsDiscrete: true, FrameStack: 4}

	e, first, err := c.Create(14)
	require.NoError(t, err)

	// Four stacked frames of the four CartPole features
	require.Equal(t, 16, e.ObservationSpec().Shape.Len())
	require.Equal(t, 16, first.Observation.Len())
}
