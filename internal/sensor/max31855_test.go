package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrameF(t *testing.T) {
	t.Run("positive temperature", func(t *testing.T) {
		// 100.00°C = 400 counts at 0.25°C/LSB.
		raw := uint32(400) << tcShift
		got, err := decodeFrameF(raw)
		require.NoError(t, err)
		assert.InDelta(t, 212.0, got, 1e-9)
	})

	t.Run("negative temperature sign extends", func(t *testing.T) {
		// -0.25°C = -1 counts = 0x3FFF in 14-bit two's complement.
		raw := uint32(0x3FFF) << tcShift
		got, err := decodeFrameF(raw)
		require.NoError(t, err)
		assert.InDelta(t, 31.55, got, 1e-9)
	})

	t.Run("fault bit rejects frame", func(t *testing.T) {
		raw := uint32(400)<<tcShift | faultBit
		_, err := decodeFrameF(raw)
		assert.ErrorIs(t, err, ErrFault)
	})
}

func TestSim_AirflowDrivesTemperature(t *testing.T) {
	clock := newFakeClock()
	sim := NewSim(clock.now)

	got, err := sim.TemperatureF()
	require.NoError(t, err)
	assert.Equal(t, simAmbientF, got)

	sim.SetAirflow(100)
	clock.advance(30 * time.Second)
	warm, err := sim.TemperatureF()
	require.NoError(t, err)
	assert.Greater(t, warm, simAmbientF)

	sim.SetAirflow(0)
	clock.advance(time.Minute)
	cooled, err := sim.TemperatureF()
	require.NoError(t, err)
	assert.Less(t, cooled, warm)
}

func TestHardwareConstructors_LoadDriversAndRejectUnknownNames(t *testing.T) {
	// Driver loading is shared and must settle to one result.
	assert.Equal(t, initHost(), initHost())

	// A made-up port or bus name errors instead of panicking on an
	// unpopulated registry.
	_, err := NewMAX31855("no-such-spi-port")
	assert.Error(t, err)
	_, err = NewEnv("no-such-i2c-bus", nil)
	assert.Error(t, err)
}
