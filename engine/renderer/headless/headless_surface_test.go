package headless

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configure(t *testing.T, d *Device) {
	t.Helper()
	_, err := d.Surface().Configure(gpu.SurfaceConfig{
		Extent:     common.Extent2D{Width: 64, Height: 64},
		ImageCount: 2,
		Format:     gpu.FormatBGRA8UnormSrgb,
	})
	require.NoError(t, err)
}

func TestAcquiredImageMustBePresented(t *testing.T) {
	d := NewDevice()
	configure(t, d)

	idx, err := d.Surface().AcquireNextImage(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	_, err = d.Surface().AcquireNextImage(nil)
	assert.ErrorContains(t, err, "acquired twice without a present")

	require.NoError(t, d.Queue().Present(idx, nil))
	idx, err = d.Surface().AcquireNextImage(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestConfigureDropsAbandonedImage(t *testing.T) {
	d := NewDevice()
	configure(t, d)

	_, err := d.Surface().AcquireNextImage(nil)
	require.NoError(t, err)

	configure(t, d)
	idx, err := d.Surface().AcquireNextImage(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "the new chain starts from its first image")
}

func TestFailedPresentReturnsImage(t *testing.T) {
	d := NewDevice()
	configure(t, d)

	idx, err := d.Surface().AcquireNextImage(nil)
	require.NoError(t, err)
	d.FailNextPresent(gpu.ErrSurfaceOutOfDate)
	assert.ErrorIs(t, d.Queue().Present(idx, nil), gpu.ErrSurfaceOutOfDate)

	_, err = d.Surface().AcquireNextImage(nil)
	assert.NoError(t, err)
}
