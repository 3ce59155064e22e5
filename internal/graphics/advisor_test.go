package graphics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/redsettings-go/internal/device"
	"github.com/MJE43/redsettings-go/internal/games"
)

func phone(memGB float64, cores int, gpu device.GPUTier, px int) device.Profile {
	return device.Profile{
		ID:    "p",
		Class: device.ClassMobile,
		Screen: device.Screen{
			Width: 393, Height: 852, PixelRatio: 2.75, PhysicalPixels: px,
		},
		Hardware: device.Hardware{Cores: cores, MemoryGB: memGB, GPUTier: gpu},
	}
}

var (
	flagship = phone(16, 16, device.GPUUltra, 1080*2400)
	upper    = phone(12, 8, device.GPUHigh, 1080*2400)
	mid      = phone(6, 8, device.GPUMedium, 1080*2400)
	budget   = phone(2, 4, device.GPUVeryLow, 720*1600)
	ancient  = phone(1, 2, device.GPUVeryLow, 9_000_000)
)

func TestTierFor(t *testing.T) {
	assert.InDelta(t, 54.875, Score(mid), 1e-9)
	assert.Equal(t, TierUltra, TierFor(flagship))
	assert.Equal(t, TierHigh, TierFor(upper))
	assert.Equal(t, TierMedium, TierFor(mid))
	assert.Equal(t, TierLow, TierFor(budget))
	assert.Equal(t, TierVeryLow, TierFor(ancient))

	unknownGPU := mid
	unknownGPU.Hardware.GPUTier = ""
	assert.InDelta(t, Score(mid)-15+8, Score(unknownGPU), 1e-9)
}

func TestPUBG(t *testing.T) {
	s, err := Advise(flagship, "pubg", Options{})
	require.NoError(t, err)
	assert.Equal(t, "pubg", s.Game)
	assert.Equal(t, TierUltra, s.Tier)
	assert.Equal(t, "HDR", s.Quality)
	assert.Equal(t, "Ultra", s.FrameRate)
	assert.Equal(t, 40, s.FrameRateValue)
	assert.Equal(t, "4x", s.AntiAliasing)
	assert.Contains(t, s.Recommendations, "Anti-aliasing is on and may cost battery life.")

	s, _ = Advise(flagship, "pubg", Options{Competitive: true})
	assert.Equal(t, "Smooth", s.Quality)
	assert.Equal(t, 60, s.FrameRateValue)
	assert.Equal(t, "Close", s.AntiAliasing)

	s, _ = Advise(flagship, "pubg", Options{BatteryMode: true})
	assert.Equal(t, "Balanced", s.Quality)
	assert.Equal(t, "High", s.FrameRate)
	assert.Equal(t, "Close", s.AntiAliasing)

	s, _ = Advise(mid, "pubg", Options{PlayStyle: "aggressive"})
	assert.Equal(t, "Ultra", s.FrameRate)
	assert.Equal(t, 40, s.FrameRateValue)

	s, _ = Advise(mid, "pubg", Options{PlayStyle: "sniper"})
	assert.Equal(t, "HD", s.Quality)
	assert.Equal(t, "Realistic", s.Style)

	uhd := flagship
	uhd.Screen.PhysicalPixels = 9_000_000
	s, _ = Advise(uhd, "pubg", Options{})
	assert.Equal(t, "HD", s.Quality)
}

func TestCallOfDuty(t *testing.T) {
	s, err := Advise(flagship, "codm", Options{PrioritizeFPS: true})
	require.NoError(t, err)
	assert.Equal(t, "High", s.Quality)
	assert.Equal(t, 90, s.FrameRateValue)
	assert.False(t, s.Effects["depthOfField"])
	assert.False(t, s.Effects["realTimeShadows"])
	assert.True(t, s.Effects["bloom"])

	s, _ = Advise(mid, "codm", Options{GameMode: "multiplayer"})
	assert.Equal(t, "Very High", s.FrameRate)
	assert.Equal(t, 60, s.FrameRateValue)

	s, _ = Advise(mid, "codm", Options{Competitive: true})
	assert.Equal(t, "Low", s.Quality)
	assert.Equal(t, "Max", s.FrameRate)
	assert.Contains(t, s.Recommendations, "All effects off for maximum performance.")

	s, _ = Advise(upper, "codm", Options{GameMode: "battle-royale", PlayStyle: "sniper"})
	assert.Equal(t, "High", s.Quality)
	assert.True(t, s.Effects["depthOfField"])

	s, _ = Advise(budget, "codm", Options{GameMode: "multiplayer"})
	assert.Equal(t, 50, s.FrameRateValue)
	assert.Contains(t, s.Recommendations, "Multiplayer benefits from 60 FPS or more.")
}

func TestFreeFire(t *testing.T) {
	s, err := Advise(flagship, "freefire", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Ultra", s.Quality)
	assert.Equal(t, 60, s.FrameRateValue)
	assert.Equal(t, map[string]bool{"shadow": true, "highRes": true}, s.Effects)
	assert.Contains(t, s.Recommendations, "The MAX edition unlocks higher graphics on this device.")

	s, _ = Advise(flagship, "freefire", Options{PrioritizeQuality: true, MaxEdition: true})
	assert.Equal(t, "Max", s.Quality)

	s, _ = Advise(flagship, "freefire", Options{PrioritizeQuality: true})
	assert.Equal(t, "Ultra", s.Quality)

	s, _ = Advise(flagship, "freefire", Options{Battery: &Battery{Level: 0.1}})
	assert.Equal(t, "Standard", s.Quality)
	assert.Equal(t, "Normal", s.FrameRate)
	assert.False(t, s.Effects["shadow"])

	s, _ = Advise(flagship, "freefire", Options{Battery: &Battery{Level: 0.1, Charging: true}})
	assert.Equal(t, "Ultra", s.Quality)

	dense := flagship
	dense.Screen.PixelRatio = 3
	s, _ = Advise(dense, "freefire", Options{})
	assert.Equal(t, "Standard", s.Quality)
}

func TestUnknownGame(t *testing.T) {
	_, err := Advise(mid, "chess", Options{})
	assert.ErrorIs(t, err, games.ErrNotFound)
}

func TestDescribe(t *testing.T) {
	s, _ := Advise(mid, "pubg", Options{})
	assert.Equal(t, "Balanced @ High (30 fps)", s.Describe())
}
