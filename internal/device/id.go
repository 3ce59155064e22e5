package device

import (
	"fmt"
	"hash/fnv"
	"strconv"
)

// DeviceID hashes the screen geometry and platform into a short stable key.
// It is not unique; devices with identical signals share an id.
func DeviceID(s ScreenMetrics, platform string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%dx%d-%s-%s", s.Width, s.Height, strconv.FormatFloat(s.PixelRatio, 'f', -1, 64), platform)
	return strconv.FormatUint(h.Sum64(), 36)
}

// Identify returns the id a Profiler over provider would assign, without profiling.
func Identify(provider CapabilityProvider) string {
	if provider == nil {
		provider = &StaticProvider{}
	}
	screen, platform, _ := identity(provider)
	return DeviceID(screen, platform)
}

// identity resolves the signals behind the device id, naming the ones that fell back.
func identity(provider CapabilityProvider) (screen ScreenMetrics, platform string, fallbacks []string) {
	screen, ok := safe(provider.Screen)
	if !ok {
		screen = Defaults.Screen
		fallbacks = append(fallbacks, "screen")
	}
	if screen.PixelRatio <= 0 {
		screen.PixelRatio = 1
	}
	platform, ok = safe(provider.Platform)
	if !ok {
		platform = Defaults.Platform
		fallbacks = append(fallbacks, "platform")
	}
	return screen, platform, fallbacks
}
