// Package graphics recommends in-game graphics presets for a device.
package graphics

import (
	"fmt"
	"slices"

	"github.com/MJE43/redsettings-go/internal/device"
	"github.com/MJE43/redsettings-go/internal/games"
)

// Tier is the combined device performance tier.
type Tier string

const (
	TierUltra   Tier = "ultra"
	TierHigh    Tier = "high"
	TierMedium  Tier = "medium"
	TierLow     Tier = "low"
	TierVeryLow Tier = "very-low"
)

const uhdPixels = 8_294_400

var gpuPoints = map[device.GPUTier]float64{
	device.GPUUltra:   30,
	device.GPUHigh:    22,
	device.GPUMedium:  15,
	device.GPULow:     8,
	device.GPUVeryLow: 5,
}

// Score is the 0-100 performance score behind TierFor.
func Score(p device.Profile) float64 {
	s := min(25, p.Hardware.MemoryGB/16*25)
	s += min(25, float64(p.Hardware.Cores)/16*25)
	if pts, ok := gpuPoints[p.Hardware.GPUTier]; ok {
		s += pts
	} else {
		s += gpuPoints[device.GPULow]
	}
	switch px := p.Screen.PhysicalPixels; {
	case px > uhdPixels:
		s += 10
	case px > 3_686_400:
		s += 15
	case px > 2_073_600:
		s += 18
	default:
		s += 20
	}
	return s
}

// TierFor buckets Score.
func TierFor(p device.Profile) Tier {
	switch s := Score(p); {
	case s >= 85:
		return TierUltra
	case s >= 70:
		return TierHigh
	case s >= 50:
		return TierMedium
	case s >= 30:
		return TierLow
	default:
		return TierVeryLow
	}
}

// Battery is an optional battery reading.
type Battery struct {
	Level    float64 `json:"level"`
	Charging bool    `json:"charging"`
}

func (b *Battery) critical() bool { return b != nil && !b.Charging && b.Level < 0.2 }
func (b *Battery) low() bool      { return b != nil && !b.Charging && b.Level < 0.3 }

// Options tune the recommendation.
type Options struct {
	// PlayStyle is "balanced", "aggressive" or "sniper".
	PlayStyle         string   `json:"playStyle,omitempty"`
	PrioritizeFPS     bool     `json:"prioritizeFps,omitempty"`
	PrioritizeQuality bool     `json:"prioritizeQuality,omitempty"`
	BatteryMode       bool     `json:"batteryMode,omitempty"`
	Competitive       bool     `json:"competitive,omitempty"`
	Battery           *Battery `json:"battery,omitempty"`
	// GameMode is "multiplayer" or "battle-royale" (Call of Duty only).
	GameMode string `json:"gameMode,omitempty"`
	// MaxEdition unlocks the Max preset (Free Fire only).
	MaxEdition bool `json:"maxEdition,omitempty"`
}

// Settings is a graphics recommendation.
type Settings struct {
	Game            string          `json:"game"`
	Tier            Tier            `json:"tier"`
	Quality         string          `json:"quality"`
	FrameRate       string          `json:"frameRate"`
	FrameRateValue  int             `json:"frameRateValue"`
	Style           string          `json:"style,omitempty"`
	AntiAliasing    string          `json:"antiAliasing,omitempty"`
	Filter          string          `json:"filter,omitempty"`
	Effects         map[string]bool `json:"effects,omitempty"`
	Recommendations []string        `json:"recommendations"`
}

type fpsStep struct {
	name  string
	value int
}

// ladder is a game's ordered quality and frame-rate presets, lowest first.
type ladder struct {
	quality []string
	fps     []fpsStep
}

func (l ladder) stepQuality(s *Settings, delta int) {
	i := slices.Index(l.quality, s.Quality)
	if i < 0 {
		return
	}
	s.Quality = l.quality[max(0, min(len(l.quality)-1, i+delta))]
}

func (l ladder) setFPS(s *Settings, name string) {
	for _, f := range l.fps {
		if f.name == name {
			s.FrameRate, s.FrameRateValue = f.name, f.value
			return
		}
	}
}

func (l ladder) stepFPS(s *Settings, delta int) {
	for i, f := range l.fps {
		if f.name == s.FrameRate {
			next := l.fps[max(0, min(len(l.fps)-1, i+delta))]
			s.FrameRate, s.FrameRateValue = next.name, next.value
			return
		}
	}
}

var (
	pubgLadder = ladder{
		quality: []string{"Smooth", "Balanced", "HD", "HDR", "Ultra HD", "UHD"},
		fps:     []fpsStep{{"Low", 20}, {"Medium", 25}, {"High", 30}, {"Ultra", 40}, {"Extreme", 60}, {"90 FPS", 90}},
	}
	codLadder = ladder{
		quality: []string{"Low", "Medium", "High", "Very High"},
		fps:     []fpsStep{{"Low", 30}, {"Medium", 40}, {"High", 50}, {"Very High", 60}, {"Max", 60}, {"Ultra", 90}},
	}
	freeFireLadder = ladder{
		quality: []string{"Smooth", "Standard", "Ultra", "Max"},
		fps:     []fpsStep{{"Normal", 30}, {"High", 60}},
	}
)

// Advise returns graphics settings for gameID on p.
func Advise(p device.Profile, gameID string, o Options) (Settings, error) {
	tier := TierFor(p)
	var s Settings
	switch gameID {
	case "pubg":
		s = advisePUBG(p, tier, o)
	case "codm":
		s = adviseCOD(p, tier, o)
	case "freefire":
		s = adviseFreeFire(p, tier, o)
	default:
		return Settings{}, &games.NotFoundError{Kind: "game", Name: gameID}
	}
	s.Game, s.Tier = gameID, tier
	if s.Recommendations == nil {
		s.Recommendations = []string{}
	}
	return s, nil
}

func highEnd(t Tier) bool { return t == TierUltra || t == TierHigh }

func advisePUBG(p device.Profile, tier Tier, o Options) Settings {
	l := pubgLadder
	s := Settings{Style: "Classic", AntiAliasing: "Close"}
	switch tier {
	case TierUltra:
		s.Quality = pick(o.PrioritizeQuality, "Ultra HD", "HDR")
		l.setFPS(&s, pick(o.PrioritizeFPS, "Extreme", "Ultra"))
		s.Style, s.AntiAliasing = "Realistic", "4x"
	case TierHigh:
		s.Quality = pick(o.PrioritizeQuality, "HDR", "HD")
		l.setFPS(&s, pick(o.PrioritizeFPS, "Ultra", "High"))
		s.Style, s.AntiAliasing = "Colorful", "2x"
	case TierMedium:
		s.Quality = "Balanced"
		l.setFPS(&s, "High")
	case TierLow:
		s.Quality = "Smooth"
		l.setFPS(&s, "Medium")
	default:
		s.Quality = "Smooth"
		l.setFPS(&s, "Low")
	}

	if o.Competitive {
		s.Quality, s.Style, s.AntiAliasing = "Smooth", "Classic", "Close"
		l.setFPS(&s, pick(highEnd(tier), "Extreme", "Ultra"))
	}
	if o.BatteryMode || o.Battery.critical() {
		l.stepQuality(&s, -2)
		l.stepFPS(&s, -1)
		s.AntiAliasing = "Close"
	}
	switch o.PlayStyle {
	case "aggressive":
		l.stepFPS(&s, 1)
	case "sniper":
		l.stepQuality(&s, 1)
		s.Style = "Realistic"
	}
	if p.Screen.PhysicalPixels > uhdPixels {
		l.stepQuality(&s, -1)
	}

	var rec []string
	if s.FrameRateValue >= 60 {
		rec = append(rec, "High FPS enabled: good for competitive play.")
	}
	if s.Quality == "Smooth" {
		rec = append(rec, "Smooth graphics give the best performance and visibility.")
	}
	if s.AntiAliasing != "Close" {
		rec = append(rec, "Anti-aliasing is on and may cost battery life.")
	}
	if o.Battery.low() {
		rec = append(rec, "Battery is low: consider battery mode.")
	}
	if o.PlayStyle == "sniper" && s.Quality != "HDR" && s.Quality != "Ultra HD" {
		rec = append(rec, "For sniping, higher graphics improve long-range visibility.")
	}
	s.Recommendations = rec
	return s
}

func adviseCOD(p device.Profile, tier Tier, o Options) Settings {
	l := codLadder
	s := Settings{Effects: effects(false, false, false, true)}
	switch tier {
	case TierUltra:
		s.Quality = pick(o.PrioritizeQuality, "Very High", "High")
		l.setFPS(&s, pick(o.PrioritizeFPS, "Ultra", "Max"))
		s.Effects = effects(!o.PrioritizeFPS, true, !o.PrioritizeFPS, true)
	case TierHigh:
		s.Quality = pick(o.PrioritizeQuality, "High", "Medium")
		l.setFPS(&s, pick(o.PrioritizeFPS, "Max", "Very High"))
		s.Effects = effects(false, true, false, true)
	case TierMedium:
		s.Quality = "Medium"
		l.setFPS(&s, "High")
	case TierLow:
		s.Quality = "Low"
		l.setFPS(&s, "Medium")
		s.Effects = effects(false, false, false, false)
	default:
		s.Quality = "Low"
		l.setFPS(&s, "Low")
		s.Effects = effects(false, false, false, false)
	}

	if o.Competitive {
		s.Quality = "Low"
		l.setFPS(&s, pick(tier == TierUltra, "Ultra", "Max"))
		s.Effects = effects(false, false, false, false)
	}
	if o.BatteryMode || o.Battery.critical() {
		l.stepQuality(&s, -1)
		l.stepFPS(&s, -1)
		s.Effects = effects(false, false, false, false)
	}
	switch o.GameMode {
	case "battle-royale":
		l.stepQuality(&s, 1)
	case "multiplayer":
		l.stepFPS(&s, 1)
	}
	switch o.PlayStyle {
	case "aggressive":
		s.Effects["depthOfField"] = false
		s.Effects["bloom"] = false
	case "sniper":
		s.Effects["depthOfField"] = highEnd(tier)
	}
	if p.Screen.PhysicalPixels > uhdPixels {
		l.stepQuality(&s, -1)
	}

	var rec []string
	switch {
	case s.FrameRateValue >= 90:
		rec = append(rec, "Ultra FPS enabled: needs a high-end device.")
	case s.FrameRateValue >= 60:
		rec = append(rec, "Max FPS enabled for smooth gameplay.")
	}
	if s.Quality == "Low" {
		rec = append(rec, "Low quality gives the best competitive performance.")
	}
	on := 0
	for _, v := range s.Effects {
		if v {
			on++
		}
	}
	switch {
	case on == 0:
		rec = append(rec, "All effects off for maximum performance.")
	case on >= 3:
		rec = append(rec, "Several effects are on and may cost frame rate.")
	}
	if o.GameMode == "multiplayer" && s.FrameRateValue < 60 {
		rec = append(rec, "Multiplayer benefits from 60 FPS or more.")
	}
	if o.Battery.low() {
		rec = append(rec, "Battery is low: consider lowering quality.")
	}
	s.Recommendations = rec
	return s
}

func adviseFreeFire(p device.Profile, tier Tier, o Options) Settings {
	l := freeFireLadder
	var shadow, highRes bool
	s := Settings{Filter: "Classic"}
	l.setFPS(&s, "Normal")
	switch tier {
	case TierUltra:
		s.Quality = pick(o.MaxEdition && o.PrioritizeQuality, "Max", "Ultra")
		l.setFPS(&s, "High")
		shadow, highRes = !o.PrioritizeFPS, !o.PrioritizeFPS
		s.Filter = "Vivid"
	case TierHigh:
		s.Quality = "Ultra"
		l.setFPS(&s, pick(o.PrioritizeFPS, "High", "Normal"))
		highRes = !o.PrioritizeFPS
		s.Filter = "Bright"
	case TierMedium:
		s.Quality = "Standard"
	default:
		s.Quality = "Smooth"
	}

	if o.Competitive {
		s.Quality, s.Filter = "Smooth", "Classic"
		l.setFPS(&s, pick(highEnd(tier), "High", "Normal"))
		shadow, highRes = false, false
	}
	if o.BatteryMode || o.Battery.critical() {
		l.stepQuality(&s, -1)
		l.setFPS(&s, "Normal")
		shadow, highRes = false, false
	}
	switch o.PlayStyle {
	case "aggressive":
		l.setFPS(&s, pick(highEnd(tier), "High", "Normal"))
		shadow = false
	case "sniper":
		l.stepQuality(&s, 1)
		s.Filter = "Vivid"
	}
	if s.Quality == "Max" && !o.MaxEdition {
		s.Quality = "Ultra"
	}
	if p.Screen.PhysicalPixels > uhdPixels {
		highRes = false
	}
	dense := p.Screen.PixelRatio >= 3
	if dense {
		l.stepQuality(&s, -1)
	}
	s.Effects = map[string]bool{"shadow": shadow, "highRes": highRes}

	var rec []string
	if s.FrameRateValue == 60 {
		rec = append(rec, "High FPS enabled for smooth gameplay.")
	}
	if s.Quality == "Smooth" {
		rec = append(rec, "Smooth graphics give the best visibility and performance.")
	}
	if s.Quality == "Max" {
		rec = append(rec, "Max graphics need the MAX edition.")
	}
	if shadow {
		rec = append(rec, "Shadows are on and may cost frame rate.")
	}
	if highRes {
		rec = append(rec, "High resolution is on: sharper visuals, more battery use.")
	}
	if dense {
		rec = append(rec, "High pixel density detected: graphics lowered one step.")
	}
	if o.Battery.low() {
		rec = append(rec, "Battery is low: consider battery mode.")
	}
	if !o.MaxEdition && tier == TierUltra {
		rec = append(rec, "The MAX edition unlocks higher graphics on this device.")
	}
	s.Recommendations = rec
	return s
}

func effects(dof, bloom, shadows, ragdoll bool) map[string]bool {
	return map[string]bool{"depthOfField": dof, "bloom": bloom, "realTimeShadows": shadows, "ragdoll": ragdoll}
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// Describe is a one-line summary for logs and share text.
func (s Settings) Describe() string {
	return fmt.Sprintf("%s @ %s (%d fps)", s.Quality, s.FrameRate, s.FrameRateValue)
}
