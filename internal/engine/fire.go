package engine

import (
	"fmt"

	"github.com/MJE43/redsettings-go/internal/device"
	"github.com/MJE43/redsettings-go/internal/games"
)

// DefaultFireSize is used when no size is requested.
const DefaultFireSize = "medium"

// FireBand returns the fire-button band for a size after device adjustments,
// clamped into the field's range.
func FireBand(s *games.Schema, size string, p device.Profile) (games.Range, error) {
	fc := s.FireControl
	band, ok := fc.Bands[size]
	if !ok {
		return games.Range{}, fmt.Errorf("engine: fire button size %q: %w", size, ErrInvalidOption)
	}
	offset := fc.ClassOffsets[string(p.Class)]
	switch w := p.Screen.Width; {
	case fc.NarrowWidth > 0 && w < fc.NarrowWidth:
		offset += fc.NarrowOffset
	case fc.WideWidth > 0 && w > fc.WideWidth:
		offset += fc.WideOffset
	}

	field, _ := s.Field(fc.Field)
	lo := field.Range.Clamp(band.Min + offset)
	hi := field.Range.Clamp(band.Max + offset)
	return games.Range{Min: lo, Max: hi}, nil
}

func drawInRange(r Rand, band games.Range) int {
	if band.Max <= band.Min {
		return band.Min
	}
	return band.Min + r.IntN(band.Max-band.Min+1)
}
