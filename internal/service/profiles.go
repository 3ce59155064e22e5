package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MJE43/redsettings-go/internal/engine"
	"github.com/MJE43/redsettings-go/internal/games"
	"github.com/MJE43/redsettings-go/internal/store"
)

// SaveProfile validates values against the game and stores the profile.
// The stored score is recomputed; a blank name becomes "<game> <style>".
func (s *Service) SaveProfile(ctx context.Context, p store.SavedProfile) (*store.SavedProfile, error) {
	if s.db == nil {
		return nil, ErrNoStore
	}
	p.ID, p.CreatedAt = "", time.Time{}
	schema, err := s.registry.Schema(p.Game)
	if err != nil {
		s.countNotFound(err)
		return nil, err
	}
	if p.Style == "" {
		p.Style = schema.DefaultStyle
	}
	if _, err := schema.Style(p.Style); err != nil {
		s.countNotFound(err)
		return nil, err
	}
	report, err := s.Validate(p.Game, p.Values)
	if err != nil {
		return nil, err
	}
	p.Score = report.Score
	if strings.TrimSpace(p.Name) == "" {
		p.Name = schema.Name + " " + p.Style
	}

	id, err := s.db.CreateProfile(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("service: save profile: %w", err)
	}
	p.ID = id
	s.log.Info().Str("profile_id", id).Str("game", p.Game).Int("score", p.Score).Msg("profile saved")
	return &p, nil
}

// SaveGenerated stores a generated profile under name.
func (s *Service) SaveGenerated(ctx context.Context, name string, p *engine.Profile) (*store.SavedProfile, error) {
	return s.SaveProfile(ctx, store.SavedProfile{
		Name:         name,
		Game:         p.Game,
		Style:        p.Style,
		DeviceID:     p.Device.ID,
		Values:       p.Values,
		GyroMode:     string(p.GyroMode),
		RotationMode: p.RotationMode,
	})
}

// GetProfile loads a saved profile.
func (s *Service) GetProfile(ctx context.Context, id string) (*store.SavedProfile, error) {
	if s.db == nil {
		return nil, ErrNoStore
	}
	return s.db.GetProfile(ctx, id)
}

// ListProfiles pages through saved profiles, newest first.
func (s *Service) ListProfiles(ctx context.Context, q store.ProfilesQuery) (*store.ProfilesList, error) {
	if s.db == nil {
		return nil, ErrNoStore
	}
	return s.db.ListProfiles(ctx, q)
}

// DeleteProfile removes a saved profile.
func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	if s.db == nil {
		return ErrNoStore
	}
	if err := s.db.DeleteProfile(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("profile_id", id).Msg("profile deleted")
	return nil
}

// Share renders a saved profile as share text.
func (s *Service) Share(ctx context.Context, id string) (string, error) {
	p, err := s.GetProfile(ctx, id)
	if err != nil {
		return "", err
	}
	schema, err := s.registry.Schema(p.Game)
	if err != nil {
		return "", err
	}
	return ShareText(p, schema), nil
}

// ShareText lists every schema field present in p by label, in schema order.
// Gyro fields at 0 read "Off".
func ShareText(p *store.SavedProfile, schema *games.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Sensitivity Settings\n", schema.Name)
	if st, err := schema.Style(p.Style); err == nil {
		fmt.Fprintf(&b, "Style: %s\n", st.Label)
	}
	b.WriteString("\n")
	for _, f := range schema.Fields {
		v, ok := p.Values[f.Name]
		if !ok {
			continue
		}
		if f.Kind == games.KindGyro && v == 0 {
			fmt.Fprintf(&b, "%s: Off\n", f.Label)
			continue
		}
		fmt.Fprintf(&b, "%s: %d\n", f.Label, v)
	}
	if p.RotationMode != "" {
		fmt.Fprintf(&b, "Rotation Mode: %s\n", p.RotationMode)
	}
	fmt.Fprintf(&b, "\nScore: %d/100\nGenerated by RED SETTINGS v%s\n", p.Score, engine.Version)
	return b.String()
}
