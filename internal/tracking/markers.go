package tracking

import (
	"context"
	"strings"

	"go-lab-sample-tracker/internal/lab"
)

// MarkerInput places an annotation on a shift's site plan.
type MarkerInput struct {
	SampleID string         `json:"sample_id"`
	Kind     lab.MarkerKind `json:"kind"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Label    string         `json:"label"`
	Color    string         `json:"color"`
}

func (s *Service) ListMarkers(ctx context.Context, shiftID string) ([]lab.Marker, error) {
	if _, err := s.store.GetShift(ctx, shiftID); err != nil {
		return nil, err
	}
	return s.store.ListMarkers(ctx, shiftID)
}

func (s *Service) CreateMarker(ctx context.Context, shiftID string, in MarkerInput) (*lab.Marker, error) {
	if _, err := s.editableShift(ctx, shiftID); err != nil {
		return nil, err
	}
	if in.X < 0 || in.X > 1 || in.Y < 0 || in.Y > 1 {
		return nil, lab.Invalid("marker position must be within the plan (0..1)")
	}
	m := lab.Marker{
		ShiftID:  shiftID,
		SampleID: strings.TrimSpace(in.SampleID),
		Kind:     in.Kind,
		X:        in.X,
		Y:        in.Y,
		Label:    strings.TrimSpace(in.Label),
		Color:    strings.TrimSpace(in.Color),
	}
	switch m.Kind {
	case "":
		m.Kind = lab.MarkerNote
		if m.SampleID != "" {
			m.Kind = lab.MarkerSample
		}
	case lab.MarkerSample, lab.MarkerReference, lab.MarkerNote:
	default:
		return nil, lab.Invalid("unknown marker kind %q", in.Kind)
	}
	if m.SampleID != "" {
		sm, err := s.store.GetSample(ctx, m.SampleID)
		if err != nil {
			return nil, err
		}
		if sm.ShiftID != shiftID {
			return nil, lab.Invalid("sample %s belongs to another shift", sm.FullSampleID)
		}
		if m.Label == "" {
			m.Label = sm.FullSampleID
		}
	}
	if err := s.store.CreateMarker(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) DeleteMarker(ctx context.Context, id string) error {
	m, err := s.store.GetMarker(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.editableShift(ctx, m.ShiftID); err != nil {
		return err
	}
	return s.store.DeleteMarker(ctx, id)
}
