package report

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"go-lab-sample-tracker/internal/lab"
)

// Bundle is everything a shift-level report prints.
type Bundle struct {
	Client  *lab.Client
	Project lab.Project
	Job     lab.Job
	Shift   lab.Shift
	Samples []lab.Sample
	Markers []lab.Marker
}

// Source is the read side of the store a bundle is assembled from.
type Source interface {
	GetShift(ctx context.Context, id string) (*lab.Shift, error)
	GetJob(ctx context.Context, id string) (*lab.Job, error)
	GetProject(ctx context.Context, id string) (*lab.Project, error)
	GetClient(ctx context.Context, id string) (*lab.Client, error)
	ListSamplesByShift(ctx context.Context, shiftID string) ([]lab.Sample, error)
	ListMarkers(ctx context.Context, shiftID string) ([]lab.Marker, error)
}

// LoadBundle reads a shift's report data. The shift→job→project→client chain,
// the samples and the markers load concurrently; any failure fails the load.
func LoadBundle(ctx context.Context, src Source, shiftID string) (*Bundle, error) {
	var b Bundle
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sh, err := src.GetShift(gctx, shiftID)
		if err != nil {
			return fmt.Errorf("load shift %s: %w", shiftID, err)
		}
		job, err := src.GetJob(gctx, sh.JobID)
		if err != nil {
			return fmt.Errorf("load job %s: %w", sh.JobID, err)
		}
		project, err := src.GetProject(gctx, job.ProjectID)
		if err != nil {
			return fmt.Errorf("load project %s: %w", job.ProjectID, err)
		}
		b.Shift, b.Job, b.Project = *sh, *job, *project

		if project.ClientID == "" {
			return nil
		}
		client, err := src.GetClient(gctx, project.ClientID)
		if errors.Is(err, lab.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load client %s: %w", project.ClientID, err)
		}
		b.Client = client
		return nil
	})
	g.Go(func() error {
		samples, err := src.ListSamplesByShift(gctx, shiftID)
		if err != nil {
			return fmt.Errorf("load samples: %w", err)
		}
		b.Samples = samples
		return nil
	})
	g.Go(func() error {
		markers, err := src.ListMarkers(gctx, shiftID)
		if err != nil {
			return fmt.Errorf("load markers: %w", err)
		}
		b.Markers = markers
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b Bundle) clientName() string {
	if b.Client == nil {
		return "-"
	}
	return b.Client.Name
}

func (b Bundle) samplesOfType(types ...lab.SampleType) []lab.Sample {
	out := make([]lab.Sample, 0, len(b.Samples))
	for _, s := range b.Samples {
		for _, t := range types {
			if s.Type == t {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
