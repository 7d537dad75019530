// Package service holds the photo dataset and the sources it is loaded from.
package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/joeblew999/photomap/internal/metrics"
	"github.com/joeblew999/photomap/internal/photo"
)

// ErrNotLoaded is returned while no dataset is available yet.
var ErrNotLoaded = errors.New("photo dataset not loaded")

// PhotoService owns the current photo dataset. Each load or replacement
// creates a new *photo.Dataset with a higher version; datasets are never
// mutated after publication.
type PhotoService struct {
	source  Source
	bus     *EventBus
	log     *slog.Logger
	metrics *metrics.Collector

	mu      sync.RWMutex
	dataset *photo.Dataset
	version uint64
}

// NewPhotoService creates a service over source. The dataset is nil until
// Load or Replace succeeds.
func NewPhotoService(source Source, bus *EventBus, log *slog.Logger, m *metrics.Collector) *PhotoService {
	if bus == nil {
		bus = NewEventBus()
	}
	if log == nil {
		log = slog.Default()
	}
	return &PhotoService{source: source, bus: bus, log: log, metrics: m}
}

// Bus returns the bus dataset changes are published on.
func (s *PhotoService) Bus() *EventBus { return s.bus }

// Dataset returns the current dataset, or nil while not yet available.
func (s *PhotoService) Dataset() *photo.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Load reads the source and publishes the result. Records without
// coordinates are dropped here, before they reach the map. An unchanged
// dataset is not republished.
func (s *PhotoService) Load(ctx context.Context) error {
	if s.source == nil {
		return errors.New("no photo source configured")
	}
	raws, err := s.source.Load(ctx)
	if err != nil {
		return err
	}
	records, dropped := photo.FromRawAll(raws)
	for _, d := range dropped {
		s.log.Warn("dropping photo without coordinates", "url", d.URL, "source", s.source.Name())
	}
	if cur := s.Dataset(); cur != nil && slices.Equal(cur.Records, records) {
		s.log.Debug("photos unchanged", "source", s.source.Name(), "version", cur.Version)
		return nil
	}
	ds := s.publish(records, "loaded")
	s.metrics.Dataset(len(records), len(dropped))
	s.log.Info("photos loaded", "source", s.source.Name(), "records", len(records),
		"dropped", len(dropped), "version", ds.Version)
	return nil
}

// LoadAsync runs Load in the background, logging failures. Viewers see
// "not yet available" until it completes.
func (s *PhotoService) LoadAsync(ctx context.Context) {
	go func() {
		if err := s.Load(ctx); err != nil {
			s.log.Error("photo load failed", "err", err)
		}
	}()
}

// Replace swaps in a new dataset, persisting it first when the source can.
func (s *PhotoService) Replace(ctx context.Context, records []photo.Record) (*photo.Dataset, error) {
	if saver, ok := s.source.(Saver); ok {
		if err := saver.Save(ctx, records); err != nil {
			return nil, err
		}
	}
	ds := s.publish(records, "replaced")
	s.metrics.Dataset(len(records), 0)
	return ds, nil
}

func (s *PhotoService) publish(records []photo.Record, action string) *photo.Dataset {
	if records == nil {
		records = []photo.Record{}
	}
	s.mu.Lock()
	s.version++
	ds := &photo.Dataset{Version: s.version, Records: records}
	s.dataset = ds
	s.mu.Unlock()

	s.bus.Publish(Event{Resource: ResourcePhotos, Action: action, Version: ds.Version})
	return ds
}

// Page returns records[offset:offset+limit] and the total count.
func (s *PhotoService) Page(offset, limit int) ([]photo.Record, int, error) {
	ds := s.Dataset()
	if ds == nil {
		return nil, 0, ErrNotLoaded
	}
	total := len(ds.Records)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return ds.Records[offset:end], total, nil
}
