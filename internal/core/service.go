package core

import (
	"context"
	"dentalatlas/internal/blob"
	"dentalatlas/pkg/domain"
	"errors"
	"io"
	"log/slog"
	"time"
)

// Service exposes the intake operations consumed by the form surface: an
// idempotent identifier preview and the submit path that uploads media and
// appends the row.
type Service struct {
	store   RecordStore
	media   blob.Store
	logger  *slog.Logger
	metrics MetricsRecorder
	tracer  Tracer
	nowFn   func() time.Time
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger sets the structured logger used by the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder observed around every operation.
func WithMetrics(rec MetricsRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer sets the tracer wrapped around every operation.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the time source, used by tests for stable timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// NewService constructs a service over the supplied record and media stores.
func NewService(store RecordStore, media blob.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		media:   media,
		logger:  slog.Default(),
		metrics: NopMetricsRecorder{},
		tracer:  nopTracer{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying record store.
func (s *Service) Store() RecordStore { return s.store }

// Media returns the underlying blob store.
func (s *Service) Media() blob.Store { return s.media }

func (s *Service) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	start := s.nowFn()
	err := fn(ctx)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	span.End(err)
	return err
}

// Preview is the result of an identifier preview: the identity the generator
// saw and the identifier it produced.
type Preview struct {
	Identity domain.SpecimenIdentity `json:"identity"`
	USID     string                  `json:"usid"`
}

// PreviewIdentifier recomputes the row count and generates the identifier the
// submission would currently receive. It is idempotent and advisory: the
// count is re-read at actual submission time, so a preview can legitimately
// differ from the persisted identifier if the store changed in between.
func (s *Service) PreviewIdentifier(ctx context.Context, fdiCode string, dentition Dentition, arch Arch, side Side) (Preview, error) {
	var preview Preview
	err := s.observe(ctx, "preview_identifier", func(ctx context.Context) error {
		if fdiCode == "" {
			return ValidationError{Field: "fdi_code", Reason: "required for preview"}
		}
		identity := domain.SpecimenIdentity{
			FDICode:       fdiCode,
			Dentition:     dentition,
			Arch:          arch,
			Side:          side,
			SequenceCount: s.store.RowCount(),
		}
		preview = Preview{Identity: identity, USID: identity.USID()}
		return nil
	})
	return preview, err
}

// Submit validates the submission, sequences and generates the final
// identifier, resolves both media slots, and appends the record within a
// rules-evaluated transaction. The count is read immediately before
// generation and is not coordinated with the append: concurrent submissions
// can race to the same identifier, which surfaces as a rule warning on the
// returned Result rather than an error.
func (s *Service) Submit(ctx context.Context, sub Submission) (SpecimenRecord, Result, error) {
	var (
		record SpecimenRecord
		result Result
	)
	err := s.observe(ctx, "submit_record", func(ctx context.Context) error {
		if err := sub.Validate(); err != nil {
			return err
		}

		count := s.store.RowCount()
		usid := sub.identity(count).USID()

		record = SpecimenRecord{
			USID:           usid,
			Collector:      sub.Collector,
			Source:         sub.Source,
			PatientGender:  sub.PatientGender,
			MedicalHistory: sub.MedicalHistory,
			CollectedAt:    s.nowFn(),
			Dentition:      sub.Dentition,
			Arch:           sub.Arch,
			Side:           sub.Side,
			ToothClass:     sub.ToothClass,
			FDICode:        sub.FDICode,
			CrownHeightMM:  sub.CrownHeightMM,
			RootLengthMM:   sub.RootLengthMM,
			Image:          s.resolveMedia(ctx, usid, sub.Image, sub.ImageLink, imageSlot),
			CBCT:           s.resolveMedia(ctx, usid, sub.CBCT, sub.CBCTLink, cbctSlot),
		}

		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var appendErr error
			record, appendErr = tx.AppendRecord(record)
			return appendErr
		})
		if err != nil {
			var rve RuleViolationError
			if errors.As(err, &rve) {
				return err
			}
			return StoreUnavailableError{Err: err}
		}
		result = res
		for _, warning := range res.Warnings() {
			s.logger.WarnContext(ctx, "rule warning on submission",
				"rule", warning.Rule, "usid", usid, "message", warning.Message)
		}
		s.logger.InfoContext(ctx, "record appended", "usid", usid, "collector", sub.Collector)
		return nil
	})
	if err != nil {
		return SpecimenRecord{}, result, err
	}
	return record, result, nil
}

// FindByUSID returns the first record appended under the given identifier.
// After a sequencing collision several records can share an identifier; the
// earliest append wins the lookup.
func (s *Service) FindByUSID(usid string) (SpecimenRecord, bool) {
	return s.store.FindByUSID(usid)
}

// RowCount returns the current store row count including the header row.
func (s *Service) RowCount() int { return s.store.RowCount() }

// ListRecords returns all persisted records in append order.
func (s *Service) ListRecords() []SpecimenRecord { return s.store.ListRecords() }

// RecentRecords returns the tail of the table, newest last, at most n
// entries. A non-positive n yields none.
func (s *Service) RecentRecords(n int) []SpecimenRecord {
	if n <= 0 {
		return nil
	}
	records := s.store.ListRecords()
	if n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}

// OpenMedia streams a stored media object by key, for serving download links
// minted against the intake server itself.
func (s *Service) OpenMedia(ctx context.Context, key string) (blob.Object, io.ReadCloser, error) {
	return s.media.Open(ctx, key)
}

// MediaForRecord lists the media objects stored under a record's identifier.
func (s *Service) MediaForRecord(ctx context.Context, usid string) ([]blob.Object, error) {
	return s.media.ForRecord(ctx, usid)
}
