package norms

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/protocol"
)

// Service computes reports against a store. Peer groups are fetched fresh
// on every call.
type Service struct {
	store    assessment.Store
	protocol *protocol.Protocol
	defaults Options
	log      *zap.Logger
}

func NewService(store assessment.Store, p *protocol.Protocol, defaults Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if len(defaults.Scheme.Bands) == 0 {
		defaults.Scheme = DefaultScheme
	}
	return &Service{store: store, protocol: p, defaults: defaults, log: log}
}

func (s *Service) Defaults() Options { return s.defaults }

// ReportFor loads the target record and builds its normative report. A
// failing peer query degrades to an empty peer group.
func (s *Service) ReportFor(ctx context.Context, subjectID string, date time.Time, opts *Options) (Report, error) {
	target, err := s.store.Get(ctx, subjectID, date)
	if err != nil {
		return Report{}, err
	}
	o := s.defaults
	if opts != nil {
		o = *opts
		if len(o.Scheme.Bands) == 0 {
			o.Scheme = s.defaults.Scheme
		}
	}
	peers, err := s.store.Peers(ctx, target.Sex, target.AgeBand)
	if err != nil {
		s.log.Warn("peer query failed; reporting without peers",
			zap.String("subject_id", subjectID), zap.Error(err))
		peers = nil
	}
	rep := Compute(s.protocol, target, peers, o)
	s.log.Debug("norms computed",
		zap.String("subject_id", subjectID),
		zap.String("date", target.Date()),
		zap.Int("peer_n", rep.PeerN),
		zap.String("scheme", rep.Scheme))
	return rep, nil
}

// History returns every evaluation of the subject, oldest first.
func (s *Service) History(ctx context.Context, subjectID string) ([]assessment.Record, error) {
	recs, err := s.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", subjectID, err)
	}
	return recs, nil
}
