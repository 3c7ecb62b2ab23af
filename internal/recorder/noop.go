package recorder

import "SignalSentinel/internal/model"

// NoopRecorder is a no-op implementation used when no storage is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignals(_ string, _, _ []model.ScoredRow) error { return nil }
func (n *NoopRecorder) RecordRun(_ *model.RunLog) error                      { return nil }
func (n *NoopRecorder) Close() error                                         { return nil }
