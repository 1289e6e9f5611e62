package usecase

import (
	"time"

	"github.com/sevenpast/docintake/internal/core/domain"
)

// ClassifyObserver receives classification lifecycle events. The default
// is a no-op; binaries bridge it to their metrics registry.
type ClassifyObserver interface {
	JobStarted()
	JobFinished(duration time.Duration, err error)
	QueueLag(lag time.Duration)
	AICall(outcome string)
	ReviewFlagged()
}

// BatchObserver receives batch pipeline events.
type BatchObserver interface {
	BatchSubmitted()
	FileFinished(status domain.BatchFileStatus)
	StageFailed(stage string)
	BatchFinished(duration time.Duration)
}

type noopClassifyObserver struct{}

func (noopClassifyObserver) JobStarted()                      {}
func (noopClassifyObserver) JobFinished(time.Duration, error) {}
func (noopClassifyObserver) QueueLag(time.Duration)           {}
func (noopClassifyObserver) AICall(string)                    {}
func (noopClassifyObserver) ReviewFlagged()                   {}

type noopBatchObserver struct{}

func (noopBatchObserver) BatchSubmitted()                     {}
func (noopBatchObserver) FileFinished(domain.BatchFileStatus) {}
func (noopBatchObserver) StageFailed(string)                  {}
func (noopBatchObserver) BatchFinished(time.Duration)         {}
