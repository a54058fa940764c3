package application

import (
	"context"

	"github.com/cristianortiz/lotsEngine/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const participantsConcurrency = 8

// ParticipantsLoader fills Lot.Participants. A failing lot is logged and
// gets an empty list; it never fails the batch.
type ParticipantsLoader struct {
	bidRepo domain.BidRepository
}

func NewParticipantsLoader(bidRepo domain.BidRepository) *ParticipantsLoader {
	return &ParticipantsLoader{bidRepo: bidRepo}
}

func (p *ParticipantsLoader) Attach(ctx context.Context, lots []*domain.Lot) {
	var g errgroup.Group
	g.SetLimit(participantsConcurrency)

	for _, lot := range lots {
		g.Go(func() error {
			rows, err := p.bidRepo.ParticipantRows(ctx, lot.ID)
			if err != nil {
				log.Error("Failed to load lot participants",
					zap.String("lotID", lot.ID.String()),
					zap.Error(err),
				)
				lot.Participants = []uuid.UUID{}
				return nil
			}
			lot.Participants = domain.Participants(rows)
			return nil
		})
	}
	_ = g.Wait()
}
