package redemption

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/catalog"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/ledger"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/mason"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/logger"
)

const refundMemo = "refund: rejected"

// RewardReader looks up catalog items
type RewardReader interface {
	GetItem(ctx context.Context, id uuid.UUID) (*catalog.Item, error)
}

// BalanceReader reads materialized point balances
type BalanceReader interface {
	GetBalance(ctx context.Context, masonID uuid.UUID) (int64, error)
}

// Service runs redemption intake and the status workflow
type Service struct {
	repo     Repository
	rewards  RewardReader
	masons   mason.Repository
	balances BalanceReader
	events   Publisher
}

// NewService creates redemption service. events may be nil.
func NewService(repo Repository, rewards RewardReader, masons mason.Repository, balances BalanceReader, events Publisher) *Service {
	return &Service{
		repo:     repo,
		rewards:  rewards,
		masons:   masons,
		balances: balances,
		events:   events,
	}
}

// CreateRequest debits the mason's points and records a PENDING request in
// one transaction. Stock is not touched until approval.
func (s *Service) CreateRequest(ctx context.Context, p CreateParams) (*Request, error) {
	if p.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	reward, err := s.rewards.GetItem(ctx, p.RewardID)
	if err != nil {
		return nil, err
	}
	if !reward.IsActive {
		return nil, ErrInactiveReward
	}

	m, err := s.masons.GetByID(ctx, p.MasonID)
	if err != nil {
		return nil, err
	}

	if reward.PointCost > math.MaxInt64/int64(p.Quantity) {
		return nil, ErrCostOverflow
	}
	cost := reward.PointCost * int64(p.Quantity)

	req := &Request{
		// Reserved up front so the ledger debit can point at it.
		ID:              uuid.New(),
		MasonID:         p.MasonID,
		RewardID:        p.RewardID,
		Quantity:        p.Quantity,
		Status:          StatusPending,
		PointsDebited:   cost,
		DeliveryName:    orDefault(p.DeliveryName, &m.Name),
		DeliveryPhone:   orDefault(p.DeliveryPhone, &m.Phone),
		DeliveryAddress: orDefault(p.DeliveryAddress, m.Address),
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.LockBalance(ctx, p.MasonID)
		if err != nil {
			return err
		}
		if balance < cost {
			return &ledger.InsufficientBalanceError{Balance: balance, Required: cost}
		}

		if err := tx.Insert(ctx, req); err != nil {
			return err
		}

		memo := fmt.Sprintf("redemption: %s x%d", reward.Name, p.Quantity)
		if err := tx.AppendLedger(ctx, &ledger.Entry{
			MasonID:    p.MasonID,
			SourceType: ledger.SourceRedemption,
			SourceID:   &req.ID,
			Points:     -cost,
			Memo:       &memo,
		}); err != nil {
			return err
		}

		return tx.InsertStatusChange(ctx, &StatusChange{
			RequestID: req.ID,
			To:        StatusPending,
			ActorID:   actorPtr(p.ActorID),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("redemption_id", req.ID.String()).
		Str("mason_id", req.MasonID.String()).
		Str("reward_id", req.RewardID.String()).
		Int("quantity", req.Quantity).
		Int64("points", cost).
		Msg("Redemption requested")

	s.publish(ctx, newEvent(EventCreated, req, "", p.ActorID))
	return req, nil
}

// Transition moves a request to p.Status, applying the stock and refund
// side effects of the edge. Repeating the current status changes nothing.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, p TransitionParams) (*Request, error) {
	to, ok := ParseStatus(string(p.Status))
	if !ok {
		return nil, ErrInvalidStatus
	}
	notes := trimmed(p.FulfillmentNotes)

	var (
		result *Request
		plan   Transition
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		req, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		plan, err = Plan(req.Status, to)
		if err != nil {
			return err
		}
		if plan.Noop {
			result = req
			return nil
		}

		if plan.DecrementStock {
			if _, err := tx.DecrementStock(ctx, req.RewardID, req.Quantity); err != nil {
				return err
			}
		}
		if plan.IncrementStock {
			if _, err := tx.IncrementStock(ctx, req.RewardID, req.Quantity); err != nil {
				return err
			}
		}
		if plan.Refund {
			memo := refundMemo
			if err := tx.AppendLedger(ctx, &ledger.Entry{
				MasonID:    req.MasonID,
				SourceType: ledger.SourceRedemption,
				SourceID:   &req.ID,
				Points:     req.PointsDebited,
				Memo:       &memo,
			}); err != nil {
				return err
			}
		}

		updated, err := tx.UpdateStatus(ctx, id, to, notes)
		if err != nil {
			return err
		}
		result = updated

		return tx.InsertStatusChange(ctx, &StatusChange{
			RequestID: id,
			From:      plan.From,
			To:        to,
			ActorID:   actorPtr(p.ActorID),
			Note:      notes,
		})
	})
	if err != nil {
		return nil, err
	}

	if plan.Noop {
		logger.FromContext(ctx).Debug().
			Str("redemption_id", id.String()).
			Str("status", string(to)).
			Msg("Redemption already in requested status")
		return result, nil
	}

	event := logger.FromContext(ctx).Info().
		Str("redemption_id", id.String()).
		Str("from", string(plan.From)).
		Str("to", string(to))
	if plan.Refund {
		event = event.Int64("refunded_points", result.PointsDebited)
	}
	event.Msg("Redemption status changed")

	s.publish(ctx, newEvent(EventStatusChanged, result, plan.From, p.ActorID))
	return result, nil
}

// GetRequest returns a request by id
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

// ListRequests returns requests matching f, newest first
func (s *Service) ListRequests(ctx context.Context, f ListFilter) ([]Request, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

// History returns the status trail of a request, oldest first
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]StatusChange, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

// MasonSummary combines the mason's balance with their redemption totals
func (s *Service) MasonSummary(ctx context.Context, masonID uuid.UUID) (*MasonSummary, error) {
	if _, err := s.masons.GetByID(ctx, masonID); err != nil {
		return nil, err
	}

	balance, err := s.balances.GetBalance(ctx, masonID)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Totals(ctx, masonID)
	if err != nil {
		return nil, err
	}

	sum := &MasonSummary{
		MasonID: masonID,
		Balance: balance,
		Counts:  make(map[Status]int, len(Statuses)),
	}
	for _, st := range Statuses {
		sum.Counts[st] = 0
	}
	for _, t := range totals {
		sum.Counts[t.Status] += t.Count
		switch t.Status {
		case StatusPending, StatusApproved, StatusShipped:
			sum.InFlightPoints += t.Points
		case StatusDelivered:
			sum.RedeemedPoints += t.Points
		case StatusRejected:
			sum.RefundedPoints += t.Points
		}
	}
	return sum, nil
}

func (s *Service) publish(ctx context.Context, e Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, EventsChannel, e); err != nil {
		logger.LogError(ctx, err, "Failed to publish redemption event",
			"type", e.Type, "redemption_id", e.RequestID.String())
	}
}

func orDefault(v, def *string) *string {
	if t := trimmed(v); t != nil {
		return t
	}
	return def
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func actorPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
