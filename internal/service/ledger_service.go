// FILE: internal/service/ledger_service.go
package service

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/pkg/apperror"
	"ai-adgen-be/internal/pkg/logger"
	"ai-adgen-be/internal/repository/specification"
	"ai-adgen-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// TransitionDetail carries the extra fields some status transitions require.
type TransitionDetail struct {
	RefundRef  *string
	Amount     float64
	Reason     string
	DisputeRef *string
}

type ILedgerService interface {
	// Record writes a new ledger entry. When the external reference already
	// exists and the draft describes the same payment event, the stored entry
	// is returned unchanged (webhook replays); a conflicting reference fails.
	Record(ctx context.Context, txn *entity.Transaction) (*entity.Transaction, error)

	// TransitionStatus moves an entry through the status machine, enforcing
	// the refund cap on refund transitions.
	TransitionStatus(ctx context.Context, id uuid.UUID, target entity.TransactionStatus, detail *TransitionDetail) (*entity.Transaction, error)

	// TransitionStatusWith is TransitionStatus plus a hook that runs inside
	// the same unit of work, for writes that must settle together with the
	// transition (a credit grant riding a completed purchase).
	TransitionStatusWith(ctx context.Context, id uuid.UUID, target entity.TransactionStatus, detail *TransitionDetail, apply func(uow unitofwork.UnitOfWork) error) (*entity.Transaction, error)

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	FindByExternalRef(ctx context.Context, ref string) (*entity.Transaction, error)

	History(ctx context.Context, userId uuid.UUID, txnType, status string, limit, offset int) ([]*entity.Transaction, error)

	// SumByUserAndType totals completed entries inside [from, to).
	SumByUserAndType(ctx context.Context, userId uuid.UUID, txnType entity.TransactionType, from, to time.Time) (float64, error)

	// SumAffiliateSales totals the underlying sale amounts of an affiliate's
	// completed commission entries; feeds the rate tiers.
	SumAffiliateSales(ctx context.Context, affiliateId uuid.UUID) (float64, error)

	PendingOlderThan(ctx context.Context, cutoff time.Time) ([]*entity.Transaction, error)
}

type ledgerService struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
	now        func() time.Time
}

func NewLedgerService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) ILedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		log:        log,
		now:        time.Now,
	}
}

var validTransactionTypes = map[entity.TransactionType]bool{
	entity.TransactionTypeSubscription:       true,
	entity.TransactionTypeCreditPurchase:     true,
	entity.TransactionTypeRefund:             true,
	entity.TransactionTypeCommission:         true,
	entity.TransactionTypeChargebackReversal: true,
}

const refRandomChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// deriveReference builds an order reference when the caller has none yet:
// type initial, millisecond timestamp in base36, five random characters.
func deriveReference(txnType entity.TransactionType, now time.Time) string {
	var sb strings.Builder
	sb.WriteByte(string(txnType)[0])
	sb.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	for i := 0; i < 5; i++ {
		sb.WriteByte(refRandomChars[rand.Intn(len(refRandomChars))])
	}
	return strings.ToUpper(sb.String())
}

func (s *ledgerService) Record(ctx context.Context, txn *entity.Transaction) (*entity.Transaction, error) {
	if !validTransactionTypes[txn.Type] {
		return nil, apperror.Validationf("unknown transaction type %q", txn.Type)
	}
	if txn.Amount < 0 {
		return nil, apperror.Validation("transaction amount must not be negative")
	}
	if txn.Status == "" {
		txn.Status = entity.TransactionStatusPending
	}
	if txn.Currency == "" {
		txn.Currency = "USD"
	}
	if txn.ExternalRef == nil {
		ref := deriveReference(txn.Type, s.now())
		txn.ExternalRef = &ref
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	existing, err := uow.LedgerRepository().FindOne(ctx, specification.ByExternalRef{Ref: *txn.ExternalRef})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.SameShape(txn) {
			s.log.Info("ledger", "replayed reference resolved to existing entry", map[string]interface{}{
				"external_ref":   *txn.ExternalRef,
				"transaction_id": existing.Id,
			})
			return existing, nil
		}
		return nil, apperror.DuplicateReference(*txn.ExternalRef)
	}

	if txn.Id == uuid.Nil {
		txn.Id = uuid.New()
	}
	if err := uow.LedgerRepository().Create(ctx, txn); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("ledger", "transaction recorded", map[string]interface{}{
		"transaction_id": txn.Id,
		"type":           txn.Type,
		"amount":         txn.Amount,
		"status":         txn.Status,
	})
	return txn, nil
}

func (s *ledgerService) TransitionStatus(ctx context.Context, id uuid.UUID, target entity.TransactionStatus, detail *TransitionDetail) (*entity.Transaction, error) {
	return s.TransitionStatusWith(ctx, id, target, detail, nil)
}

func (s *ledgerService) TransitionStatusWith(ctx context.Context, id uuid.UUID, target entity.TransactionStatus, detail *TransitionDetail, apply func(uow unitofwork.UnitOfWork) error) (*entity.Transaction, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	txn, err := uow.LedgerRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, apperror.NotFound("transaction", id.String())
	}

	if !txn.Status.CanTransitionTo(target) {
		return nil, apperror.InvalidTransition("transaction", id.String(), string(txn.Status), string(target))
	}

	switch target {
	case entity.TransactionStatusRefunded:
		amount := txn.AvailableToRefund()
		if detail != nil && detail.Amount > 0 {
			amount = detail.Amount
		}
		if amount > txn.AvailableToRefund() {
			return nil, apperror.Validationf("refund amount %.2f exceeds refundable %.2f", amount, txn.AvailableToRefund())
		}
		rd := entity.RefundDetails{
			Amount:     txn.RefundedAmount() + amount,
			RefundedAt: s.now(),
		}
		if detail != nil {
			rd.RefundRef = detail.RefundRef
			rd.Reason = detail.Reason
		}
		txn.RefundDetails = &rd
	case entity.TransactionStatusDisputed:
		dd := entity.DisputeDetails{}
		if detail != nil {
			dd.DisputeRef = detail.DisputeRef
			dd.Reason = detail.Reason
		}
		txn.DisputeDetails = &dd
	case entity.TransactionStatusCompleted:
		if txn.Status == entity.TransactionStatusDisputed && txn.DisputeDetails != nil {
			resolvedAt := s.now()
			txn.DisputeDetails.ResolvedAt = &resolvedAt
		}
	}

	if apply != nil {
		if err := apply(uow); err != nil {
			return nil, err
		}
	}

	from := txn.Status
	txn.Status = target
	if err := uow.LedgerRepository().Update(ctx, txn); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("ledger", "transaction status changed", map[string]interface{}{
		"transaction_id": txn.Id,
		"from":           from,
		"to":             target,
	})
	return txn, nil
}

func (s *ledgerService) FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.LedgerRepository().FindOne(ctx, specification.ByID{ID: id})
}

func (s *ledgerService) FindByExternalRef(ctx context.Context, ref string) (*entity.Transaction, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.LedgerRepository().FindOne(ctx, specification.ByExternalRef{Ref: ref})
}

func (s *ledgerService) History(ctx context.Context, userId uuid.UUID, txnType, status string, limit, offset int) ([]*entity.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	}
	if txnType != "" {
		specs = append(specs, specification.Filter("type", txnType))
	}
	if status != "" {
		specs = append(specs, specification.Filter("status", status))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.LedgerRepository().FindAll(ctx, specs...)
}

func (s *ledgerService) SumByUserAndType(ctx context.Context, userId uuid.UUID, txnType entity.TransactionType, from, to time.Time) (float64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.LedgerRepository().SumAmount(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.Filter("type", string(txnType)),
		specification.Filter("status", string(entity.TransactionStatusCompleted)),
		specification.CreatedBetween{From: from, To: to},
	)
}

func (s *ledgerService) SumAffiliateSales(ctx context.Context, affiliateId uuid.UUID) (float64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.LedgerRepository().SumSaleAmount(ctx, affiliateId)
}

func (s *ledgerService) PendingOlderThan(ctx context.Context, cutoff time.Time) ([]*entity.Transaction, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.LedgerRepository().FindAll(ctx,
		specification.Filter("status", string(entity.TransactionStatusPending)),
		specification.CreatedBefore{Cutoff: cutoff},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
}
