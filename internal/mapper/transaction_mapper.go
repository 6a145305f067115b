// FILE: internal/mapper/transaction_mapper.go
package mapper

import (
	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/model"

	"gorm.io/datatypes"
)

type TransactionMapper struct{}

func NewTransactionMapper() *TransactionMapper {
	return &TransactionMapper{}
}

func (m *TransactionMapper) ToEntity(t *model.Transaction) *entity.Transaction {
	if t == nil {
		return nil
	}
	ent := &entity.Transaction{
		Id:            t.Id,
		UserId:        t.UserId,
		AffiliateId:   t.AffiliateId,
		Type:          entity.TransactionType(t.Type),
		Amount:        t.Amount,
		Currency:      t.Currency,
		Status:        entity.TransactionStatus(t.Status),
		PaymentMethod: entity.PaymentMethod(t.PaymentMethod),
		ExternalRef:   t.ExternalRef,
		Description:   t.Description,
		Metadata:      map[string]interface{}(t.Metadata),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.RefundedAt != nil {
		reason := ""
		if t.RefundReason != nil {
			reason = *t.RefundReason
		}
		ent.RefundDetails = &entity.RefundDetails{
			RefundRef:  t.RefundRef,
			Amount:     t.RefundAmount,
			Reason:     reason,
			RefundedAt: *t.RefundedAt,
		}
	}
	if t.DisputeRef != nil || t.DisputeReason != nil {
		reason := ""
		if t.DisputeReason != nil {
			reason = *t.DisputeReason
		}
		ent.DisputeDetails = &entity.DisputeDetails{
			DisputeRef: t.DisputeRef,
			Reason:     reason,
			ResolvedAt: t.ResolvedAt,
		}
	}
	return ent
}

func (m *TransactionMapper) ToModel(t *entity.Transaction) *model.Transaction {
	if t == nil {
		return nil
	}
	mdl := &model.Transaction{
		Id:            t.Id,
		UserId:        t.UserId,
		AffiliateId:   t.AffiliateId,
		Type:          string(t.Type),
		Amount:        t.Amount,
		Currency:      t.Currency,
		Status:        string(t.Status),
		PaymentMethod: string(t.PaymentMethod),
		ExternalRef:   t.ExternalRef,
		Description:   t.Description,
		Metadata:      datatypes.JSONMap(t.Metadata),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.RefundDetails != nil {
		refundedAt := t.RefundDetails.RefundedAt
		reason := t.RefundDetails.Reason
		mdl.RefundRef = t.RefundDetails.RefundRef
		mdl.RefundAmount = t.RefundDetails.Amount
		mdl.RefundReason = &reason
		mdl.RefundedAt = &refundedAt
	}
	if t.DisputeDetails != nil {
		reason := t.DisputeDetails.Reason
		mdl.DisputeRef = t.DisputeDetails.DisputeRef
		mdl.DisputeReason = &reason
		mdl.ResolvedAt = t.DisputeDetails.ResolvedAt
	}
	return mdl
}
