// FILE: internal/repository/memory/query.go
package memory

import (
	"sort"
	"time"

	"ai-adgen-be/internal/repository/specification"

	"github.com/google/uuid"
)

// query is the in-memory interpretation of a specification list. Only the
// specifications the services actually build are understood here; anything
// else is a programming error surfaced by the tests that exercise it.
type query struct {
	id            *uuid.UUID
	userId        *uuid.UUID
	externalRef   *string
	fields        map[string]interface{}
	orderField    string
	orderDesc     bool
	limit         int
	offset        int
	createdBefore *time.Time
	createdFrom   *time.Time
	createdTo     *time.Time
}

func buildQuery(specs []specification.Specification) query {
	q := query{fields: map[string]interface{}{}, limit: -1}
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			id := spec.ID
			q.id = &id
		case specification.UserOwnedBy:
			id := spec.UserID
			q.userId = &id
		case specification.ByExternalRef:
			ref := spec.Ref
			q.externalRef = &ref
		case specification.FilterBy:
			q.fields[spec.Field] = spec.Value
		case specification.OrderBy:
			q.orderField = spec.Field
			q.orderDesc = spec.Desc
		case specification.Pagination:
			q.limit = spec.Limit
			q.offset = spec.Offset
		case specification.CreatedBefore:
			cutoff := spec.Cutoff
			q.createdBefore = &cutoff
		case specification.CreatedBetween:
			from, to := spec.From, spec.To
			q.createdFrom = &from
			q.createdTo = &to
		}
	}
	return q
}

func (q query) matchesCreatedAt(createdAt time.Time) bool {
	if q.createdBefore != nil && !createdAt.Before(*q.createdBefore) {
		return false
	}
	if q.createdFrom != nil && createdAt.Before(*q.createdFrom) {
		return false
	}
	if q.createdTo != nil && !createdAt.Before(*q.createdTo) {
		return false
	}
	return true
}

// sortAndPage orders records by created_at when requested and applies the
// pagination window. less is the ascending comparison on created_at.
func sortAndPage[T any](q query, items []T, createdAt func(T) time.Time) []T {
	if q.orderField == "created_at" {
		sort.SliceStable(items, func(i, j int) bool {
			if q.orderDesc {
				return createdAt(items[i]).After(createdAt(items[j]))
			}
			return createdAt(items[i]).Before(createdAt(items[j]))
		})
	}
	if q.offset > 0 {
		if q.offset >= len(items) {
			return nil
		}
		items = items[q.offset:]
	}
	if q.limit >= 0 && q.limit < len(items) {
		items = items[:q.limit]
	}
	return items
}
