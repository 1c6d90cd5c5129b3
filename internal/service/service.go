// Package service implements the social graph core: the post, comment and
// reply tree, reactions, follows, tags and account management. Every
// operation takes the acting principal explicitly.
package service

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/observability"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageBounds clamps caller-supplied paging to sane values.
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func requireActor(actor models.Principal) error {
	if actor.ID == 0 {
		return models.NewUnauthenticatedError("Authentication required")
	}
	return nil
}

// track opens a span for a mutating operation. The returned func closes it
// and records the outcome in the mutation counter.
func track(ctx context.Context, entity, op string) (context.Context, func(error)) {
	ctx, span := observability.StartServiceSpan(ctx, entity, op)
	return ctx, func(err error) {
		observability.EndSpan(span, err)
		code := ""
		if err != nil {
			code = models.ErrorCode(err)
		}
		observability.RecordMutation(entity, op, code)
	}
}
