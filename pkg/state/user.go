package state

import (
	"context"
)

const (
	CurrentUserId         = "CurrentUserId"
	CurrentOrganizationId = "CurrentOrganizationId"
	CurrentUserIP         = "CurrentIP"
)

// CurrentUser returns the current user's ID as uint from the context.
func CurrentUser(ctx context.Context) uint {
	return uintValue(ctx, CurrentUserId)
}

// CurrentOrganization returns the organization of the current user.
func CurrentOrganization(ctx context.Context) uint {
	return uintValue(ctx, CurrentOrganizationId)
}

func uintValue(ctx context.Context, key string) uint {
	value := ctx.Value(key)
	if value == nil {
		return 0
	}

	id, ok := value.(uint)
	if !ok {
		return 0
	}

	return id
}

func SetCurrentUser(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, CurrentUserId, userID)
}

func SetCurrentOrganization(ctx context.Context, orgID uint) context.Context {
	return context.WithValue(ctx, CurrentOrganizationId, orgID)
}
