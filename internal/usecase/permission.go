package usecase

import domain "github.com/aq2208/order-api/internal/entity"

// CheckPermission allows the resource owner and admins.
func CheckPermission(actor domain.Actor, ownerID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.ID != "" && actor.ID == ownerID {
		return nil
	}
	return ErrForbidden
}
