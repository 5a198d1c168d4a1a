package shopping

import "time"

// ShoppingList is the snapshot of food names taken when a plan is saved.
type ShoppingList struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	PlanID    string    `json:"plan_id"`
	Items     []string  `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}
