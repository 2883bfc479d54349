// Package model holds the persisted entities of the reservation engine.
package model

// All lists every entity for schema migration.
func All() []any {
	return []any{
		&Item{},
		&Storage{},
		&User{},
		&Vehicle{},
		&Keeping{},
		&Borrowing{},
		&Transportation{},
		&PushSubscription{},
	}
}
