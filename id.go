package accrual

import "github.com/xraph/accrual/id"

// ID is the primary identifier type for all accrual entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
