package memstore

import "errors"

// Integrity failures mirroring the foreign key and primary key constraints of
// the Postgres schema.
var (
	errMissingOwner  = errors.New("memstore: lead owner does not exist")
	errMissingLead   = errors.New("memstore: history references missing lead")
	errDuplicateLead = errors.New("memstore: duplicate lead id")
)
