// handlers/core.go - shared handler state
package handlers

import (
	"clickmill/database"
	"clickmill/ledger"
	"clickmill/progression"
)

var (
	store  *ledger.Store
	engine *progression.Engine
	powers *progression.Powers
)

// InitCore wires the handler package to the ledger-backed core. Call after
// database.InitDB.
func InitCore() {
	store = ledger.NewStore(database.GetDB())
	engine = progression.NewEngine(store)
	powers = progression.NewPowers(store)
}

// Store exposes the ledger for wiring other components at startup.
func Store() *ledger.Store {
	return store
}
