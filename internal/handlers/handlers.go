package handlers

import (
	"github.com/huddle-dev/huddle/internal/cascade"
	"github.com/huddle-dev/huddle/internal/store"
	"gorm.io/gorm"
)

var (
	stores   *store.Stores
	cascades *cascade.Orchestrator
)

// Init wires the handler package to a database connection and the cookie
// domain. Cascade completions invalidate the live project feeds.
func Init(gdb *gorm.DB, domain string) {
	stores = store.New(gdb)
	cascades = cascade.NewOrchestrator(stores)
	cascades.Notify = BroadcastRefresh
	Domain = domain
}
