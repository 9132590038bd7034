package joblog

import (
	"time"

	"github.com/cyclebill/cyclebill/internal/types"
)

// RunLog records one reconciliation run for operator audit. Rows older than
// the configured retention are purged by the run itself.
type RunLog struct {
	ID         string    `db:"id" json:"id"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`

	Suspended       int `db:"suspended" json:"suspended"`
	Cancelled       int `db:"cancelled" json:"cancelled"`
	InvoicesCreated int `db:"invoices_created" json:"invoices_created"`
	UpgradesSettled int `db:"upgrades_settled" json:"upgrades_settled"`
	UpgradesPruned  int `db:"upgrades_pruned" json:"upgrades_pruned"`
	LogsPurged      int `db:"logs_purged" json:"logs_purged"`
	Errors          int `db:"errors" json:"errors"`

	types.BaseModel
}
