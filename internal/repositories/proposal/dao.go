package proposal

import (
	"time"

	"github.com/arena-hq/arena-engine/internal/database"
	"github.com/arena-hq/arena-engine/pkg/models"
)

// proposalRow is the database shape of a proposal. The audit trail is stored
// as a jsonb column; everything else maps to plain columns.
type proposalRow struct {
	ID             string                               `db:"id"`
	RequestID      string                               `db:"request_id"`
	VendorID       string                               `db:"vendor_id"`
	Status         string                               `db:"status"`
	Version        int                                  `db:"version"`
	TerminalReason *string                              `db:"terminal_reason"`
	AuditTrail     database.JSONB[[]models.AuditEntry]  `db:"audit_trail"`
	CreatedAt      time.Time                            `db:"created_at"`
	UpdatedAt      time.Time                            `db:"updated_at"`
}

const proposalColumns = "id, request_id, vendor_id, status, version, terminal_reason, audit_trail, created_at, updated_at"

func (r proposalRow) toModel() *models.Proposal {
	return &models.Proposal{
		ID:             r.ID,
		RequestID:      r.RequestID,
		VendorID:       r.VendorID,
		Status:         models.ProposalStatus(r.Status),
		Version:        r.Version,
		TerminalReason: r.TerminalReason,
		AuditTrail:     r.AuditTrail.GetValue(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func fromModel(p *models.Proposal) proposalRow {
	return proposalRow{
		ID:             p.ID,
		RequestID:      p.RequestID,
		VendorID:       p.VendorID,
		Status:         string(p.Status),
		Version:        p.Version,
		TerminalReason: p.TerminalReason,
		AuditTrail:     database.JSONB[[]models.AuditEntry]{Data: p.AuditTrail},
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
