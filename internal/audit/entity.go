// AngelaMos | 2026
// entity.go

package audit

import "time"

// Actions recorded in the audit trail.
const (
	ActionLogin         = "LOGIN"
	ActionPageBreach    = "PAGE_BREACH"
	ActionUserCreate    = "USER_CREATE"
	ActionRoleAssign    = "ROLE_ASSIGN"
	ActionScopeAssign   = "SCOPE_ASSIGN"
	ActionDocCreate     = "DOC_CREATE"
	ActionDocUpdate     = "DOC_UPDATE"
	ActionDocDelete     = "DOC_DELETE"
	ActionDocApprove    = "DOC_APPROVE"
	ActionDocReject     = "DOC_REJECT"
	ActionPasswordReset = "PASSWORD_RESET"
)

type Event struct {
	ID           string    `db:"id" json:"id"`
	ActorID      *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action       string    `db:"action" json:"action"`
	ResourceType string    `db:"resource_type" json:"resource_type"`
	ResourceID   *string   `db:"resource_id" json:"resource_id,omitempty"`
	Detail       string    `db:"detail" json:"detail,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
