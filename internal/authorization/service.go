package authorization

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
)

type Service interface {
	// Authorize checks whether the actor may perform action on object
	// within the given tenant. companyID is the tenant the target
	// entity belongs to, not necessarily the actor's own.
	Authorize(ctx context.Context, actor tenantctx.Actor, companyID snowflake.ID, object string, action string) error
}
