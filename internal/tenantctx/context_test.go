package tenantctx

import (
	"context"
	"testing"
)

func TestScopeFailClosed(t *testing.T) {
	cases := []struct {
		name  string
		actor Actor
		want  ScopeKind
	}{
		{"unauthenticated", Actor{}, ScopeNone},
		{"company-less demandeur", Actor{UserID: 1, Role: RoleDemandeur}, ScopeNone},
		{"tenant user", Actor{UserID: 1, CompanyID: 7, Role: RoleDemandeur}, ScopeCompany},
		{"super admin without company", Actor{UserID: 1, Role: RoleSuperAdmin}, ScopeAllTenants},
		{"super admin with company", Actor{UserID: 1, CompanyID: 7, Role: RoleSuperAdmin}, ScopeAllTenants},
	}

	for _, tc := range cases {
		if got := tc.actor.Scope().Kind; got != tc.want {
			t.Errorf("%s: scope kind = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanAccess(t *testing.T) {
	tenantUser := Actor{UserID: 1, CompanyID: 7, Role: RoleAdmin}
	if !tenantUser.CanAccess(7) {
		t.Error("tenant admin should access own company entities")
	}
	if tenantUser.CanAccess(8) {
		t.Error("tenant admin must not access another tenant's entities")
	}

	super := Actor{UserID: 2, Role: RoleSuperAdmin}
	if !super.CanAccess(7) || !super.CanAccess(8) {
		t.Error("super admin should access every tenant")
	}

	if (Actor{}).CanAccess(7) {
		t.Error("missing actor must be denied")
	}
}

func TestActorRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := ActorFromContext(ctx); ok {
		t.Fatal("empty context should carry no actor")
	}

	actor := Actor{UserID: 42, CompanyID: 7, Role: RoleValideur}
	ctx = WithActor(ctx, actor)

	got, ok := ActorFromContext(ctx)
	if !ok {
		t.Fatal("expected actor")
	}
	if got != actor {
		t.Fatalf("got %+v, want %+v", got, actor)
	}
	if !got.CanValidateOrders() {
		t.Error("valideur should be allowed to validate orders")
	}
	if got.IsAdmin() {
		t.Error("valideur is not an admin")
	}
}
