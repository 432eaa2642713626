package auth

import (
	"github.com/chantierflow/chantierflow/internal/auth/repository"
	"github.com/chantierflow/chantierflow/internal/auth/service"
	"github.com/chantierflow/chantierflow/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
