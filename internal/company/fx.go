package company

import (
	"github.com/chantierflow/chantierflow/internal/company/repository"
	"github.com/chantierflow/chantierflow/internal/company/service"
	"go.uber.org/fx"
)

var Module = fx.Module("company.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
