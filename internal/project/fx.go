package project

import (
	"github.com/chantierflow/chantierflow/internal/project/repository"
	"github.com/chantierflow/chantierflow/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
