package product

import (
	"github.com/chantierflow/chantierflow/internal/product/repository"
	"github.com/chantierflow/chantierflow/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
