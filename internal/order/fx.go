package order

import (
	"github.com/chantierflow/chantierflow/internal/order/repository"
	"github.com/chantierflow/chantierflow/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
