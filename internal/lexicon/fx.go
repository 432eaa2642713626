package lexicon

import (
	"github.com/chantierflow/chantierflow/internal/lexicon/repository"
	"github.com/chantierflow/chantierflow/internal/lexicon/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lexicon.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
