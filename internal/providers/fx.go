package providers

import (
	"github.com/chantierflow/chantierflow/internal/providers/pdf"
	"github.com/chantierflow/chantierflow/internal/providers/upload"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	fx.Provide(pdf.New),
	fx.Provide(upload.New),
)
