package warranty

import (
	"github.com/smallbiznis/warrantyhub/internal/warranty/repository"
	"github.com/smallbiznis/warrantyhub/internal/warranty/service"
	"go.uber.org/fx"
)

var Module = fx.Module("warranty.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
