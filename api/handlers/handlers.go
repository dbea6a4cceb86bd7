package handlers

import (
	"github.com/kbforge/kbforge/internal/service/conversion"
	"github.com/kbforge/kbforge/pkg/logger"
	"github.com/kbforge/kbforge/pkg/queue"
)

type Handlers struct {
	Convert *ConvertHandler
}

func NewHandlers(svc *conversion.Service, q queue.Queue, log logger.Logger) *Handlers {
	return &Handlers{
		Convert: NewConvertHandler(svc, q, log),
	}
}
