package worker

import (
	"go.uber.org/zap"
)

// HandlerRegistrar subscribes event handlers to a dispatcher.
type HandlerRegistrar interface {
	RegisterHandlers()
}

// StartNotificationWorker attaches the alert fan-out to domain events. The
// in-memory dispatcher runs handlers inline, so there is no goroutine to manage.
func StartNotificationWorker(registrar HandlerRegistrar, logger *zap.Logger) {
	if registrar == nil {
		return
	}
	registrar.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}
