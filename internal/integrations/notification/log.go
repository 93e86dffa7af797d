package notification

import (
	"context"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
)

// LogDispatcher используется, когда Kafka выключена: события только пишутся в лог
type LogDispatcher struct {
	logger  Logger
	metrics Metrics
}

// NewLogDispatcher создает диспетчер, пишущий события в лог
func NewLogDispatcher(logger Logger, metrics Metrics) *LogDispatcher {
	return &LogDispatcher{logger: logger, metrics: metrics}
}

// Notify пишет событие в лог
func (d *LogDispatcher) Notify(_ context.Context, event string, booking *domain.Booking) {
	if booking == nil {
		return
	}
	d.logger.Info("Notify: %s booking=%d reference=%s user=%d status=%s",
		event, booking.ID, booking.Reference, booking.UserID, booking.Status)
	d.metrics.IncNotification(event, resultLogged)
}

// Close ничего не делает
func (d *LogDispatcher) Close() error {
	return nil
}
