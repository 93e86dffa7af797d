package notification

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Metrics счётчик отправленных уведомлений
type Metrics interface {
	IncNotification(event, result string)
}
