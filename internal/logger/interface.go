package logger

// Logger provides structured logging with a component tag.
type Logger interface {
	Info(component, message string, fields map[string]any)
	Error(component string, err error, fields map[string]any)
	Warning(component, message string, fields map[string]any)
	Debug(component, message string, fields map[string]any)
}
