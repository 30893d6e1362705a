package services

import (
    "encoding/json"
    "fmt"
    "log"
    "os"
    "strings"
    "time"
)

// Logger defines the common logging interface shared by all services.
type Logger interface {
    Info(msg string, keysAndValues ...interface{})
    Error(msg string, keysAndValues ...interface{})
    Debug(msg string, keysAndValues ...interface{})
    Warn(msg string, keysAndValues ...interface{})
}

// LogLevel represents different logging levels.
type LogLevel int

const (
    LogLevelDebug LogLevel = iota
    LogLevelInfo
    LogLevelWarn
    LogLevelError
)

func (l LogLevel) String() string {
    switch l {
    case LogLevelDebug:
        return "DEBUG"
    case LogLevelInfo:
        return "INFO"
    case LogLevelWarn:
        return "WARN"
    case LogLevelError:
        return "ERROR"
    default:
        return "UNKNOWN"
    }
}

// ProductionLogger is a structured key/value logger. It emits JSON lines in
// production and a human-readable format in development.
type ProductionLogger struct {
    logger     *log.Logger
    level      LogLevel
    service    string
    structured bool
}

func NewProductionLogger(service string) *ProductionLogger {
    return &ProductionLogger{
        logger:     log.New(os.Stdout, "", 0),
        level:      LogLevelInfo,
        service:    service,
        structured: true,
    }
}

// SetLevel updates the logging level.
func (p *ProductionLogger) SetLevel(level LogLevel) {
    p.level = level
}

// SetStructured enables or disables JSON output.
func (p *ProductionLogger) SetStructured(structured bool) {
    p.structured = structured
}

func (p *ProductionLogger) Info(msg string, keysAndValues ...interface{}) {
    if p.level > LogLevelInfo {
        return
    }
    p.log(LogLevelInfo, msg, keysAndValues...)
}

func (p *ProductionLogger) Error(msg string, keysAndValues ...interface{}) {
    p.log(LogLevelError, msg, keysAndValues...)
}

func (p *ProductionLogger) Debug(msg string, keysAndValues ...interface{}) {
    if p.level > LogLevelDebug {
        return
    }
    p.log(LogLevelDebug, msg, keysAndValues...)
}

func (p *ProductionLogger) Warn(msg string, keysAndValues ...interface{}) {
    if p.level > LogLevelWarn {
        return
    }
    p.log(LogLevelWarn, msg, keysAndValues...)
}

func (p *ProductionLogger) log(level LogLevel, msg string, keysAndValues ...interface{}) {
    timestamp := time.Now().UTC().Format(time.RFC3339)

    if p.structured {
        logEntry := map[string]interface{}{
            "timestamp": timestamp,
            "level":     level.String(),
            "service":   p.service,
            "message":   msg,
        }

        if len(keysAndValues) > 0 {
            fields := make(map[string]interface{})
            for i := 0; i < len(keysAndValues)-1; i += 2 {
                if key, ok := keysAndValues[i].(string); ok {
                    fields[key] = keysAndValues[i+1]
                }
            }
            if len(fields) > 0 {
                logEntry["fields"] = fields
            }
        }

        jsonBytes, _ := json.Marshal(logEntry)
        p.logger.Println(string(jsonBytes))
        return
    }

    var kvStr strings.Builder
    for i := 0; i < len(keysAndValues)-1; i += 2 {
        kvStr.WriteString(fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1]))
    }
    p.logger.Printf("[%s] %s [%s] %s%s", timestamp, level.String(), p.service, msg, kvStr.String())
}

// NoOpLogger is a logger that does nothing (for testing).
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Warn(msg string, keysAndValues ...interface{})  {}

// NewLogger builds the logger appropriate for the current environment.
func NewLogger(service string) Logger {
    env := os.Getenv("GO_ENV")
    logLevel := os.Getenv("LOG_LEVEL")

    if env == "test" {
        return &NoOpLogger{}
    }

    logger := NewProductionLogger(service)

    switch strings.ToUpper(logLevel) {
    case "DEBUG":
        logger.SetLevel(LogLevelDebug)
    case "WARN":
        logger.SetLevel(LogLevelWarn)
    case "ERROR":
        logger.SetLevel(LogLevelError)
    default:
        logger.SetLevel(LogLevelInfo)
    }

    logger.SetStructured(env == "production")

    return logger
}
