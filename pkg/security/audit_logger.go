package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType names a security-relevant event in the audit stream.
type EventType string

const (
	EventSignInFailed  EventType = "sign_in_failed"
	EventSignInBlocked EventType = "sign_in_blocked"
	EventSignInSuccess EventType = "sign_in_success"
	EventBlockCreated  EventType = "block_created"
	EventAdminMutation EventType = "admin_mutation"
)

// Event is one audit record. Emails are masked before they reach the log.
type Event struct {
	Type      EventType
	Email     string
	UserID    string
	IP        string
	RequestID string
	Details   map[string]any
}

// AuditLogger writes security events as JSON lines, apart from the request log.
type AuditLogger struct {
	zap         *zap.Logger
	service     string
	environment string
}

// NewAuditLogger builds a production zap logger writing to stdout.
func NewAuditLogger(service, environment string) *AuditLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.MessageKey = "message"
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	z, err := cfg.Build(zap.AddCaller())
	if err != nil {
		z, _ = zap.NewProduction()
	}
	return NewAuditLoggerWith(z, service, environment)
}

// NewAuditLoggerWith wraps an existing zap logger, e.g. an observer core in tests.
func NewAuditLoggerWith(z *zap.Logger, service, environment string) *AuditLogger {
	if z == nil {
		z = zap.NewNop()
	}
	return &AuditLogger{zap: z, service: service, environment: environment}
}

func (a *AuditLogger) Log(e Event) {
	if a == nil {
		return
	}
	fields := []zap.Field{
		zap.String("service", a.service),
		zap.String("env", a.environment),
		zap.String("event", string(e.Type)),
	}
	if e.Email != "" {
		fields = append(fields, zap.String("subject", MaskEmail(e.Email)))
	}
	if e.UserID != "" {
		fields = append(fields, zap.String("user_id", e.UserID))
	}
	if e.IP != "" {
		fields = append(fields, zap.String("ip", e.IP))
	}
	if e.RequestID != "" {
		fields = append(fields, zap.String("request_id", e.RequestID))
	}
	if len(e.Details) > 0 {
		fields = append(fields, zap.Any("details", e.Details))
	}
	a.zap.Log(levelFor(e.Type), string(e.Type), fields...)
}

func (a *AuditLogger) Sync() error {
	if a == nil {
		return nil
	}
	return a.zap.Sync()
}

func levelFor(t EventType) zapcore.Level {
	switch t {
	case EventSignInSuccess, EventAdminMutation:
		return zapcore.InfoLevel
	case EventSignInBlocked, EventBlockCreated:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// MaskEmail keeps the first character and the domain: "j***@example.com".
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	switch {
	case len(email) < 3:
		return "***"
	case at <= 1:
		return "***" + email[1:]
	}
	return email[:1] + "***" + email[at:]
}

// HashValue returns a short sha256 prefix for values that must not be logged verbatim.
func HashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}
