package observability

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// AuditEvent is the structured record emitted for security-relevant actions.
// Attribute values never include code or token material; the email address is
// the finest-grained identifier allowed in an event.
type AuditEvent struct {
	EventVersion int    `json:"event_version"`
	EventName    string `json:"event_name"`
	ActorEmail   string `json:"actor_email"`
	ActorIP      string `json:"actor_ip"`
	TargetType   string `json:"target_type"`
	TargetID     string `json:"target_id"`
	Action       string `json:"action"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason"`
	RequestID    string `json:"request_id"`
	TS           string `json:"ts"`
}

type AuditInput struct {
	EventName  string
	ActorEmail string
	TargetType string
	TargetID   string
	Action     string
	Outcome    string
	Reason     string
}

func BuildAuditEvent(r *http.Request, in AuditInput) AuditEvent {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	actor := in.ActorEmail
	if actor == "" {
		actor = "anonymous"
	}
	return AuditEvent{
		EventVersion: 1,
		EventName:    in.EventName,
		ActorEmail:   actor,
		ActorIP:      ip,
		TargetType:   in.TargetType,
		TargetID:     in.TargetID,
		Action:       in.Action,
		Outcome:      in.Outcome,
		Reason:       in.Reason,
		RequestID:    r.Header.Get("X-Request-Id"),
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
}

func (e AuditEvent) Validate() error {
	if e.EventVersion != 1 {
		return fmt.Errorf("unsupported audit event version %d", e.EventVersion)
	}
	if e.EventName == "" {
		return fmt.Errorf("audit event missing event_name")
	}
	if e.Action == "" || e.Outcome == "" {
		return fmt.Errorf("audit event %s missing action or outcome", e.EventName)
	}
	return nil
}

// Emit logs the event through the process logger, tagging it with the active
// trace so the record can be joined against spans.
func (e AuditEvent) Emit(r *http.Request) {
	msg := "audit"
	sc := trace.SpanContextFromContext(r.Context())
	if sc.IsValid() {
		msg = fmt.Sprintf("audit trace_id=%s span_id=%s", sc.TraceID().String(), sc.SpanID().String())
	}
	slog.InfoContext(r.Context(), msg,
		"event_version", e.EventVersion,
		"event", e.EventName,
		"actor_email", e.ActorEmail,
		"actor_ip", e.ActorIP,
		"target_type", e.TargetType,
		"target_id", e.TargetID,
		"action", e.Action,
		"outcome", e.Outcome,
		"reason", e.Reason,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", e.RequestID,
		"ts", e.TS,
	)
}

// Audit is the one-call form used by handlers for simple events.
func Audit(r *http.Request, event string, attrs ...any) {
	msg := "audit"
	sc := trace.SpanContextFromContext(r.Context())
	if sc.IsValid() {
		msg = fmt.Sprintf("audit trace_id=%s span_id=%s", sc.TraceID().String(), sc.SpanID().String())
	}
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Header.Get("X-Request-Id"),
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), msg, base...)
}
