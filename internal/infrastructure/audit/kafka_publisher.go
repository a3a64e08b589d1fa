// Package audit publishes login attempt records to Kafka for downstream
// compliance pipelines.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/sfauth/internal/config"
	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/pkg/logger"
)

// loginAttemptEvent is the wire shape of an audit record. Credential
// ciphertext fields on the history row are never serialized here.
type loginAttemptEvent struct {
	HistoryID      string    `json:"history_id"`
	LoginType      string    `json:"login_type"`
	OrgType        string    `json:"org_type"`
	Username       string    `json:"username,omitempty"`
	LoginStatus    string    `json:"login_status"`
	ErrorCode      string    `json:"error_code,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	InstanceURL    string    `json:"instance_url,omitempty"`
	LoginIP        string    `json:"login_ip,omitempty"`
	DeviceType     string    `json:"device_type,omitempty"`
	Browser        string    `json:"browser,omitempty"`
	OS             string    `json:"os,omitempty"`
	Operator       string    `json:"operator,omitempty"`
	RequestTime    time.Time `json:"request_time"`
	ResponseTime   time.Time `json:"response_time"`
	DurationMs     int64     `json:"duration_ms"`
}

// KafkaPublisher is a Kafka-backed implementation of the AuditPublisher.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    logger.Logger
}

var _ service.AuditPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher writing to the configured audit topic.
func NewKafkaPublisher(cfg config.KafkaConfig, log logger.Logger) (*KafkaPublisher, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{
		writer: writer,
		log:    log.WithComponent("kafka_publisher"),
	}, nil
}

// PublishLoginAttempt sends one login attempt record to the audit topic.
// Failures are logged and returned; callers treat publishing as best effort.
func (p *KafkaPublisher) PublishLoginAttempt(ctx context.Context, history *models.LoginHistory) error {
	if history == nil {
		return nil
	}
	event := loginAttemptEvent{
		HistoryID:      history.HistoryID,
		LoginType:      string(history.LoginType),
		OrgType:        string(history.OrgType),
		Username:       history.Username,
		LoginStatus:    history.LoginStatus,
		ErrorCode:      history.ErrorCode,
		ErrorMessage:   history.ErrorMessage,
		UserID:         history.SfUserID,
		OrganizationID: history.SfOrganizationID,
		InstanceURL:    history.InstanceURL,
		LoginIP:        history.LoginIP,
		DeviceType:     history.DeviceType,
		Browser:        history.Browser,
		OS:             history.OS,
		Operator:       history.Operator,
		RequestTime:    history.RequestTime,
		ResponseTime:   history.ResponseTime,
		DurationMs:     history.DurationMs,
	}
	bytes, err := json.Marshal(event)
	if err != nil {
		p.log.Error(ctx, "Failed to marshal login attempt event", err,
			logger.String("history_id", history.HistoryID),
		)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(history.HistoryID),
		Value: bytes,
	})
	if err != nil {
		p.log.Error(ctx, "Failed to publish login attempt", err,
			logger.String("history_id", history.HistoryID),
		)
	}
	return err
}

// Close closes the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards audit events. Used when Kafka is disabled.
type NopPublisher struct{}

var _ service.AuditPublisher = (*NopPublisher)(nil)

func NewNopPublisher() *NopPublisher { return &NopPublisher{} }

func (NopPublisher) PublishLoginAttempt(context.Context, *models.LoginHistory) error { return nil }

func (NopPublisher) Close() error { return nil }
