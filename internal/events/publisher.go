package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/config"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

// Publisher 把记录的生命周期事件投递到 rabbitmq。
// 投递失败只记录日志，不影响已经完成的业务操作。
type Publisher struct {
	cfg *config.Config
	ch  *amqp.Channel
}

func NewPublisher(cfg *config.Config, ch *amqp.Channel) *Publisher {
	return &Publisher{cfg: cfg, ch: ch}
}

func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	return err
}

// EntryEvent 根据记录当前的状态构造事件
func EntryEvent(eventType string, organizationID, actorID uuid.UUID, entry *domain.TimesheetEntry) domain.EntryEvent {
	entryID, ownerID := entry.ID, entry.UserID
	return domain.EntryEvent{
		Type:           eventType,
		OrganizationID: organizationID,
		ActorID:        actorID,
		EntryID:        &entryID,
		OwnerID:        &ownerID,
		Status:         entry.Status,
		OccurredAt:     time.Now().UTC(),
	}
}

// ImportEvent 记录一次批量导入的结果
func ImportEvent(organizationID, actorID uuid.UUID, result domain.CommitResult) domain.EntryEvent {
	return domain.EntryEvent{
		Type:           domain.EventImportCommitted,
		OrganizationID: organizationID,
		ActorID:        actorID,
		Data:           result,
		OccurredAt:     time.Now().UTC(),
	}
}

func (p *Publisher) Publish(ctx context.Context, event domain.EntryEvent) {
	if p == nil || p.ch == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		slog.Warn("无法序列化事件", "type", event.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := p.ch.PublishWithContext(
		ctx,
		"",
		p.cfg.RabbitMQ.EventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         event.Type,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	); err != nil {
		slog.Warn("无法投递事件", "type", event.Type, "error", err)
	}
}
