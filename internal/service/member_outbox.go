package service

import (
	"context"
	"log/slog"
	"time"

	"Uni_Community/internal/model"
)

type OutboxStore interface {
	List(ctx context.Context, batchSize int) ([]model.MemberOutbox, error)
	MarkSent(ctx context.Context, id uint64) error
	MarkRetry(ctx context.Context, id uint64) error
}

// Sender 把一条成员变更事件投递出去（Kafka 或日志占位）
type Sender func(ctx context.Context, ev *model.MemberOutbox) error

// OutboxRelayer 定时把 member_outbox 里的待发事件批量投递给下游。
// 事件行和成员行同事务写入，投递失败标记重试，至少一次语义
type OutboxRelayer struct {
	repo      OutboxStore
	batchSize int
	interval  time.Duration
	sender    Sender
}

func NewOutboxRelayer(repo OutboxStore, sender Sender) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      repo,
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
	}
}

// Run 启动投递循环，ctx 取消时退出
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		slog.Error("outbox query failed", "err", err)
		return
	}
	for i := range rows {
		ev := rows[i]
		if err := r.sender(ctx, &ev); err != nil {
			_ = r.repo.MarkRetry(ctx, ev.ID)
			continue
		}
		_ = r.repo.MarkSent(ctx, ev.ID)
	}
}

// LogSender 默认 sender：只打日志，未配置 Kafka 时使用
func LogSender(ctx context.Context, ev *model.MemberOutbox) error {
	slog.Info("member event",
		"type", ev.EventType, "community", ev.CommunityID, "user", ev.UserID)
	return nil
}
