package main

import (
	"context"
	"log/slog"
	"os"

	"Uni_Community/internal/config"
	"Uni_Community/internal/handler"
	"Uni_Community/internal/model"
	"Uni_Community/internal/pkg"
	"Uni_Community/internal/repository/mysql"
	"Uni_Community/internal/repository/redis"
	"Uni_Community/internal/router"
	"Uni_Community/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}

	if err := mysql.InitDB(cfg.MySQL.DSN); err != nil {
		slog.Error("mysql init failed", "err", err)
		os.Exit(1)
	}

	if err := redis.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		slog.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer redis.Close()

	pkg.SetSecrets(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)

	// 自动建表（开发阶段 OK）
	mysql.DB.AutoMigrate(
		&model.User{},
		&model.Community{},
		&model.CommunityMember{},
		&model.Role{},
		&model.UserRole{},
		&model.MemberOutbox{},
	)

	communityRepo := &mysql.CommunityRepository{DB: mysql.DB}
	memberRepo := &mysql.CommunityMemberRepository{DB: mysql.DB}
	roleRepo := &mysql.RoleRepository{DB: mysql.DB}
	outboxRepo := &mysql.OutboxRepository{DB: mysql.DB}
	userRepo := &mysql.UserRepository{DB: mysql.DB}

	communityCache := redis.NewCommunityCache(redis.Client)
	tokenRepo := redis.NewUserTokenRepository(redis.Client)

	permSvc := service.NewPermissionService(roleRepo, communityRepo, communityCache)
	communitySvc := service.NewCommunityService(communityRepo, memberRepo, communityCache, permSvc)
	roleSvc := service.NewRoleService(roleRepo, permSvc)
	userSvc := service.NewUserService(userRepo, tokenRepo)

	// outbox 投递：配了 broker 走 Kafka，否则退化成日志
	sender := service.LogSender
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			slog.Error("kafka init failed", "err", err)
			os.Exit(1)
		}
		defer producer.Close()
		sender = func(ctx context.Context, ev *model.MemberOutbox) error {
			return producer.Send(ctx, pkg.MakeKeyFromID(ev.CommunityID), []byte(ev.Payload))
		}
	}

	relayCtx, cancelRelay := context.WithCancel(context.Background())
	defer cancelRelay()
	go service.NewOutboxRelayer(outboxRepo, sender).Run(relayCtx)

	r := router.InitRouter(router.Handlers{
		User:      handler.NewUserHandler(userSvc),
		Community: handler.NewCommunityHandler(communitySvc),
		Role:      handler.NewRoleHandler(roleSvc),
		Tokens:    tokenRepo,
	})
	if err := r.Run(cfg.Server.Addr); err != nil {
		slog.Error("server exited", "err", err)
	}
}
