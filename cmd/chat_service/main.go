package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"recruitment_chat_service/internal/chat/app"
	"recruitment_chat_service/internal/chat/hub"
	"recruitment_chat_service/internal/chat/repository"
	"recruitment_chat_service/internal/chat/router"
	"recruitment_chat_service/pkg/config"
	"recruitment_chat_service/pkg/database"
	"recruitment_chat_service/pkg/logger"
	testtool "recruitment_chat_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)

	ctx := context.Background()

	// Mongo holds the message and call documents.
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", uri)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	// Postgres holds the durable room rows shared with the web application.
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database, cfg.PostgreSQL.Port)
	pg, err := database.NewPGConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgres after retries", zap.Error(err))
	}

	// Redis carries the presence and administrative call channels.
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	roomRepo := repository.NewPGRoomRepository(pg)
	if err := roomRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("room table migration failed", zap.Error(err))
	}
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	callRepo := repository.NewMongoCallRepository(mongo.Database)
	pubsub := repository.NewRedisPubSub(redisClient)

	chatHub := hub.NewHub()
	messageUC := app.NewMessageUseCase(roomRepo, msgRepo)
	callUC := app.NewCallUseCase(callRepo, roomRepo, chatHub, time.Duration(cfg.CallExpiryMS)*time.Millisecond)
	callUC.ListenAdminCommands(ctx, pubsub)

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, app.NewChatWebsocketHandler(chatHub, messageUC, callUC, pubsub))

	testtool.StartPprof()

	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
