package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chat-service/config"
	"chat-service/database"
	"chat-service/event"
	"chat-service/event/listener"
	"chat-service/router"
	"chat-service/service"
	"chat-service/socketio"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	log.SetPrefix("chat-service: ")

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		AppName:               "chat-service",
	})

	rest.Use(cors.New())

	database.RedisConnect()
	database.PostgresConnect()

	event.RabbitMQConnect([]string{
		// Connect to queues
		"platform",
		"chat",
	})

	// Run platform listener
	go listener.Platform()

	// Subscribe listener channel to inbound chat events
	event.RabbitMQSubscribe([]event.RabbitMQSubscribeListener{
		{
			Queue:   "chat",
			Channel: listener.PlatformChannel,
		},
	})

	// Init event logs
	event.Init()

	socket := socketio.Init(rest)

	chat := service.NewChat(database.Postgres, socketio.RoomBroadcaster{}, event.NewPlatformPublisher())

	router.Rest(rest, chat)
	router.Socket(socket, chat)

	go rest.Listen(fmt.Sprintf(":%s", config.Config("SERVER_PORT")))

	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	socket.Close(nil)
	event.RabbitMQChannel.Close()
	event.RabbitMQConnection.Close()
	event.InLogFile.Close()
	event.OutLogFile.Close()
	os.Exit(0)
}
