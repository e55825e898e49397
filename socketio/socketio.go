package socketio

import (
	"context"
	"time"

	"chat-service/database"
	"chat-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/socket.io-go-redis/adapter"
	r_type "github.com/zishang520/socket.io-go-redis/types"
	"github.com/zishang520/socket.io/v2/socket"
)

var server *socket.Server

func Init(app *fiber.App) *socket.Server {
	log.DEBUG = true

	options := socket.DefaultServerOptions()
	options.SetServeClient(true)
	options.SetAllowEIO3(true)
	options.SetPingInterval(300 * time.Millisecond)
	options.SetPingTimeout(200 * time.Millisecond)
	options.SetMaxHttpBufferSize(100000000)
	options.SetConnectTimeout(1000 * time.Millisecond)
	options.SetAdapter(&adapter.RedisAdapterBuilder{
		Redis: r_type.NewRedisClient(context.Background(), database.Redis[1]),
		Opts:  &adapter.RedisAdapterOptions{},
	})

	server = socket.NewServer(nil, nil)

	// Identity arrives pre-validated on the handshake token; sockets without
	// one stay unidentified until a user:online event.
	server.Use(func(client *socket.Socket, next func(*socket.ExtendedError)) {
		token, auth := client.Conn().Request().Query().Get("token")

		if auth {
			identity, err := utils.CheckAndExtractIdentity(token, "JWT_ACCESS_KEY")

			if err == nil && identity.Identified() {
				client.Join(socket.Room(identity.UserID))
				client.SetData(identity)
			}
		}

		next(nil)
	})

	app.Get("/socket.io/", adaptor.HTTPHandler(server.ServeHandler(options)))
	app.Post("/socket.io/", adaptor.HTTPHandler(server.ServeHandler(options)))

	return server
}

func Broadcast(event string, message any) {
	server.FetchSockets()(func(sockets []*socket.RemoteSocket, _ error) {
		for _, socket := range sockets {
			socket.Emit(event, message)
		}
	})
}


// RoomBroadcaster is the broadcast router: it delivers an event to every
// connection currently joined to a room.
type RoomBroadcaster struct{}

func (RoomBroadcaster) ToRoom(room string, event string, message any) {
	server.To(socket.Room(room)).Emit(event, message)
}

func (RoomBroadcaster) ToRoomExcept(room string, exceptId string, event string, message any) {
	server.To(socket.Room(room)).Except(socket.Room(exceptId)).Emit(event, message)
}
