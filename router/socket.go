package router

import (
	"log"

	"chat-service/model"
	"chat-service/service"
	"chat-service/socketio"

	"github.com/zishang520/socket.io/v2/socket"
)

// Socket wires the live protocol. Handlers are fire-and-forget: malformed
// payloads and store failures are logged and dropped, the connection stays
// up, and no error event goes back to the sender.
func Socket(server *socket.Server, chat *service.Chat) {
	server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		if identity, ok := client.Data().(model.CallerIdentity); ok && identity.Identified() {
			socketio.Presence.Register(identity.UserID, string(client.Id()))
			socketio.Broadcast("online:users", socketio.Presence.Online())
		}

		client.On("user:online", func(args ...interface{}) {
			userId := argString(args, 0)
			if userId == "" {
				log.Printf("user:online without user id, dropped")
				return
			}

			identity, _ := client.Data().(model.CallerIdentity)
			if !identity.Identified() {
				identity.UserID = userId
				client.SetData(identity)
			}

			client.Join(socket.Room(identity.UserID))
			socketio.Presence.Register(identity.UserID, string(client.Id()))
			socketio.Broadcast("online:users", socketio.Presence.Online())
		})

		// Joining is by conversation id only; membership is enforced at the
		// service boundary, not here.
		client.On("join:conversation", func(args ...interface{}) {
			room := argString(args, 0)
			if room == "" {
				log.Printf("join:conversation without conversation id, dropped")
				return
			}
			client.Join(socket.Room(room))
		})

		client.On("leave:conversation", func(args ...interface{}) {
			room := argString(args, 0)
			if room == "" {
				return
			}
			client.Leave(socket.Room(room))
		})

		client.On("message:send", func(args ...interface{}) {
			payload, ok := argMap(args, 0)
			if !ok {
				log.Printf("message:send malformed payload, dropped")
				return
			}

			attachment := service.Attachment{
				Image:  asString(payload["image"]),
				Images: asStringSlice(payload["images"]),
			}
			if file, ok := payload["file"].(map[string]interface{}); ok {
				attachment.File = model.ChatFile{
					URL:  asString(file["url"]),
					Name: asString(file["name"]),
					Type: asString(file["type"]),
					Size: int64(asUint(file["size"])),
				}
			}

			_, err := chat.SendMessage(
				socketIdentity(client, asString(payload["senderId"])),
				asUint(payload["conversationId"]),
				asString(payload["content"]),
				attachment,
				asUint(payload["replyTo"]),
			)
			if err != nil {
				log.Printf("message:send failed: %v", err)
			}
		})

		client.On("message:react", func(args ...interface{}) {
			payload, ok := argMap(args, 0)
			if !ok {
				log.Printf("message:react malformed payload, dropped")
				return
			}

			_, err := chat.ToggleReaction(
				socketIdentity(client, asString(payload["userId"])),
				asUint(payload["messageId"]),
				asString(payload["emoji"]),
				asUint(payload["conversationId"]),
			)
			if err != nil {
				log.Printf("message:react failed: %v", err)
			}
		})

		client.On("typing", func(args ...interface{}) {
			payload, ok := argMap(args, 0)
			if !ok {
				return
			}

			err := chat.RelayTyping(
				socketIdentity(client, asString(payload["userId"])),
				asUint(payload["conversationId"]),
				asBool(payload["typing"]),
				string(client.Id()),
			)
			if err != nil {
				log.Printf("typing relay failed: %v", err)
			}
		})

		client.On("disconnect", func(args ...interface{}) {
			if _, wentOffline := socketio.Presence.Drop(string(client.Id())); wentOffline {
				socketio.Broadcast("online:users", socketio.Presence.Online())
			}
		})
	})
}

// socketIdentity prefers the identity bound at handshake or user:online and
// falls back to the sender id carried in the payload, as the original
// protocol trusts it.
func socketIdentity(client *socket.Socket, fallbackUserId string) model.CallerIdentity {
	if identity, ok := client.Data().(model.CallerIdentity); ok && identity.Identified() {
		return identity
	}
	return model.CallerIdentity{UserID: fallbackUserId}
}
