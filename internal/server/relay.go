package server

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayChannelPrefix = "room:"

// relay bridges room broadcasts across server instances over redis
// pub/sub, so players connected to different instances still share one
// room channel. Envelopes published locally carry this instance's id;
// anything arriving with our own id is dropped to avoid echo loops.
type relay struct {
	client     *redis.Client
	instanceID string
}

func newRelay(addr, password string) (*relay, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &relay{
		client:     client,
		instanceID: uuid.NewString(),
	}, nil
}

func (r *relay) Publish(roomCode string, env Envelope) {
	env.Origin = r.instanceID
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := r.client.Publish(context.Background(), relayChannelPrefix+roomCode, data).Err(); err != nil {
		log.Printf("relay publish failed room_code=%s error=%v", roomCode, err)
	}
}

// Run consumes remote envelopes and re-delivers them to local
// subscribers. It returns when the context is cancelled.
func (r *relay) Run(ctx context.Context, hub *wsHub) {
	sub := r.client.PSubscribe(ctx, relayChannelPrefix+"*")
	defer func() {
		_ = sub.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			env, err := DecodeEnvelope([]byte(msg.Payload))
			if err != nil {
				log.Printf("relay rejected message channel=%s error=%v", msg.Channel, err)
				continue
			}
			if env.Origin == r.instanceID {
				continue
			}
			roomCode := strings.TrimPrefix(msg.Channel, relayChannelPrefix)
			hub.Broadcast(roomCode, env)
		}
	}
}
