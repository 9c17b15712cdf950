// Package dispatch hands join requests to the recording bot runners. The bot
// runners consume a Redis list, so enqueueing is a single RPUSH of a JSON
// envelope.
package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"github.com/scribehq/scribe/server/config"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
)

// DefaultJoinQueueKey is the Redis list the bot runners block on.
const DefaultJoinQueueKey = "queue:join_meeting"

// JoinRequest is the payload the bot runner needs to join a meeting.
type JoinRequest struct {
	MeetingID        string `json:"meeting_id"`
	MeetingURL       string `json:"meeting_url"`
	UserID           string `json:"user_id"`
	BotDisplayName   string `json:"bot_display_name"`
	BotCameraEnabled bool   `json:"bot_camera_enabled"`
}

// Envelope is the wire format pushed onto the queue.
type Envelope struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Data      JoinRequest `json:"data"`
	CreatedAt time.Time   `json:"created_at"`
}

// Dispatcher pushes join requests onto the Redis queue.
type Dispatcher struct {
	pool     *redis.Pool
	queueKey string
}

// NewDispatcher creates a Dispatcher on top of an existing Redis pool.
func NewDispatcher(pool *redis.Pool, queueKey string) *Dispatcher {
	if queueKey == "" {
		queueKey = DefaultJoinQueueKey
	}
	return &Dispatcher{pool: pool, queueKey: queueKey}
}

// EnqueueJoinRequest wraps req in an envelope and RPUSHes it.
func (d *Dispatcher) EnqueueJoinRequest(ctx context.Context, req JoinRequest) error {
	env := Envelope{
		ID:        uuid.New().String(),
		Type:      "join_meeting",
		Data:      req,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return ctxerr.Wrap(ctx, err, "marshal join request envelope")
	}

	conn, err := d.pool.GetContext(ctx)
	if err != nil {
		return ctxerr.Wrap(ctx, err, "get redis connection")
	}
	defer conn.Close()

	if _, err := conn.Do("RPUSH", d.queueKey, payload); err != nil {
		return ctxerr.Wrap(ctx, err, "rpush join request")
	}
	return nil
}

// NewRedisPool creates a Redis connection pool using the provided
// configuration.
func NewRedisPool(conf config.RedisConfig) *redis.Pool {
	return &redis.Pool{
		MaxIdle:         conf.MaxIdleConns,
		MaxActive:       conf.MaxOpenConns,
		IdleTimeout:     conf.IdleTimeout,
		MaxConnLifetime: conf.ConnMaxLifetime,
		Dial: func() (redis.Conn, error) {
			c, err := redis.Dial(
				"tcp",
				conf.Address,
				redis.DialDatabase(conf.Database),
				redis.DialUseTLS(conf.UseTLS),
				redis.DialConnectTimeout(conf.ConnectTimeout),
				redis.DialKeepAlive(conf.KeepAlive),
			)
			if err != nil {
				return nil, err
			}
			if conf.Password != "" {
				if _, err := c.Do("AUTH", conf.Password); err != nil {
					c.Close()
					return nil, err
				}
			}
			return c, err
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}
