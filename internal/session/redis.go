package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps session data in Redis. The cookie only carries a signed
// token whose jti names the Redis key.
type RedisStore struct {
	rdb    redis.UniversalClient
	secret []byte
	ttl    time.Duration
	secure bool
	name   string
}

func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func NewRedisStore(rdb redis.UniversalClient, secret []byte, ttl time.Duration, secure bool) *RedisStore {
	return &RedisStore{rdb: rdb, secret: secret, ttl: ttl, secure: secure, name: CookieName}
}

func (s *RedisStore) Load(c echo.Context) (*Data, error) {
	jti, ok := s.tokenID(c)
	if !ok {
		return &Data{}, nil
	}

	raw, err := s.rdb.Get(c.Request().Context(), keyPrefix+jti).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Data{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	d := &Data{}
	if err := json.Unmarshal(raw, d); err != nil {
		return &Data{}, nil
	}
	d.id = jti
	return d, nil
}

func (s *RedisStore) Save(c echo.Context, d *Data) error {
	ctx := c.Request().Context()

	if d.renew && d.id != "" {
		if err := s.rdb.Del(ctx, keyPrefix+d.id).Err(); err != nil {
			return fmt.Errorf("redis drop old session: %w", err)
		}
		d.id = ""
	}
	if d.id == "" {
		d.id = uuid.NewString()
	}
	d.renew = false

	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, keyPrefix+d.id, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	exp := time.Now().Add(s.ttl)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        d.id,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}).SignedString(s.secret)
	if err != nil {
		return err
	}

	c.SetCookie(s.cookie(token, exp, int(s.ttl.Seconds())))
	return nil
}

func (s *RedisStore) Clear(c echo.Context) error {
	if jti, ok := s.tokenID(c); ok {
		if err := s.rdb.Del(c.Request().Context(), keyPrefix+jti).Err(); err != nil {
			return fmt.Errorf("redis delete session: %w", err)
		}
	}
	c.SetCookie(s.cookie("", time.Unix(0, 0), -1))
	return nil
}

// tokenID returns the jti of a valid session token on the request.
func (s *RedisStore) tokenID(c echo.Context) (string, bool) {
	ck, err := c.Cookie(s.name)
	if err != nil || ck.Value == "" {
		return "", false
	}

	var claims jwt.RegisteredClaims
	t, err := jwt.ParseWithClaims(ck.Value, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !t.Valid || claims.ID == "" {
		return "", false
	}
	return claims.ID, true
}

func (s *RedisStore) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
