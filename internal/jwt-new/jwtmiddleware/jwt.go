package jwtmiddleware

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
)

type contextKey string

const ActorKey contextKey = "actor"

// NewJWTMiddleware создаёт middleware для проверки JWT, секрет берётся из
// переменной окружения. В контекст запроса кладется актор целиком: id, имя,
// email и роль — дальше бизнес-логика получает его явным параметром.
func NewJWTMiddleware() func(http.Handler) http.Handler {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Извлекаем токен из заголовка Authorization (формат: "Bearer <token>")
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid token format", http.StatusUnauthorized)
				return
			}
			tokenStr := parts[1]

			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			actor, err := actorFromClaims(claims)
			if err != nil {
				http.Error(w, "invalid token claims: "+err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return models.Actor{}, errors.New("sub not found")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return models.Actor{}, errors.New("invalid user id")
	}

	roleStr, ok := claims["role"].(string)
	if !ok {
		return models.Actor{}, errors.New("role not found")
	}
	role := models.Role(roleStr)
	if !role.Valid() {
		return models.Actor{}, errors.New("unknown role")
	}

	// имя и email опциональны в токене, но нужны для снимка актора в журнале
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)

	return models.Actor{ID: userID, Name: name, Email: email, Role: role}, nil
}

// FromContext извлекает актора из контекста.
func FromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(models.Actor)
	return actor, ok
}

// RequireRole пропускает запрос только для актора с указанной ролью.
// Вешается поверх NewJWTMiddleware на административные маршруты.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if actor.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
