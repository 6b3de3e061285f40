package authctx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/scdri/backend/internal/models"
	"github.com/scdri/backend/internal/services"
)

const actorKey = "actor"

// SetActor stores an actor that middleware already checked against the database.
func SetActor(c *fiber.Ctx, a services.Actor) {
	c.Locals(actorKey, a)
}

// GetActor returns the caller, preferring a database-verified actor over the
// role carried in the token.
func GetActor(c *fiber.Ctx) (services.Actor, error) {
	if a, ok := c.Locals(actorKey).(services.Actor); ok {
		return a, nil
	}

	claims, err := claimsOf(c)
	if err != nil {
		return services.Actor{}, err
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return services.Actor{}, errors.New("missing sub claim")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return services.Actor{}, err
	}

	role := models.RoleCitizen
	if r, _ := claims["role"].(string); models.Role(r).Valid() {
		role = models.Role(r)
	}
	return services.Actor{ID: id, Role: role}, nil
}

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	a, err := GetActor(c)
	if err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}

func claimsOf(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, errors.New("invalid token in context")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}
