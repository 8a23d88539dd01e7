package httpapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mausam360/backend/internal/preferences"
	"github.com/mausam360/backend/internal/weather"
)

type userParam struct {
	UserID string `validate:"required,max=128"`
}

type coordinatesBody struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

func (b coordinatesBody) toCoordinates() weather.Coordinates {
	return weather.Coordinates{Lat: b.Lat, Lon: b.Lon}
}

type cityBody struct {
	Name        string           `json:"name" validate:"required,max=100"`
	Coordinates *coordinatesBody `json:"coordinates" validate:"required"`
}

// updateRequest is the PUT body. Absent fields are left unchanged.
type updateRequest struct {
	DefaultCity     *cityBody `json:"defaultCity" validate:"omitempty"`
	TemperatureUnit *string   `json:"temperatureUnit" validate:"omitempty,oneof=celsius fahrenheit"`
}

func (r updateRequest) toUpdate() preferences.Update {
	var u preferences.Update
	if r.DefaultCity != nil {
		u.DefaultCity = &preferences.City{
			Name:        strings.TrimSpace(r.DefaultCity.Name),
			Coordinates: r.DefaultCity.Coordinates.toCoordinates(),
		}
	}
	if r.TemperatureUnit != nil {
		unit := preferences.Unit(*r.TemperatureUnit)
		u.TemperatureUnit = &unit
	}
	return u
}

type recentSearchRequest struct {
	CityName    string           `json:"cityName" validate:"required,max=100"`
	Coordinates *coordinatesBody `json:"coordinates" validate:"required"`
}

func parseUserID(c *fiber.Ctx) (string, error) {
	p := userParam{UserID: strings.TrimSpace(c.Params("userId"))}
	if err := validate.Struct(p); err != nil {
		return "", errors.New("Invalid user id")
	}
	return p.UserID, nil
}

func (h *handler) getPreferences(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	rec, err := h.prefs.GetOrCreate(c.UserContext(), userID)
	if err != nil {
		h.logger.Error("failed to fetch user preferences", zap.String("user_id", userID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch user preferences")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rec,
	})
}

func (h *handler) updatePreferences(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	rec, err := h.prefs.Update(c.UserContext(), userID, req.toUpdate())
	if err != nil {
		if errors.Is(err, preferences.ErrInvalidUnit) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error("failed to update user preferences", zap.String("user_id", userID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to update user preferences")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rec,
		"message": "Preferences updated successfully",
	})
}

func (h *handler) addRecentSearch(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var req recentSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.CityName = strings.TrimSpace(req.CityName)
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "City name and coordinates are required")
	}

	rec, err := h.prefs.AddRecentSearch(c.UserContext(), userID, req.CityName, req.Coordinates.toCoordinates())
	if err != nil {
		h.logger.Error("failed to add recent search", zap.String("user_id", userID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to add recent search")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rec,
		"message": "Recent search added successfully",
	})
}

func (h *handler) clearRecentSearches(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	rec, err := h.prefs.ClearRecentSearches(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, preferences.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "User preferences not found")
		}
		h.logger.Error("failed to clear recent searches", zap.String("user_id", userID), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to clear recent searches")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rec,
		"message": "Recent searches cleared successfully",
	})
}
