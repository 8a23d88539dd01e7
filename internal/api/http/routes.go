package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mausam360/backend/internal/preferences"
	"github.com/mausam360/backend/internal/weather"
)

var validate = validator.New()

// WeatherService is the part of weather.Service the handlers use.
type WeatherService interface {
	GetCompleteWeatherData(ctx context.Context, lat, lon float64, cityHint string) (weather.Bundle, error)
	GetCompleteWeatherByCity(ctx context.Context, name string) (weather.Bundle, error)
	GetCurrentWeatherByCity(ctx context.Context, name string) (weather.CurrentWeather, error)
	GetCurrentWeatherByCoords(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error)
}

// PreferenceService is the part of preferences.Service the handlers use.
type PreferenceService interface {
	GetOrCreate(ctx context.Context, userID string) (preferences.Record, error)
	Update(ctx context.Context, userID string, u preferences.Update) (preferences.Record, error)
	AddRecentSearch(ctx context.Context, userID, cityName string, coords weather.Coordinates) (preferences.Record, error)
	ClearRecentSearches(ctx context.Context, userID string) (preferences.Record, error)
}

type handler struct {
	weather WeatherService
	prefs   PreferenceService
	logger  *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, weatherSvc WeatherService, prefs PreferenceService, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{weather: weatherSvc, prefs: prefs, logger: logger}

	w := app.Group("/api/weather")
	w.Get("/coordinates", h.weatherByCoordinates)
	w.Get("/city", h.weatherByCity)
	w.Get("/validate-city", h.validateCity)
	w.Get("/current", h.currentWeather)

	p := app.Group("/api/preferences")
	p.Get("/:userId", h.getPreferences)
	p.Put("/:userId", h.updatePreferences)
	p.Post("/:userId/recent-search", h.addRecentSearch)
	p.Delete("/:userId/recent-searches", h.clearRecentSearches)
}

func (h *handler) weatherByCoordinates(c *fiber.Ctx) error {
	q, err := parseCoordinatesQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	bundle, err := h.weather.GetCompleteWeatherData(c.UserContext(), q.lat, q.lon, "")
	if err != nil {
		return weatherError(err)
	}

	h.recordSearch(c, bundle.Current.City, weather.Coordinates{Lat: q.lat, Lon: q.lon})
	return c.JSON(fiber.Map{
		"success": true,
		"data":    bundle,
		"message": bundleMessage(bundle),
	})
}

func (h *handler) weatherByCity(c *fiber.Ctx) error {
	q, err := parseCityQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	bundle, err := h.weather.GetCompleteWeatherByCity(c.UserContext(), q.City)
	if err != nil {
		return weatherError(err)
	}

	h.recordSearch(c, q.City, bundle.Current.Coordinates)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    bundle,
		"message": bundleMessage(bundle),
	})
}

// validateCity answers 200 with valid=false for an unknown city so that
// clients can check names without treating it as an error.
func (h *handler) validateCity(c *fiber.Ctx) error {
	q, err := parseCityQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	current, err := h.weather.GetCurrentWeatherByCity(c.UserContext(), q.City)
	if err != nil {
		if errors.Is(err, weather.ErrCityNotFound) {
			return c.JSON(fiber.Map{
				"success": true,
				"valid":   false,
				"message": "City not found",
			})
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to validate city")
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"valid":       true,
		"city":        current.City,
		"country":     current.Country,
		"coordinates": current.Coordinates,
	})
}

func (h *handler) currentWeather(c *fiber.Ctx) error {
	var (
		current weather.CurrentWeather
		err     error
	)

	switch {
	case strings.TrimSpace(c.Query("city")) != "":
		q, perr := parseCityQuery(c)
		if perr != nil {
			return fiber.NewError(fiber.StatusBadRequest, perr.Error())
		}
		current, err = h.weather.GetCurrentWeatherByCity(c.UserContext(), q.City)
	case c.Query("lat") != "" || c.Query("lon") != "":
		q, perr := parseCoordinatesQuery(c)
		if perr != nil {
			return fiber.NewError(fiber.StatusBadRequest, perr.Error())
		}
		current, err = h.weather.GetCurrentWeatherByCoords(c.UserContext(), q.lat, q.lon)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Either city name or coordinates are required")
	}
	if err != nil {
		return weatherError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    current,
	})
}

// recordSearch adds the location to the caller's history when a userId
// query parameter is present. Failures are logged and do not fail the
// weather response.
func (h *handler) recordSearch(c *fiber.Ctx, cityName string, coords weather.Coordinates) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" || cityName == "" || h.prefs == nil {
		return
	}
	if _, err := h.prefs.AddRecentSearch(c.UserContext(), userID, cityName, coords); err != nil {
		h.logger.Warn("failed to record recent search",
			zap.String("user_id", userID), zap.String("city", cityName), zap.Error(err))
	}
}

func bundleMessage(b weather.Bundle) string {
	if b.Cached {
		return "Data from cache"
	}
	return "Fresh data fetched"
}

// weatherError maps weather errors to HTTP errors.
func weatherError(err error) error {
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "City not found. Please check the spelling and try again.")
	case errors.Is(err, weather.ErrUpstreamUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Weather provider is unavailable, please try again later")
	case errors.Is(err, weather.ErrMalformedUpstreamData):
		return fiber.NewError(fiber.StatusBadGateway, "Weather provider returned invalid data")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fiber.NewError(fiber.StatusGatewayTimeout, "Weather request timed out")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch weather data")
	}
}

// coordinatesQuery holds the raw lat/lon query values.
type coordinatesQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`

	lat, lon float64
}

func parseCoordinatesQuery(c *fiber.Ctx) (coordinatesQuery, error) {
	q := coordinatesQuery{
		Lat: strings.TrimSpace(c.Query("lat")),
		Lon: strings.TrimSpace(c.Query("lon")),
	}
	if q.Lat == "" || q.Lon == "" {
		return q, errors.New("Latitude and longitude are required")
	}
	if err := validate.Struct(q); err != nil {
		return q, errors.New("Invalid coordinates")
	}

	var err error
	if q.lat, err = strconv.ParseFloat(q.Lat, 64); err != nil {
		return q, errors.New("Invalid coordinates")
	}
	if q.lon, err = strconv.ParseFloat(q.Lon, 64); err != nil {
		return q, errors.New("Invalid coordinates")
	}
	return q, nil
}

// cityQuery holds the city query parameter.
type cityQuery struct {
	City string `validate:"required,max=100"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	q := cityQuery{City: strings.TrimSpace(c.Query("city"))}
	if q.City == "" {
		return q, errors.New("City name is required")
	}
	if err := validate.Struct(q); err != nil {
		return q, errors.New("Invalid city name")
	}
	return q, nil
}
