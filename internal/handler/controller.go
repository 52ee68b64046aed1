package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roomy-listing/internal/service"
	"roomy-listing/pkg/airbnb"
	"roomy-listing/pkg/logger"
	"roomy-listing/pkg/metadata"
)

const (
	ServiceName = "roomy-listing"
	Version     = "1.0.0"
)

type Controller struct {
	listings service.ListingService
	log      *logger.Logger
}

type ControllerConfig struct {
	Listings      service.ListingService
	Logger        *logger.Logger
	EnableMetrics bool
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type BuildResponse struct {
	URL string `json:"url"`
}

type urlRequest struct {
	URL string `json:"url"`
}

func NewController(listings service.ListingService, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Controller{listings: listings, log: log.WithComponent("http")}
}

// NewApp builds the Fiber application with middleware and routes
func NewApp(config ControllerConfig) *fiber.App {
	ctrl := NewController(config.Listings, config.Logger)

	app := fiber.New(fiber.Config{
		AppName:               ServiceName,
		DisableStartupMessage: true,
		ErrorHandler:          ctrl.handleError,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(accessLog(ctrl.log))

	app.Get("/health", ctrl.Health)
	if config.EnableMetrics {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := app.Group("/api/airbnb")
	api.Post("/parse", ctrl.Parse)
	api.Post("/metadata", ctrl.Metadata)
	api.Get("/build", ctrl.Build)

	return app
}

func (ctrl *Controller) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok", Service: ServiceName, Version: Version})
}

func (ctrl *Controller) Parse(c *fiber.Ctx) error {
	req, err := bindURLRequest(c)
	if err != nil {
		return badRequest(c)
	}

	resp := ctrl.listings.Parse(req.URL)
	if !resp.Success {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return c.JSON(resp)
}

func (ctrl *Controller) Metadata(c *fiber.Ctx) error {
	req, err := bindURLRequest(c)
	if err != nil {
		return badRequest(c)
	}

	resp := ctrl.listings.Lookup(c.UserContext(), req.URL)
	return c.Status(lookupStatus(resp)).JSON(resp)
}

func (ctrl *Controller) Build(c *fiber.Ctx) error {
	listingID := strings.TrimSpace(c.Query("listingId"))
	if listingID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse(airbnb.NewParseError(airbnb.ErrCodeNoListingID)))
	}
	return c.JSON(BuildResponse{URL: airbnb.BuildURL(listingID, c.Query("locale"))})
}

func (ctrl *Controller) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		ctrl.log.WithError(err).WithField("path", c.Path()).Error("Request failed")
	}
	name := strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(code), " ", "_"))
	return c.Status(code).JSON(fiber.Map{"error": fiber.Map{"code": name, "message": err.Error()}})
}

func bindURLRequest(c *fiber.Ctx) (*urlRequest, error) {
	var req urlRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// badRequest answers malformed bodies the same way as an unparseable URL
func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse(airbnb.NewParseError(airbnb.ErrCodeInvalidURL)))
}

func errorResponse(pe *airbnb.ParseError) service.ParseResponse {
	return service.ParseResponse{
		Success: false,
		Error:   &service.ErrorBody{Code: string(pe.Code), Message: pe.Message},
	}
}

func lookupStatus(resp *service.LookupResponse) int {
	if resp.Success {
		return fiber.StatusOK
	}
	if resp.Error == nil {
		return fiber.StatusBadGateway
	}
	switch resp.Error.Code {
	case string(airbnb.ErrCodeInvalidURL), string(airbnb.ErrCodeNotAirbnbURL), string(airbnb.ErrCodeNoListingID):
		return fiber.StatusBadRequest
	case string(metadata.ErrCodeTimeout):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusBadGateway
	}
}
