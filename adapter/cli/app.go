package cli

import (
	"context"

	internalApp "github.com/felixgeelhaar/preflight/internal/app"
	availabilityServices "github.com/felixgeelhaar/preflight/internal/availability/application/services"
	bookingCommands "github.com/felixgeelhaar/preflight/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/preflight/internal/booking/application/queries"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/commands"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/queries"
	weatherServices "github.com/felixgeelhaar/preflight/internal/weather/application/services"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
)

// WeatherService answers ad-hoc weather questions from the CLI.
type WeatherService interface {
	Observation(ctx context.Context, coord weather.Coordinate) (weather.Observation, error)
	CrossValidated(ctx context.Context, coord weather.Coordinate) (weatherServices.CrossValidation, error)
}

// RouteAssessor validates a route against certification minimums.
type RouteAssessor interface {
	Assess(ctx context.Context, route weather.Route, level weather.CertificationLevel) weatherServices.Assessment
}

// App holds the CLI application dependencies.
type App struct {
	// Booking Command Handlers
	CreateBookingHandler *bookingCommands.CreateBookingHandler
	CancelBookingHandler *bookingCommands.CancelBookingHandler

	// Booking Query Handlers
	GetBookingHandler   *bookingQueries.GetBookingHandler
	ListUpcomingHandler *bookingQueries.ListUpcomingHandler

	// Rescheduling Command Handlers
	ScanConflictsHandler    *commands.ScanConflictsHandler
	GenerateOptionsHandler  *commands.GenerateOptionsHandler
	SubmitPreferenceHandler *commands.SubmitPreferenceHandler
	ConfirmSelectionHandler *commands.ConfirmSelectionHandler

	// Rescheduling Query Handlers
	ListOptionsHandler         *queries.ListOptionsHandler
	GetPreferenceStatusHandler *queries.GetPreferenceStatusHandler
	ListAuditHandler           *queries.ListAuditHandler

	// Availability
	AvailabilityService *availabilityServices.Service

	// Weather
	Weather   WeatherService
	Validator RouteAssessor
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	createBookingHandler *bookingCommands.CreateBookingHandler,
	cancelBookingHandler *bookingCommands.CancelBookingHandler,
	getBookingHandler *bookingQueries.GetBookingHandler,
	listUpcomingHandler *bookingQueries.ListUpcomingHandler,
	scanConflictsHandler *commands.ScanConflictsHandler,
	generateOptionsHandler *commands.GenerateOptionsHandler,
	submitPreferenceHandler *commands.SubmitPreferenceHandler,
	confirmSelectionHandler *commands.ConfirmSelectionHandler,
	listOptionsHandler *queries.ListOptionsHandler,
	getPreferenceStatusHandler *queries.GetPreferenceStatusHandler,
	listAuditHandler *queries.ListAuditHandler,
	availabilityService *availabilityServices.Service,
) *App {
	return &App{
		CreateBookingHandler:       createBookingHandler,
		CancelBookingHandler:       cancelBookingHandler,
		GetBookingHandler:          getBookingHandler,
		ListUpcomingHandler:        listUpcomingHandler,
		ScanConflictsHandler:       scanConflictsHandler,
		GenerateOptionsHandler:     generateOptionsHandler,
		SubmitPreferenceHandler:    submitPreferenceHandler,
		ConfirmSelectionHandler:    confirmSelectionHandler,
		ListOptionsHandler:         listOptionsHandler,
		GetPreferenceStatusHandler: getPreferenceStatusHandler,
		ListAuditHandler:           listAuditHandler,
		AvailabilityService:        availabilityService,
	}
}

// NewAppFromContainer wires every handler the container built.
func NewAppFromContainer(c *internalApp.Container) *App {
	a := NewApp(
		c.CreateBookingHandler,
		c.CancelBookingHandler,
		c.GetBookingHandler,
		c.ListUpcomingHandler,
		c.ScanConflictsHandler,
		c.GenerateOptionsHandler,
		c.SubmitPreferenceHandler,
		c.ConfirmSelectionHandler,
		c.ListOptionsHandler,
		c.GetPreferenceStatusHandler,
		c.ListAuditHandler,
		c.AvailabilityService,
	)
	if c.WeatherGateway != nil && c.WeatherValidator != nil {
		a.SetWeather(c.WeatherGateway, c.WeatherValidator)
	}
	return a
}

// SetWeather wires the weather gateway and route validator.
func (a *App) SetWeather(gateway WeatherService, validator RouteAssessor) {
	a.Weather = gateway
	a.Validator = validator
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
