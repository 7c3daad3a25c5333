// Package server contains the full set of handler functions and routes
// supported by the http api
package server

import (
	"os"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/janskor-cz/identuslabel-sub001/config"
	"github.com/janskor-cz/identuslabel-sub001/pkg/server/framework"
	"github.com/janskor-cz/identuslabel-sub001/pkg/server/middleware"
	"github.com/janskor-cz/identuslabel-sub001/pkg/server/router"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service"
	svcframework "github.com/janskor-cz/identuslabel-sub001/pkg/service/framework"
	"github.com/janskor-cz/identuslabel-sub001/pkg/service/offer"
)

const (
	HealthPrefix      = "/health"
	ReadinessPrefix   = "/readiness"
	V1Prefix          = "/v1"
	CredentialsPrefix = "/credentials"
	StatusPrefix      = "/status"
	ValidationPath    = "/validation"
	DisclosuresPrefix = "/disclosures"
	LevelsPrefix      = "/levels"
	DIDsPrefix        = "/dids"
	OffersPrefix      = "/offers"
	CurrentPath       = "/current"
	AcceptPath        = "/accept"
	DIDChoicePath     = "/did"
	CancelPath        = "/cancel"
	RejectPath        = "/reject"
)

// WalletServer exposes all dependencies needed to run a http server and all its services
type WalletServer struct {
	*config.ServerConfig
	*service.WalletService
	*framework.Server
}

// NewWalletServer does two things: instantiates all services and registers their HTTP bindings
func NewWalletServer(shutdown chan os.Signal, cfg config.WalletCoreConfig, agent offer.Agent, messages offer.MessageStore, callbacks offer.Callbacks) (*WalletServer, error) {
	// creates an HTTP server from the framework, and wrap it to extend it for the wallet core
	engine := setUpEngine(cfg.Server)
	httpServer := framework.NewServer(cfg.Server, engine, shutdown)
	wallet, err := service.InstantiateWalletService(cfg.Services, agent, messages, callbacks)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate wallet service")
	}

	// service-level routers
	engine.GET(HealthPrefix, router.Health)
	engine.GET(ReadinessPrefix, router.Readiness(wallet.GetServices()))

	// register all v1 routers
	v1 := engine.Group(V1Prefix)
	if err = CredentialAPI(v1, wallet.Credential); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate Credential API")
	}
	if err = DisclosureAPI(v1, wallet.Disclosure); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate Disclosure API")
	}
	if err = DecentralizedIdentityAPI(v1, wallet.DID); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate DID API")
	}
	if err = OfferAPI(v1, wallet.Offer); err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate Offer API")
	}

	return &WalletServer{
		Server:        httpServer,
		WalletService: wallet,
		ServerConfig:  &cfg.Server,
	}, nil
}

// setUpEngine creates the gin engine and sets up the middleware based on config
func setUpEngine(cfg config.ServerConfig) *gin.Engine {
	middlewares := gin.HandlersChain{
		gin.Recovery(),
		middleware.Errors(),
		middleware.Logger(logrus.StandardLogger()),
		middleware.Metrics(),
	}
	if cfg.JagerEnabled {
		middlewares = append(middlewares, otelgin.Middleware(config.ServiceName))
	}
	if cfg.EnableAllowAllCORS {
		middlewares = append(middlewares, middleware.CORS())
	}

	// set up engine and middleware
	engine := gin.New()
	engine.Use(middlewares...)

	switch cfg.Environment {
	case config.EnvironmentDev:
		gin.SetMode(gin.DebugMode)
	case config.EnvironmentTest:
		gin.SetMode(gin.TestMode)
	case config.EnvironmentProd:
		gin.SetMode(gin.ReleaseMode)
	}
	return engine
}

// CredentialAPI registers all HTTP routes for the Credential Service
func CredentialAPI(rg *gin.RouterGroup, service svcframework.Service) (err error) {
	credRouter, err := router.NewCredentialRouter(service)
	if err != nil {
		return sdkutil.LoggingErrorMsg(err, "creating credential router")
	}

	// Credentials
	credentialAPI := rg.Group(CredentialsPrefix)
	credentialAPI.PUT("", credRouter.StoreCredential)
	credentialAPI.GET("", credRouter.ListCredentials)
	credentialAPI.GET("/:id", credRouter.GetCredential)
	credentialAPI.PUT(ValidationPath, credRouter.ValidateCredential)
	credentialAPI.DELETE("/:id", credRouter.DeleteCredential)

	// Credential Status
	credentialStatusAPI := credentialAPI.Group(StatusPrefix)
	credentialStatusAPI.GET("/:id", credRouter.GetCredentialStatus)
	credentialStatusAPI.PUT("/:id", credRouter.UpdateCredentialStatus)
	return
}

// DisclosureAPI registers all HTTP routes for the Disclosure Service
func DisclosureAPI(rg *gin.RouterGroup, service svcframework.Service) (err error) {
	disclosureRouter, err := router.NewDisclosureRouter(service)
	if err != nil {
		return sdkutil.LoggingErrorMsg(err, "creating disclosure router")
	}

	disclosureAPI := rg.Group(DisclosuresPrefix)
	disclosureAPI.PUT("", disclosureRouter.CreateDisclosure)
	disclosureAPI.GET(LevelsPrefix+"/:level", disclosureRouter.GetLevelFields)
	return
}

// DecentralizedIdentityAPI registers all HTTP routes for the DID Service
func DecentralizedIdentityAPI(rg *gin.RouterGroup, service svcframework.Service) (err error) {
	didRouter, err := router.NewDIDRouter(service)
	if err != nil {
		return sdkutil.LoggingErrorMsg(err, "creating DID router")
	}

	didAPI := rg.Group(DIDsPrefix)
	didAPI.PUT("", didRouter.CreateDID)
	didAPI.GET("", didRouter.ListDIDs)
	didAPI.GET("/:id", didRouter.GetDID)
	didAPI.DELETE("/:id", didRouter.DeleteDID)
	return
}

// OfferAPI registers all HTTP routes for the Offer Service
func OfferAPI(rg *gin.RouterGroup, service svcframework.Service) (err error) {
	offerRouter, err := router.NewOfferRouter(service)
	if err != nil {
		return sdkutil.LoggingErrorMsg(err, "creating offer router")
	}

	offerAPI := rg.Group(OffersPrefix)
	offerAPI.PUT("", offerRouter.CreateOffer)
	offerAPI.GET("", offerRouter.ListOffers)
	offerAPI.GET(CurrentPath, offerRouter.CurrentOffer)
	offerAPI.GET("/:id", offerRouter.GetOffer)
	offerAPI.PUT("/:id"+AcceptPath, offerRouter.AcceptOffer)
	offerAPI.PUT("/:id"+DIDChoicePath, offerRouter.ChooseDID)
	offerAPI.PUT("/:id"+CancelPath, offerRouter.CancelDIDChoice)
	offerAPI.PUT("/:id"+RejectPath, offerRouter.RejectOffer)
	return
}
