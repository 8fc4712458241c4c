package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"homecare/internal/intake"
	"homecare/internal/store"
	"homecare/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

// Intake accepts new submissions.
type Intake interface {
	Submit(ctx context.Context, categoryID int, p intake.Payload, ownerUserID string) (*types.ServiceRequest, error)
}

// Lifecycle applies the admin actions on persisted requests.
type Lifecycle interface {
	ChangeStatus(ctx context.Context, requestID string, target types.RequestStatus) (*types.ServiceRequest, error)
	AssignNurse(ctx context.Context, requestID, nurseID string) (*types.ServiceRequest, error)
	ApplyDiscount(ctx context.Context, requestID string, pct float64) (*types.ServiceRequest, error)
	Update(ctx context.Context, requestID string, fields map[string]any) (*types.ServiceRequest, error)
	SoftDelete(ctx context.Context, requestID string) error
	Restore(ctx context.Context, requestID string) (*types.ServiceRequest, error)
}

type RequestReader interface {
	Request(ctx context.Context, requestID string) (*types.ServiceRequest, error)
	RequestsByUser(ctx context.Context, userID string) ([]*types.ServiceRequest, error)
	Requests(ctx context.Context, filter store.RequestFilter) ([]*types.ServiceRequest, error)
}

type AddressStore interface {
	AddressesByUserID(ctx context.Context, userID string) ([]*types.UserAddress, error)
	Create(ctx context.Context, address *types.UserAddress) error
	SetPrimaryByID(ctx context.Context, userID, addressID string) error
}

type CategoryReader interface {
	AllCategories(ctx context.Context) ([]*types.RequestCategory, error)
}

// FileStore turns raw uploads into stored object keys.
type FileStore interface {
	Store(ctx context.Context, prefix string, header *multipart.FileHeader, allowed []string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Authenticator interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

// KeySource resolves the signing keys for access tokens. *jwk.Cache
// satisfies it.
type KeySource interface {
	Lookup(ctx context.Context, u string) (jwk.Set, error)
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	intake     Intake
	lifecycle  Lifecycle
	requests   RequestReader
	addresses  AddressStore
	categories CategoryReader
	files      FileStore

	cognito Authenticator
	cookie  *securecookie.SecureCookie

	keys    KeySource
	jwksURL string

	handler http.Handler
	server  *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	cognito Authenticator,
	intakeService Intake,
	lifecycleService Lifecycle,
	requests RequestReader,
	addresses AddressStore,
	categories CategoryReader,
	files FileStore,
	keys KeySource,
	jwksURL string,
) (*Service, error) {
	mux := flow.New()

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cookie hash key: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cookie block key: %w", err)
	}

	s := &Service{
		logger: logger,
		config: config,

		intake:     intakeService,
		lifecycle:  lifecycleService,
		requests:   requests,
		addresses:  addresses,
		categories: categories,
		files:      files,

		cognito: cognito,
		cookie:  securecookie.New(hashKey, blockKey),

		keys:    keys,
		jwksURL: jwksURL,

		handler: mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler for in-process use.
func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)
	r.HandleFunc("/categories", s.handleGetCategories, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/requests", s.handleGetRequests, http.MethodGet)
		r.HandleFunc("/requests/:categoryID", s.handlePostRequest, http.MethodPost)
		r.HandleFunc("/requests/:id", s.handleGetRequest, http.MethodGet)

		r.HandleFunc("/addresses", s.handleGetAddresses, http.MethodGet)
		r.HandleFunc("/addresses", s.handlePostAddress, http.MethodPost)
		r.HandleFunc("/addresses/:id/primary", s.handlePostAddressPrimary, http.MethodPost)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireAdmin)

			r.HandleFunc("/admin/requests", s.handleAdminGetRequests, http.MethodGet)
			r.HandleFunc("/admin/requests/:id", s.handleAdminPatchRequest, http.MethodPatch)
			r.HandleFunc("/admin/requests/:id", s.handleAdminDeleteRequest, http.MethodDelete)
			r.HandleFunc("/admin/requests/:id/status", s.handleAdminPostStatus, http.MethodPost)
			r.HandleFunc("/admin/requests/:id/assign", s.handleAdminPostAssign, http.MethodPost)
			r.HandleFunc("/admin/requests/:id/discount", s.handleAdminPostDiscount, http.MethodPost)
			r.HandleFunc("/admin/requests/:id/restore", s.handleAdminPostRestore, http.MethodPost)
		})
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) userIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(contextKeyUserID).(string)
	if !ok {
		return "", fmt.Errorf("user id not found in context")
	}
	return userID, nil
}

func isAdminFromContext(ctx context.Context) bool {
	admin, _ := ctx.Value(contextKeyAdmin).(bool)
	return admin
}
