package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"homecare/internal/intake"
	"homecare/internal/store"
	"homecare/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJWKSURL = "https://issuer.test/.well-known/jwks.json"

var (
	signingKeyOnce sync.Once
	signingKey     jwk.Key
	publicKeys     jwk.Set
)

func testKeys(t *testing.T) (jwk.Key, jwk.Set) {
	t.Helper()

	signingKeyOnce.Do(func() {
		raw, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}

		key, err := jwk.Import(raw)
		if err != nil {
			panic(err)
		}
		_ = key.Set(jwk.KeyIDKey, "test-key")
		_ = key.Set(jwk.AlgorithmKey, jwa.RS256())

		public, err := jwk.PublicKeyOf(key)
		if err != nil {
			panic(err)
		}

		set := jwk.NewSet()
		_ = set.AddKey(public)

		signingKey = key
		publicKeys = set
	})

	return signingKey, publicKeys
}

func signToken(t *testing.T, subject string, groups ...string) string {
	t.Helper()

	key, _ := testKeys(t)

	builder := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour))
	if len(groups) > 0 {
		builder = builder.Claim("cognito:groups", groups)
	}

	token, err := builder.Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256(), key))
	require.NoError(t, err)

	return string(signed)
}

type staticKeys struct {
	set jwk.Set
}

func (k staticKeys) Lookup(context.Context, string) (jwk.Set, error) {
	return k.set, nil
}

type mockIntake struct {
	mock.Mock
}

func (m *mockIntake) Submit(ctx context.Context, categoryID int, p intake.Payload, ownerUserID string) (*types.ServiceRequest, error) {
	args := m.Called(ctx, categoryID, p, ownerUserID)
	request, _ := args.Get(0).(*types.ServiceRequest)
	return request, args.Error(1)
}

type mockLifecycle struct {
	mock.Mock
}

func (m *mockLifecycle) ChangeStatus(ctx context.Context, requestID string, target types.RequestStatus) (*types.ServiceRequest, error) {
	args := m.Called(ctx, requestID, target)
	request, _ := args.Get(0).(*types.ServiceRequest)
	return request, args.Error(1)
}

func (m *mockLifecycle) AssignNurse(ctx context.Context, requestID, nurseID string) (*types.ServiceRequest, error) {
	args := m.Called(ctx, requestID, nurseID)
	request, _ := args.Get(0).(*types.ServiceRequest)
	return request, args.Error(1)
}

func (m *mockLifecycle) ApplyDiscount(ctx context.Context, requestID string, pct float64) (*types.ServiceRequest, error) {
	args := m.Called(ctx, requestID, pct)
	request, _ := args.Get(0).(*types.ServiceRequest)
	return request, args.Error(1)
}

func (m *mockLifecycle) Update(ctx context.Context, requestID string, fields map[string]any) (*types.ServiceRequest, error) {
	args := m.Called(ctx, requestID, fields)
	request, _ := args.Get(0).(*types.ServiceRequest)
	return request, args.Error(1)
}

func (m *mockLifecycle) SoftDelete(ctx context.Context, requestID string) error {
	return m.Called(ctx, requestID).Error(0)
}

func (m *mockLifecycle) Restore(ctx context.Context, requestID string) (*types.ServiceRequest, error) {
	args := m.Called(ctx, requestID)
	request, _ := args.Get(0).(*types.ServiceRequest)
	return request, args.Error(1)
}

type memoryRequests struct {
	requests map[string]*types.ServiceRequest
	filters  []store.RequestFilter
}

func (m *memoryRequests) Request(_ context.Context, requestID string) (*types.ServiceRequest, error) {
	request, ok := m.requests[requestID]
	if !ok {
		return nil, types.ErrRequestNotFound
	}
	return request, nil
}

func (m *memoryRequests) RequestsByUser(_ context.Context, userID string) ([]*types.ServiceRequest, error) {
	var out []*types.ServiceRequest
	for _, request := range m.requests {
		if request.UserID == userID && request.DeletedAt == nil {
			out = append(out, request)
		}
	}
	return out, nil
}

func (m *memoryRequests) Requests(_ context.Context, filter store.RequestFilter) ([]*types.ServiceRequest, error) {
	m.filters = append(m.filters, filter)
	return nil, nil
}

type memoryAddresses struct {
	created []*types.UserAddress
	primary map[string]string
}

func (m *memoryAddresses) AddressesByUserID(context.Context, string) ([]*types.UserAddress, error) {
	return m.created, nil
}

func (m *memoryAddresses) Create(_ context.Context, address *types.UserAddress) error {
	address.ID = "addr_1"
	m.created = append(m.created, address)
	return nil
}

func (m *memoryAddresses) SetPrimaryByID(_ context.Context, userID, addressID string) error {
	if addressID != "addr_1" {
		return types.ErrAddressNotFound
	}
	if m.primary == nil {
		m.primary = make(map[string]string)
	}
	m.primary[userID] = addressID
	return nil
}

type staticCategories []*types.RequestCategory

func (c staticCategories) AllCategories(context.Context) ([]*types.RequestCategory, error) {
	return c, nil
}

// fakeFiles stores every upload under prefix/filename unless storeErr is set.
type fakeFiles struct {
	storeErr error
	allowed  [][]string
	stored   []string
	deleted  []string
}

func (f *fakeFiles) Store(_ context.Context, prefix string, header *multipart.FileHeader, allowed []string) (string, error) {
	f.allowed = append(f.allowed, allowed)
	if f.storeErr != nil {
		return "", f.storeErr
	}
	key := prefix + "/" + header.Filename
	f.stored = append(f.stored, key)
	return key, nil
}

func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeCognito struct {
	token string
	err   error
	input *cognitoidentityprovider.InitiateAuthInput
}

func (f *fakeCognito) InitiateAuth(_ context.Context, params *cognitoidentityprovider.InitiateAuthInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &cognitotypes.AuthenticationResultType{
			AccessToken: aws.String(f.token),
			ExpiresIn:   3600,
			TokenType:   aws.String("Bearer"),
		},
	}, nil
}

type serverFixture struct {
	service   *Service
	intake    *mockIntake
	lifecycle *mockLifecycle
	requests  *memoryRequests
	addresses *memoryAddresses
	files     *fakeFiles
	cognito   *fakeCognito
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	_, set := testKeys(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	config := &types.Config{
		ServerPort:      8080,
		CognitoClientID: "client",
		AdminGroup:      "admins",
		UploadMaxBytes:  1 << 20,
		CookieHashKey:   base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("h"), 32)),
		CookieBlockKey:  base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("b"), 32)),
	}

	f := &serverFixture{
		intake:    &mockIntake{},
		lifecycle: &mockLifecycle{},
		requests:  &memoryRequests{requests: make(map[string]*types.ServiceRequest)},
		addresses: &memoryAddresses{},
		files:     &fakeFiles{},
		cognito:   &fakeCognito{},
	}

	service, err := New(
		config,
		logger,
		f.cognito,
		f.intake,
		f.lifecycle,
		f.requests,
		f.addresses,
		staticCategories{{ID: types.CategoryRays, Name: "Rays", Slug: "rays"}},
		f.files,
		staticKeys{set: set},
		testJWKSURL,
	)
	require.NoError(t, err)
	f.service = service

	return f
}

func (f *serverFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.service.Handler().ServeHTTP(rec, req)
	return rec
}

func authed(t *testing.T, req *http.Request, subject string, groups ...string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+signToken(t, subject, groups...))
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
