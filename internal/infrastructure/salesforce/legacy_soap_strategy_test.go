package salesforce

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sfauth/internal/config"
	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/logger"
)

func providerFor(serverURL string) ConfigProvider {
	return func() config.SalesforceConfig {
		return config.SalesforceConfig{
			OrgEnvironment: string(constants.OrgEnvironmentCustom),
			CustomEndpoint: serverURL,
		}
	}
}

func legacyRequest() *models.LoginRequest {
	return &models.LoginRequest{
		LoginType:     constants.LoginTypeLegacyCredential,
		Username:      "u@x.com",
		Password:      "pw",
		SecurityToken: "tok",
	}
}

func TestLegacySoapStrategy_LoginSuccess(t *testing.T) {
	var gotPath, gotAction, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAction = r.Header.Get("SOAPAction")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(loginResponseXML))
	}))
	defer server.Close()

	s := NewLegacySoapStrategy(providerFor(server.URL), logger.NewNopLogger())
	result := s.Login(context.Background(), legacyRequest())

	require.True(t, result.Success, "error: %s %s", result.ErrorCode, result.ErrorMessage)
	assert.Equal(t, "/services/Soap/u/"+constants.DefaultAPIVersion, gotPath)
	assert.Equal(t, `""`, gotAction)
	assert.Contains(t, gotBody, "<n1:username>u@x.com</n1:username>")
	assert.Contains(t, gotBody, "<n1:password>pwtok</n1:password>")

	assert.Equal(t, "00D1230000abcde!AQ4AQFake", result.SessionID)
	assert.Equal(t, result.SessionID, result.AccessToken)
	assert.Equal(t, "https://inst.example.com", result.InstanceURL)
	assert.Equal(t, "005123000011122", result.UserID)
	assert.Equal(t, constants.LoginTypeLegacyCredential, result.LoginType)
	assert.Equal(t, constants.OrgEnvironment(""), result.OrgType)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, int64(constants.DefaultSessionTimeoutSeconds), result.ExpiresIn)
}

func TestLegacySoapStrategy_LoginValidation(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	s := NewLegacySoapStrategy(providerFor(server.URL), logger.NewNopLogger())

	request := legacyRequest()
	request.Username = "  "
	result := s.Login(context.Background(), request)
	assert.False(t, result.Success)
	assert.Equal(t, string(constants.ErrCodeMissingUsername), result.ErrorCode)

	request = legacyRequest()
	request.Password = ""
	result = s.Login(context.Background(), request)
	assert.False(t, result.Success)
	assert.Equal(t, string(constants.ErrCodeMissingPassword), result.ErrorCode)

	assert.False(t, called, "validation failures must not reach the org")
}

func TestLegacySoapStrategy_LoginFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(invalidLoginFaultXML))
	}))
	defer server.Close()

	s := NewLegacySoapStrategy(providerFor(server.URL), logger.NewNopLogger())
	result := s.Login(context.Background(), legacyRequest())

	assert.False(t, result.Success)
	assert.Equal(t, "INVALID_LOGIN", result.ErrorCode)
	assert.Equal(t, soapFaultMessages["INVALID_LOGIN"], result.ErrorMessage)
}

func TestLegacySoapStrategy_FaultWith2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(invalidLoginFaultXML))
	}))
	defer server.Close()

	s := NewLegacySoapStrategy(providerFor(server.URL), logger.NewNopLogger())
	result := s.Login(context.Background(), legacyRequest())

	assert.False(t, result.Success)
	assert.Equal(t, "INVALID_LOGIN", result.ErrorCode)
}

func TestLegacySoapStrategy_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	s := NewLegacySoapStrategy(providerFor(url), logger.NewNopLogger())
	result := s.Login(context.Background(), legacyRequest())

	assert.False(t, result.Success)
	assert.Equal(t, string(constants.ErrCodeSystemError), result.ErrorCode)
}

func TestLegacySoapStrategy_CustomEndpointMissing(t *testing.T) {
	provider := func() config.SalesforceConfig {
		return config.SalesforceConfig{OrgEnvironment: string(constants.OrgEnvironmentCustom)}
	}

	s := NewLegacySoapStrategy(provider, logger.NewNopLogger())
	result := s.Login(context.Background(), legacyRequest())

	assert.False(t, result.Success)
	assert.Equal(t, string(constants.ErrCodeCustomEndpointMissing), result.ErrorCode)
}

func TestLegacySoapStrategy_PreresolvedSoapBase(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(loginResponseXML))
	}))
	defer server.Close()

	s := NewLegacySoapStrategy(providerFor(server.URL+"/services/Soap/u/60.0"), logger.NewNopLogger())
	result := s.Login(context.Background(), legacyRequest())

	require.True(t, result.Success)
	assert.Equal(t, "/services/Soap/u/60.0", gotPath, "an explicit Soap path must be used as-is")
}

func TestLegacySoapStrategy_RefreshNotSupported(t *testing.T) {
	s := NewLegacySoapStrategy(providerFor("http://unused"), logger.NewNopLogger())
	result := s.RefreshToken(context.Background(), "anything", constants.OrgEnvironmentProduction)

	assert.False(t, result.Success)
	assert.Equal(t, string(constants.ErrCodeRefreshNotSupported), result.ErrorCode)
}

func TestLegacySoapStrategy_Logout(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`<Envelope><Body><logoutResponse/></Body></Envelope>`))
	}))
	defer server.Close()

	s := NewLegacySoapStrategy(providerFor(server.URL), logger.NewNopLogger())
	ok, err := s.Logout(context.Background(), "00Dsession", constants.OrgEnvironmentCustom)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, strings.Contains(gotBody, "<n1:sessionId>00Dsession</n1:sessionId>"))
}

func TestLegacySoapStrategy_LogoutFaultIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(invalidLoginFaultXML))
	}))
	defer server.Close()

	s := NewLegacySoapStrategy(providerFor(server.URL), logger.NewNopLogger())
	ok, err := s.Logout(context.Background(), "00Dsession", constants.OrgEnvironmentCustom)

	require.NoError(t, err)
	assert.False(t, ok)
}
