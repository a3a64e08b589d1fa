package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/repository"
	domainService "github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/logger"
)

// --- fakes -----------------------------------------------------------------

type fakeSessionRepo struct {
	bySessionID map[string]*models.LoginSession
	saves       int
	updates     int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{bySessionID: map[string]*models.LoginSession{}}
}

func (r *fakeSessionRepo) Save(ctx context.Context, session *models.LoginSession) error {
	r.saves++
	r.bySessionID[session.SessionID] = session
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *models.LoginSession) error {
	r.updates++
	r.bySessionID[session.SessionID] = session
	return nil
}

func (r *fakeSessionRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.LoginSession, error) {
	return r.bySessionID[sessionID], nil
}

func (r *fakeSessionRepo) FindActiveByUsername(ctx context.Context, username string) ([]*models.LoginSession, error) {
	var out []*models.LoginSession
	for _, s := range r.bySessionID {
		if s.Username == username && s.Status == constants.SessionStatusActive {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeHistoryRepo struct {
	byID  map[string]*models.LoginHistory
	saved []*models.LoginHistory
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{byID: map[string]*models.LoginHistory{}}
}

func (r *fakeHistoryRepo) Save(ctx context.Context, history *models.LoginHistory) error {
	r.byID[history.HistoryID] = history
	r.saved = append(r.saved, history)
	return nil
}

func (r *fakeHistoryRepo) FindByID(ctx context.Context, historyID string) (*models.LoginHistory, error) {
	return r.byID[historyID], nil
}

func (r *fakeHistoryRepo) List(ctx context.Context, filter repository.HistoryFilter) ([]*models.LoginHistory, int64, error) {
	return nil, 0, nil
}

type fakeResultCache struct {
	shared *models.LoginResult
	byOrg  map[constants.OrgEnvironment]*models.LoginResult
	clears int
}

func newFakeResultCache() *fakeResultCache {
	return &fakeResultCache{byOrg: map[constants.OrgEnvironment]*models.LoginResult{}}
}

func (c *fakeResultCache) SetCurrent(ctx context.Context, result *models.LoginResult) error {
	c.shared = result
	c.byOrg[result.OrgType] = result
	return nil
}

func (c *fakeResultCache) Current(ctx context.Context) (*models.LoginResult, error) {
	return c.shared, nil
}

func (c *fakeResultCache) CurrentByOrgType(ctx context.Context, orgType constants.OrgEnvironment) (*models.LoginResult, error) {
	return c.byOrg[orgType], nil
}

func (c *fakeResultCache) ClearCurrent(ctx context.Context, orgType constants.OrgEnvironment) error {
	c.clears++
	c.shared = nil
	delete(c.byOrg, orgType)
	return nil
}

// fakeEncryptor is reversible so auto login can replay what was stored.
type fakeEncryptor struct{}

func (fakeEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return "enc:" + plaintext, nil
}

func (fakeEncryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

type fakeAuditPublisher struct {
	published []*models.LoginHistory
}

func (p *fakeAuditPublisher) PublishLoginAttempt(ctx context.Context, history *models.LoginHistory) error {
	p.published = append(p.published, history)
	return nil
}

func (p *fakeAuditPublisher) Close() error { return nil }

type fakeTokenManager struct {
	registered []string
}

func (m *fakeTokenManager) RegisterToken(ctx context.Context, accessToken string, expireAt time.Time) (*models.Token, error) {
	m.registered = append(m.registered, accessToken)
	return models.NewToken(accessToken, expireAt), nil
}

func (m *fakeTokenManager) ValidateToken(ctx context.Context, accessToken string) (bool, error) {
	return true, nil
}

func (m *fakeTokenManager) RevokeToken(ctx context.Context, accessToken string) (bool, error) {
	return true, nil
}

func (m *fakeTokenManager) BindToken(ctx context.Context, accessToken, deviceID, ip string) error {
	return nil
}

func (m *fakeTokenManager) CheckTokenBinding(ctx context.Context, accessToken, deviceID, ip string) (bool, error) {
	return true, nil
}

type fakeAuthorizeURLProvider struct{}

func (fakeAuthorizeURLProvider) GenerateAuthorizationURL(ctx context.Context, orgType constants.OrgEnvironment, usePKCE bool) (string, string, error) {
	return "https://login.example.com/authorize?state=abc", "abc", nil
}

// fakeStrategy returns a canned result and records what it was called with.
type fakeStrategy struct {
	loginType constants.LoginType
	result    *models.LoginResult
	requests  []*models.LoginRequest
	logouts   []string
}

func (s *fakeStrategy) Login(ctx context.Context, request *models.LoginRequest) *models.LoginResult {
	s.requests = append(s.requests, request)
	return s.result
}

func (s *fakeStrategy) RefreshToken(ctx context.Context, refreshToken string, orgType constants.OrgEnvironment) *models.LoginResult {
	return s.result
}

func (s *fakeStrategy) Logout(ctx context.Context, sessionOrToken string, orgType constants.OrgEnvironment) (bool, error) {
	s.logouts = append(s.logouts, sessionOrToken)
	return true, nil
}

func (s *fakeStrategy) LoginType() constants.LoginType { return s.loginType }

// --- harness ---------------------------------------------------------------

type orchestratorFixture struct {
	orchestrator AuthOrchestrator
	strategy     *fakeStrategy
	sessions     *fakeSessionRepo
	histories    *fakeHistoryRepo
	resultCache  *fakeResultCache
	audit        *fakeAuditPublisher
	tokens       *fakeTokenManager
}

func newFixture(result *models.LoginResult) *orchestratorFixture {
	return newFixtureFor(constants.LoginTypeOAuth2, result)
}

func newFixtureFor(loginType constants.LoginType, result *models.LoginResult) *orchestratorFixture {
	f := &orchestratorFixture{
		strategy:    &fakeStrategy{loginType: loginType, result: result},
		sessions:    newFakeSessionRepo(),
		histories:   newFakeHistoryRepo(),
		resultCache: newFakeResultCache(),
		audit:       &fakeAuditPublisher{},
		tokens:      &fakeTokenManager{},
	}
	f.orchestrator = NewAuthOrchestrator(
		domainService.NewStrategyRegistry(f.strategy),
		f.sessions,
		f.histories,
		f.resultCache,
		fakeEncryptor{},
		f.audit,
		f.tokens,
		fakeAuthorizeURLProvider{},
		logger.NewNopLogger(),
	)
	return f
}

func successfulLoginResult() *models.LoginResult {
	return &models.LoginResult{
		Success:        true,
		LoginType:      constants.LoginTypeOAuth2,
		OrgType:        constants.OrgEnvironmentProduction,
		SessionID:      "00Dsession!abc",
		AccessToken:    "00Dsession!abc",
		InstanceURL:    "https://inst.example.com",
		UserID:         "005123",
		OrganizationID: "00D123",
		TokenType:      "Bearer",
		ExpiresIn:      3600,
		RefreshToken:   "refresh!xyz",
	}
}

// --- tests -----------------------------------------------------------------

func TestOrchestrator_LoginSuccessRecordsEverything(t *testing.T) {
	f := newFixture(successfulLoginResult())

	result := f.orchestrator.Login(context.Background(), &models.LoginRequest{
		LoginType: constants.LoginTypeOAuth2,
		GrantType: constants.GrantTypePassword,
		OrgType:   constants.OrgEnvironmentProduction,
		Username:  "u@x.com",
		Password:  "pw",
	})

	require.True(t, result.Success)

	session := f.sessions.bySessionID["00Dsession!abc"]
	require.NotNil(t, session, "a successful login must persist a session")
	assert.Equal(t, "u@x.com", session.Username)
	assert.Equal(t, constants.SessionStatusActive, session.Status)
	require.NotNil(t, session.ExpireTime)

	cached, err := f.resultCache.Current(context.Background())
	require.NoError(t, err)
	assert.Same(t, result, cached)

	require.Len(t, f.tokens.registered, 1)
	assert.Equal(t, "00Dsession!abc", f.tokens.registered[0])

	require.Len(t, f.histories.saved, 1)
	history := f.histories.saved[0]
	assert.Equal(t, constants.LoginStatusSuccess, history.LoginStatus)
	assert.Equal(t, "005123", history.SfUserID)
	assert.Equal(t, "00Dsession!abc", history.ResultSessionID)
	assert.Equal(t, "Bearer", history.TokenType)
	assert.Equal(t, int64(3600), history.ExpiresIn)
	assert.Equal(t, "enc:pw", history.EncryptedPassword)
	assert.Equal(t, "enc:refresh!xyz", history.EncryptedRefreshToken,
		"the issued refresh token must be stored encrypted")
	assert.Empty(t, history.EncryptedClientSecret)

	require.Len(t, f.audit.published, 1)
	assert.Same(t, history, f.audit.published[0])
}

func TestOrchestrator_LoginFailureRecordsHistoryOnly(t *testing.T) {
	f := newFixture(models.NewFailedResult(constants.ErrCodeOAuth2LoginFailed, "invalid_grant"))

	result := f.orchestrator.Login(context.Background(), &models.LoginRequest{
		LoginType: constants.LoginTypeOAuth2,
		GrantType: constants.GrantTypePassword,
		Username:  "u@x.com",
		Password:  "bad",
	})

	assert.False(t, result.Success)
	assert.Zero(t, f.sessions.saves, "failed logins must not create sessions")
	assert.Nil(t, f.resultCache.shared)
	assert.Empty(t, f.tokens.registered)

	require.Len(t, f.histories.saved, 1)
	history := f.histories.saved[0]
	assert.Equal(t, constants.LoginStatusFailed, history.LoginStatus)
	assert.Equal(t, string(constants.ErrCodeOAuth2LoginFailed), history.ErrorCode)
	require.Len(t, f.audit.published, 1)
}

func TestOrchestrator_LoginNilRequest(t *testing.T) {
	f := newFixture(successfulLoginResult())

	result := f.orchestrator.Login(context.Background(), nil)
	assert.False(t, result.Success)
	assert.Equal(t, string(constants.ErrCodeInvalidRequest), result.ErrorCode)
	assert.Empty(t, f.histories.saved)
}

func TestOrchestrator_LoginUnknownTypeStillRecordsHistory(t *testing.T) {
	f := newFixture(successfulLoginResult())

	result := f.orchestrator.Login(context.Background(), &models.LoginRequest{
		LoginType: "kerberos",
	})

	assert.False(t, result.Success)
	assert.Equal(t, string(constants.ErrCodeUnsupportedLoginType), result.ErrorCode)
	assert.Empty(t, f.strategy.requests, "no strategy may be invoked")
	require.Len(t, f.histories.saved, 1)
	assert.Equal(t, constants.LoginStatusFailed, f.histories.saved[0].LoginStatus)
}

func TestOrchestrator_LoginCapturesClientMetadata(t *testing.T) {
	f := newFixture(successfulLoginResult())

	ctx := context.WithValue(context.Background(), constants.ContextKeyClientIP, "203.0.113.9")
	ctx = context.WithValue(ctx, constants.ContextKeyClientPort, "51534")
	ctx = context.WithValue(ctx, constants.ContextKeyOperator, "ops-user")
	ctx = context.WithValue(ctx, constants.ContextKeyUserAgent,
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/126.0 Safari/537.36")

	f.orchestrator.Login(ctx, &models.LoginRequest{
		LoginType: constants.LoginTypeOAuth2,
		GrantType: constants.GrantTypePassword,
		Username:  "u@x.com",
		Password:  "pw",
	})

	require.Len(t, f.histories.saved, 1)
	history := f.histories.saved[0]
	assert.Equal(t, "203.0.113.9", history.LoginIP)
	assert.Equal(t, "51534", history.LoginPort)
	assert.Equal(t, "ops-user", history.Operator)
	assert.NotEmpty(t, history.Browser)
	assert.NotEmpty(t, history.OS)

	session := f.sessions.bySessionID["00Dsession!abc"]
	require.NotNil(t, session)
	assert.Equal(t, "203.0.113.9", session.LoginIP)
	assert.NotEmpty(t, session.DeviceInfo)
}

func TestOrchestrator_AutoLoginReplaysStoredCredentials(t *testing.T) {
	f := newFixture(successfulLoginResult())
	ctx := context.Background()

	first := f.orchestrator.Login(ctx, &models.LoginRequest{
		LoginType:     constants.LoginTypeOAuth2,
		GrantType:     constants.GrantTypePassword,
		Username:      "u@x.com",
		Password:      "pw",
		SecurityToken: "tok",
	})
	require.True(t, first.Success)
	historyID := f.histories.saved[0].HistoryID

	replay := f.orchestrator.AutoLogin(ctx, historyID)
	require.True(t, replay.Success)

	require.Len(t, f.strategy.requests, 2)
	replayed := f.strategy.requests[1]
	assert.Equal(t, "u@x.com", replayed.Username)
	assert.Equal(t, "pw", replayed.Password, "stored credentials must be decrypted for replay")
	assert.Equal(t, "tok", replayed.SecurityToken)
	assert.Equal(t, constants.GrantTypePassword, replayed.GrantType)

	// The replay appends its own history row.
	assert.Len(t, f.histories.saved, 2)
}

func TestOrchestrator_AutoLoginReplaysSessionIDLogin(t *testing.T) {
	result := successfulLoginResult()
	result.LoginType = constants.LoginTypeSessionID
	f := newFixtureFor(constants.LoginTypeSessionID, result)
	ctx := context.Background()

	first := f.orchestrator.Login(ctx, &models.LoginRequest{
		LoginType: constants.LoginTypeSessionID,
		OrgType:   constants.OrgEnvironmentProduction,
		SessionID: "00Dexternal!session",
	})
	require.True(t, first.Success)

	history := f.histories.saved[0]
	assert.Equal(t, "enc:00Dexternal!session", history.EncryptedSessionID,
		"the request session id must be stored encrypted")

	replay := f.orchestrator.AutoLogin(ctx, history.HistoryID)
	require.True(t, replay.Success)

	require.Len(t, f.strategy.requests, 2)
	replayed := f.strategy.requests[1]
	assert.Equal(t, constants.LoginTypeSessionID, replayed.LoginType)
	assert.Equal(t, "00Dexternal!session", replayed.SessionID,
		"the stored session id must be decrypted for replay")
}

func TestOrchestrator_AutoLoginValidation(t *testing.T) {
	f := newFixture(successfulLoginResult())
	ctx := context.Background()

	result := f.orchestrator.AutoLogin(ctx, "")
	assert.Equal(t, string(constants.ErrCodeHistoryIDEmpty), result.ErrorCode)

	result = f.orchestrator.AutoLogin(ctx, "missing-id")
	assert.Equal(t, string(constants.ErrCodeHistoryNotFound), result.ErrorCode)
	assert.Empty(t, f.strategy.requests)
}

func TestOrchestrator_AutoLoginRejectsFailedHistory(t *testing.T) {
	f := newFixture(models.NewFailedResult(constants.ErrCodeOAuth2LoginFailed, "invalid_grant"))
	ctx := context.Background()

	f.orchestrator.Login(ctx, &models.LoginRequest{
		LoginType: constants.LoginTypeOAuth2,
		GrantType: constants.GrantTypePassword,
		Username:  "u@x.com",
		Password:  "bad",
	})
	historyID := f.histories.saved[0].HistoryID

	result := f.orchestrator.AutoLogin(ctx, historyID)
	assert.Equal(t, string(constants.ErrCodeHistoryStatusInvalid), result.ErrorCode)
	require.Len(t, f.strategy.requests, 1, "a failed row must not be replayed")
}

func TestOrchestrator_LogoutClearsCacheAndDeactivatesSession(t *testing.T) {
	f := newFixture(successfulLoginResult())
	ctx := context.Background()

	f.orchestrator.Login(ctx, &models.LoginRequest{
		LoginType: constants.LoginTypeOAuth2,
		GrantType: constants.GrantTypePassword,
		Username:  "u@x.com",
		Password:  "pw",
	})

	ok, err := f.orchestrator.Logout(ctx, "00Dsession!abc", constants.LoginTypeOAuth2, constants.OrgEnvironmentProduction)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Nil(t, f.resultCache.shared)
	assert.Equal(t, []string{"00Dsession!abc"}, f.strategy.logouts)
	assert.Equal(t, constants.SessionStatusInactive, f.sessions.bySessionID["00Dsession!abc"].Status)
}

func TestOrchestrator_LogoutRequiresSessionID(t *testing.T) {
	f := newFixture(successfulLoginResult())

	ok, err := f.orchestrator.Logout(context.Background(), "", constants.LoginTypeOAuth2, "")
	assert.False(t, ok)
	require.Error(t, err)
}

func TestOrchestrator_LogoutUnknownSessionStillSucceeds(t *testing.T) {
	f := newFixture(successfulLoginResult())

	ok, err := f.orchestrator.Logout(context.Background(), "never-seen", constants.LoginTypeOAuth2, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.resultCache.clears)
}

func TestOrchestrator_GetCurrentLoginInfoTouchesUsableSession(t *testing.T) {
	f := newFixture(successfulLoginResult())
	ctx := context.Background()

	f.orchestrator.Login(ctx, &models.LoginRequest{
		LoginType: constants.LoginTypeOAuth2,
		GrantType: constants.GrantTypePassword,
		Username:  "u@x.com",
		Password:  "pw",
	})

	before := f.sessions.bySessionID["00Dsession!abc"].LastActivityTime

	session, err := f.orchestrator.GetCurrentLoginInfo(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, constants.SessionStatusActive, session.Status)
	assert.False(t, session.LastActivityTime.Before(before))
	assert.GreaterOrEqual(t, f.sessions.updates, 1)
}

func TestOrchestrator_GetCurrentLoginInfoFlipsExpiredSession(t *testing.T) {
	f := newFixture(successfulLoginResult())
	ctx := context.Background()

	f.orchestrator.Login(ctx, &models.LoginRequest{
		LoginType: constants.LoginTypeOAuth2,
		GrantType: constants.GrantTypePassword,
		Username:  "u@x.com",
		Password:  "pw",
	})

	past := time.Now().UTC().Add(-time.Minute)
	f.sessions.bySessionID["00Dsession!abc"].ExpireTime = &past

	session, err := f.orchestrator.GetCurrentLoginInfo(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, constants.SessionStatusExpired, session.Status)
	assert.Equal(t, constants.SessionStatusExpired, f.sessions.bySessionID["00Dsession!abc"].Status)
}

func TestOrchestrator_GetCurrentLoginInfoEmptyCache(t *testing.T) {
	f := newFixture(successfulLoginResult())

	session, err := f.orchestrator.GetCurrentLoginInfo(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestOrchestrator_CurrentResultSlots(t *testing.T) {
	f := newFixture(successfulLoginResult())
	ctx := context.Background()

	f.orchestrator.Login(ctx, &models.LoginRequest{
		LoginType: constants.LoginTypeOAuth2,
		GrantType: constants.GrantTypePassword,
		Username:  "u@x.com",
		Password:  "pw",
	})

	shared, err := f.orchestrator.GetCurrentLoginResult(ctx)
	require.NoError(t, err)
	require.NotNil(t, shared)

	byOrg, err := f.orchestrator.GetCurrentLoginResultByOrgType(ctx, constants.OrgEnvironmentProduction)
	require.NoError(t, err)
	assert.Same(t, shared, byOrg)

	other, err := f.orchestrator.GetCurrentLoginResultByOrgType(ctx, constants.OrgEnvironmentSandbox)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestOrchestrator_GenerateAuthorizationURLDelegates(t *testing.T) {
	f := newFixture(successfulLoginResult())

	url, state, err := f.orchestrator.GenerateAuthorizationURL(context.Background(), "", true)
	require.NoError(t, err)
	assert.Equal(t, "abc", state)
	assert.Contains(t, url, "state=abc")
}
