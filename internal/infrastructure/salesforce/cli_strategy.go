package salesforce

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/logger"
)

// Output field patterns. The CLI output is treated as loosely structured
// text rather than strict JSON; field order and wrapping vary across CLI
// versions.
var (
	cliInstanceURLPattern = regexp.MustCompile(`instanceUrl.*?:.*?"(.*?)"`)
	cliAccessTokenPattern = regexp.MustCompile(`accessToken.*?:.*?"(.*?)"`)
	cliTokenPattern       = regexp.MustCompile(`token.*?:.*?"(.*?)"`)
	cliOrgIDPattern       = regexp.MustCompile(`orgId.*?:.*?"(.*?)"`)
	cliUserIDPattern      = regexp.MustCompile(`userId.*?:.*?"(.*?)"`)
)

// CliDelegateStrategy delegates authentication to the locally installed
// Salesforce CLI, reading the session of an org the operator already
// authorized with "sf org login".
type CliDelegateStrategy struct {
	cfg ConfigProvider
	log logger.Logger
}

var _ service.LoginStrategy = (*CliDelegateStrategy)(nil)

// NewCliDelegateStrategy creates the CLI delegation strategy.
func NewCliDelegateStrategy(cfg ConfigProvider, log logger.Logger) *CliDelegateStrategy {
	return &CliDelegateStrategy{
		cfg: cfg,
		log: log.WithComponent("cli_strategy"),
	}
}

// LoginType returns the registry key of this strategy.
func (s *CliDelegateStrategy) LoginType() constants.LoginType {
	return constants.LoginTypeCLI
}

// Login runs "sf org display" and extracts the session from its output.
func (s *CliDelegateStrategy) Login(ctx context.Context, request *models.LoginRequest) *models.LoginResult {
	binary := s.binary()

	if err := s.checkInstalled(ctx, binary); err != nil {
		return models.NewFailedResult(constants.ErrCodeCLINotInstalled, "Salesforce CLI not installed: "+err.Error())
	}

	args := []string{"org", "display", "--json"}
	if strings.TrimSpace(request.OrgAlias) != "" {
		args = []string{"org", "display", "--alias", request.OrgAlias, "--json"}
	}

	output, err := s.run(ctx, binary, args...)
	if err != nil {
		s.log.Error(ctx, "Salesforce CLI command failed", err, logger.String("binary", binary))
		return models.NewFailedResult(constants.ErrCodeCLICommandFailed, err.Error())
	}

	result, parseErr := s.parseOutput(output)
	if parseErr != nil {
		return models.NewFailedResult(constants.ErrCodeCLIParseError, parseErr.Error())
	}

	result.LoginType = constants.LoginTypeCLI
	result.OrgType = request.OrgType

	s.log.Info(ctx, "CLI login succeeded",
		logger.String("org_alias", request.OrgAlias),
		logger.String("instance_url", result.InstanceURL),
	)
	return result
}

// RefreshToken re-reads the CLI session; the CLI refreshes its own tokens on
// use, so a fresh display reflects the renewed session.
func (s *CliDelegateStrategy) RefreshToken(ctx context.Context, refreshToken string, orgType constants.OrgEnvironment) *models.LoginResult {
	binary := s.binary()

	output, err := s.run(ctx, binary, "org", "display", "--json")
	if err != nil {
		return models.NewFailedResult(constants.ErrCodeCLIRefreshFailed, err.Error())
	}

	result, parseErr := s.parseOutput(output)
	if parseErr != nil {
		return models.NewFailedResult(constants.ErrCodeCLIParseError, parseErr.Error())
	}

	result.LoginType = constants.LoginTypeCLI
	result.OrgType = orgType
	return result
}

// Logout asks the CLI to drop its stored org authorization.
func (s *CliDelegateStrategy) Logout(ctx context.Context, sessionOrToken string, orgType constants.OrgEnvironment) (bool, error) {
	if _, err := s.run(ctx, s.binary(), "org", "logout", "--json", "--no-prompt"); err != nil {
		s.log.Warn(ctx, "CLI logout failed", logger.Err(err))
		return false, nil
	}
	return true, nil
}

func (s *CliDelegateStrategy) binary() string {
	if b := s.cfg().CLIBinary; b != "" {
		return b
	}
	return "sf"
}

func (s *CliDelegateStrategy) checkInstalled(ctx context.Context, binary string) error {
	_, err := s.run(ctx, binary, "--version")
	return err
}

// run executes the CLI with stderr folded into stdout and a hard time box.
func (s *CliDelegateStrategy) run(ctx context.Context, binary string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CLITimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(output))
	if err != nil {
		if text != "" {
			return "", fmt.Errorf("command failed: %s: %s", err, text)
		}
		return "", fmt.Errorf("command failed: %s", err)
	}
	return text, nil
}

// parseOutput extracts the session fields from the CLI output. Only the
// token itself is mandatory; the other fields are filled when present.
func (s *CliDelegateStrategy) parseOutput(output string) (*models.LoginResult, error) {
	result := &models.LoginResult{
		Success:   true,
		TokenType: "Bearer",
		ExpiresIn: constants.DefaultSessionTimeoutSeconds,
	}

	if m := cliAccessTokenPattern.FindStringSubmatch(output); m != nil {
		result.SessionID = m[1]
	} else if m := cliTokenPattern.FindStringSubmatch(output); m != nil {
		result.SessionID = m[1]
	} else {
		return nil, fmt.Errorf("failed to extract session from CLI output")
	}
	result.AccessToken = result.SessionID

	if m := cliInstanceURLPattern.FindStringSubmatch(output); m != nil {
		result.InstanceURL = truncateInstanceURL(m[1])
	}
	if m := cliOrgIDPattern.FindStringSubmatch(output); m != nil {
		result.OrganizationID = m[1]
	}
	if m := cliUserIDPattern.FindStringSubmatch(output); m != nil {
		result.UserID = m[1]
	}

	return result, nil
}
