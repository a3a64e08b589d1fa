package salesforce

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/pkg/constants"
)

// soapFaultMessages maps known Salesforce fault exception codes onto
// user-facing messages. Unmapped codes fall back to the fault's own text.
var soapFaultMessages = map[string]string{
	"INVALID_LOGIN":                           "Invalid username, password, security token; or user locked out.",
	"INVALID_OPERATION_WITH_EXPIRED_PASSWORD": "The user's password has expired and must be reset.",
	"LOGIN_MUST_USE_SECURITY_TOKEN":           "A security token must be appended to the password for this login.",
	"LOGIN_CHALLENGE_ISSUED":                  "An email with a verification code was sent; identity confirmation required.",
	"LOGIN_CHALLENGE_PENDING":                 "A verification code was already sent and has not yet been confirmed.",
	"ORG_LOCKED":                              "The organization is locked or suspended.",
	"REQUEST_LIMIT_EXCEEDED":                  "The organization has exceeded its API request limit.",
	"API_DISABLED_FOR_ORG":                    "API access is disabled for this organization.",
	"UNSUPPORTED_API_VERSION":                 "The requested API version is not supported by this endpoint.",
	"SERVER_UNAVAILABLE":                      "The Salesforce server is temporarily unavailable.",
	"TRIAL_EXPIRED":                           "The organization's trial period has expired.",
}

// FaultMessage translates a fault code, falling back to the raw fault text.
func FaultMessage(code, faultString string) string {
	if msg, ok := soapFaultMessages[code]; ok {
		return msg
	}
	if faultString != "" {
		return faultString
	}
	return "Salesforce login failed with an unrecognized error."
}

// escapeXML escapes the five XML special characters in a text value.
func escapeXML(input string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(input)); err != nil {
		return input
	}
	return b.String()
}

// buildLoginEnvelope renders the SOAP 1.1 partner login call. The security
// token rides appended to the password.
func buildLoginEnvelope(username, password, securityToken string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8" ?>
<env:Envelope xmlns:xsd="http://www.w3.org/2001/XMLSchema"
              xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
              xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Body>
    <n1:login xmlns:n1="%s">
      <n1:username>%s</n1:username>
      <n1:password>%s</n1:password>
    </n1:login>
  </env:Body>
</env:Envelope>`,
		constants.PartnerNamespace,
		escapeXML(username),
		escapeXML(password+securityToken),
	)
}

// buildLogoutEnvelope renders the SOAP 1.1 partner logout call with the
// session carried in a SessionHeader.
func buildLogoutEnvelope(sessionID string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8" ?>
<env:Envelope xmlns:xsd="http://www.w3.org/2001/XMLSchema"
              xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
              xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Header>
    <n1:SessionHeader xmlns:n1="%s">
      <n1:sessionId>%s</n1:sessionId>
    </n1:SessionHeader>
  </env:Header>
  <env:Body>
    <n1:logout xmlns:n1="%s" />
  </env:Body>
</env:Envelope>`,
		constants.PartnerNamespace,
		escapeXML(sessionID),
		constants.PartnerNamespace,
	)
}

// xmlNode is a generic element tree used to walk loosely structured SOAP
// responses without binding to a fixed schema.
type xmlNode struct {
	XMLName  xml.Name
	Content  string    `xml:",chardata"`
	Children []xmlNode `xml:",any"`
}

func parseXML(payload []byte) (*xmlNode, error) {
	var root xmlNode
	if err := xml.Unmarshal(payload, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// findElement does a depth-first search for the first element with the given
// local name, ignoring namespaces.
func findElement(node *xmlNode, localName string) *xmlNode {
	for i := range node.Children {
		child := &node.Children[i]
		if strings.EqualFold(child.XMLName.Local, localName) {
			return child
		}
		if found := findElement(child, localName); found != nil {
			return found
		}
	}
	return nil
}

func (n *xmlNode) text() string {
	return strings.TrimSpace(n.Content)
}

// soapFault is the structured form of a SOAP Fault element.
type soapFault struct {
	Code    string
	Message string
}

// parseFault extracts a fault from a SOAP body. Salesforce nests the real
// error as detail -> UnexpectedErrorFault -> exceptionCode/exceptionMessage,
// so the detail children are searched one level deep. Returns nil when the
// body carries no fault.
func parseFault(payload []byte) *soapFault {
	root, err := parseXML(payload)
	if err != nil {
		return &soapFault{
			Code:    string(constants.ErrCodeUnknownSoapError),
			Message: strings.TrimSpace(string(payload)),
		}
	}

	fault := findElement(root, "Fault")
	if fault == nil {
		return nil
	}

	code := ""
	message := ""
	if el := findElement(fault, "faultcode"); el != nil {
		code = el.text()
	}
	if el := findElement(fault, "faultstring"); el != nil {
		message = el.text()
	}

	if detail := findElement(fault, "detail"); detail != nil {
		if el := findElement(detail, "exceptionCode"); el != nil && el.text() != "" {
			code = el.text()
		}
		if el := findElement(detail, "exceptionMessage"); el != nil && el.text() != "" {
			message = el.text()
		}
	}

	if code == "" {
		code = string(constants.ErrCodeUnknownSoapError)
	}

	return &soapFault{Code: code, Message: FaultMessage(code, message)}
}

// parseLoginResponse walks the <result> element of a successful partner
// login. Unknown fields are skipped; absence of <result> is an error.
func parseLoginResponse(payload []byte) (*models.LoginResult, error) {
	root, err := parseXML(payload)
	if err != nil {
		return nil, fmt.Errorf("response is not well-formed XML: %w", err)
	}

	resultEl := findElement(root, "result")
	if resultEl == nil {
		return nil, fmt.Errorf("no result element in login response")
	}

	result := &models.LoginResult{Success: true}
	for i := range resultEl.Children {
		field := &resultEl.Children[i]
		value := field.text()
		if value == "" && !strings.EqualFold(field.XMLName.Local, "userInfo") {
			continue
		}

		switch field.XMLName.Local {
		case "sessionId":
			result.SessionID = value
			result.AccessToken = value
		case "serverUrl":
			result.InstanceURL = truncateInstanceURL(value)
		case "metadataServerUrl":
			result.MetadataServerURL = value
		case "userId":
			result.UserID = value
		case "organizationId":
			result.OrganizationID = value
		case "passwordExpired":
			result.PasswordExpired, _ = strconv.ParseBool(value)
		case "sandbox":
			result.Sandbox, _ = strconv.ParseBool(value)
		case "userInfo":
			parseUserInfo(result, field)
		}
	}

	return result, nil
}

// parseUserInfo copies the nested userInfo block into the result.
func parseUserInfo(result *models.LoginResult, userInfo *xmlNode) {
	for i := range userInfo.Children {
		field := &userInfo.Children[i]
		value := field.text()

		switch field.XMLName.Local {
		case "userFullName":
			result.UserFullName = value
		case "userEmail":
			result.UserEmail = value
		case "organizationName":
			result.OrganizationName = value
		case "userLanguage":
			result.Language = value
		case "userTimeZone":
			result.TimeZone = value
		}
	}
}
