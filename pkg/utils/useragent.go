package utils

import "strings"

// ClientInfo is the device/browser/OS triple derived from a User-Agent header.
// It feeds the login history records; unrecognized agents fall back to
// "Unknown" rather than failing the login.
type ClientInfo struct {
	DeviceType string
	Browser    string
	OS         string
}

// ParseUserAgent extracts coarse client information from a User-Agent string.
func ParseUserAgent(userAgent string) ClientInfo {
	info := ClientInfo{
		DeviceType: "Unknown",
		Browser:    "Unknown",
		OS:         "Unknown",
	}
	if userAgent == "" {
		return info
	}

	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "android") && !strings.Contains(ua, "tablet"):
		info.DeviceType = "Mobile"
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		info.DeviceType = "Tablet"
	case strings.Contains(ua, "curl") || strings.Contains(ua, "wget") || strings.Contains(ua, "go-http-client") || strings.Contains(ua, "python"):
		info.DeviceType = "API Client"
	default:
		info.DeviceType = "Desktop"
	}

	switch {
	case strings.Contains(ua, "edg/") || strings.Contains(ua, "edge"):
		info.Browser = "Edge"
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		info.Browser = "Opera"
	case strings.Contains(ua, "chrome"):
		info.Browser = "Chrome"
	case strings.Contains(ua, "safari"):
		info.Browser = "Safari"
	case strings.Contains(ua, "firefox"):
		info.Browser = "Firefox"
	}

	switch {
	case strings.Contains(ua, "windows"):
		info.OS = "Windows"
	case strings.Contains(ua, "android"):
		info.OS = "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ios"):
		info.OS = "iOS"
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh"):
		info.OS = "macOS"
	case strings.Contains(ua, "linux"):
		info.OS = "Linux"
	}

	return info
}
