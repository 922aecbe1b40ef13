package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"quizforge/internal/domain"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var statusCodePattern = regexp.MustCompile(`status code:? (\d{3})`)

// kindForStatus maps an HTTP status to a provider error kind.
func kindForStatus(code int) domain.ProviderErrorKind {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return domain.ErrKindUnauthenticated
	case code == http.StatusNotFound:
		return domain.ErrKindModelNotFound
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return domain.ErrKindTimeout
	case code == http.StatusTooManyRequests:
		return domain.ErrKindRateLimited
	case code >= 500:
		return domain.ErrKindUnavailable
	default:
		return domain.ErrKindUnknown
	}
}

func kindForGRPC(code codes.Code) domain.ProviderErrorKind {
	switch code {
	case codes.Unauthenticated, codes.PermissionDenied:
		return domain.ErrKindUnauthenticated
	case codes.NotFound:
		return domain.ErrKindModelNotFound
	case codes.DeadlineExceeded:
		return domain.ErrKindTimeout
	case codes.ResourceExhausted:
		return domain.ErrKindRateLimited
	case codes.Unavailable, codes.Internal:
		return domain.ErrKindUnavailable
	default:
		return domain.ErrKindUnknown
	}
}

// transportKind recognises failures that never reached the provider.
func transportKind(err error) (domain.ProviderErrorKind, bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrKindTimeout, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrKindTimeout, true
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return domain.ErrKindUnavailable, true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.ErrKindUnavailable, true
	}
	return "", false
}

// messageKind classifies errors that only carry their cause in the message,
// which is how langchaingo reports upstream failures.
func messageKind(msg string) domain.ProviderErrorKind {
	lower := strings.ToLower(msg)
	if m := statusCodePattern.FindStringSubmatch(lower); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			if kind := kindForStatus(code); kind != domain.ErrKindUnknown {
				return kind
			}
		}
	}
	switch {
	case strings.Contains(lower, "api key"), strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "authentication"):
		return domain.ErrKindUnauthenticated
	case strings.Contains(lower, "model") && strings.Contains(lower, "not found"):
		return domain.ErrKindModelNotFound
	case strings.Contains(lower, "rate limit"):
		return domain.ErrKindRateLimited
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return domain.ErrKindTimeout
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return domain.ErrKindUnavailable
	default:
		return domain.ErrKindUnknown
	}
}

// classify turns any adapter failure into a ProviderError. Errors that are
// already ProviderErrors pass through unchanged.
func classify(kind domain.ProviderKind, err error) error {
	if err == nil {
		return nil
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}

	if k, ok := transportKind(err); ok {
		return domain.NewProviderError(kind, k, "request failed", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewProviderError(kind, kindForStatus(apiErr.HTTPStatusCode), apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return domain.NewProviderError(kind, kindForStatus(reqErr.HTTPStatusCode), "request rejected", err)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		k := kindForStatus(gErr.Code)
		if k == domain.ErrKindUnknown {
			reasons := make([]string, 0, len(gErr.Errors))
			for _, item := range gErr.Errors {
				reasons = append(reasons, item.Reason)
			}
			k = rejectionKind(gErr.Message, reasons)
			if k == domain.ErrKindUnknown {
				k = bodyKind(gErr.Body)
			}
		}
		return domain.NewProviderError(kind, k, gErr.Message, err)
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return domain.NewProviderError(kind, kindForGRPC(st.Code()), st.Message(), err)
	}

	return domain.NewProviderError(kind, messageKind(err.Error()), "generation failed", err)
}

// statusError builds the error for a non-2xx answer of a raw HTTP call.
func statusError(kind domain.ProviderKind, code int, body string) error {
	body = strings.TrimSpace(body)
	k := kindForStatus(code)
	if k == domain.ErrKindUnknown && body != "" {
		k = bodyKind(body)
	}

	msg := http.StatusText(code)
	if body != "" {
		if len(body) > 300 {
			body = body[:300]
		}
		msg += ": " + body
	}
	return domain.NewProviderError(kind, k, msg, nil)
}

// googleErrorBody is the error envelope of Google APIs. A rejected key comes
// back as 400 INVALID_ARGUMENT with reason API_KEY_INVALID.
type googleErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

// bodyKind classifies a response body whose status code says nothing useful.
func bodyKind(body string) domain.ProviderErrorKind {
	var env googleErrorBody
	if err := json.Unmarshal([]byte(body), &env); err != nil || (env.Error.Message == "" && len(env.Error.Details) == 0) {
		return messageKind(body)
	}
	reasons := make([]string, 0, len(env.Error.Details)+1)
	for _, d := range env.Error.Details {
		reasons = append(reasons, d.Reason)
	}
	if env.Error.Status == "UNAUTHENTICATED" || env.Error.Status == "PERMISSION_DENIED" {
		reasons = append(reasons, "API_KEY_INVALID")
	}
	return rejectionKind(env.Error.Message, reasons)
}

func rejectionKind(message string, reasons []string) domain.ProviderErrorKind {
	for _, r := range reasons {
		switch r {
		case "API_KEY_INVALID", "API_KEY_SERVICE_BLOCKED", "keyInvalid":
			return domain.ErrKindUnauthenticated
		case "RATE_LIMIT_EXCEEDED", "rateLimitExceeded":
			return domain.ErrKindRateLimited
		}
	}
	return messageKind(message)
}

func missingKeyError(kind domain.ProviderKind) error {
	return domain.NewProviderError(kind, domain.ErrKindUnauthenticated, "API key is not configured", nil)
}

func emptyResponseError(kind domain.ProviderKind) error {
	return domain.NewProviderError(kind, domain.ErrKindUnknown, "empty response", nil)
}
