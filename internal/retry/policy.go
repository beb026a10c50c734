package retry

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Policy decides which failed screenshot downloads are worth retrying.
type Policy struct {
	serverErrors   bool
	throttled      bool
	connectFailure bool
	statusCodes    []int
}

func DefaultPolicy() *Policy {
	return &Policy{
		serverErrors:   true,
		throttled:      true,
		connectFailure: true,
	}
}

// ParsePolicy reads a comma separated list of "5xx", "throttled",
// "connect-failure" and individual status codes.
func ParsePolicy(s string) (*Policy, error) {
	p := &Policy{}
	for _, field := range strings.Split(s, ",") {
		switch field = strings.TrimSpace(field); field {
		case "":
		case "5xx":
			p.serverErrors = true
		case "throttled":
			p.throttled = true
		case "connect-failure":
			p.connectFailure = true
		default:
			statusCode, err := strconv.Atoi(field)
			if err != nil {
				return nil, xerrors.Errorf("invalid retry policy %q", field)
			}
			p.statusCodes = append(p.statusCodes, statusCode)
		}
	}
	return p, nil
}

func (p *Policy) RetryResponse(response *http.Response) bool {
	if (p.serverErrors && response.StatusCode >= 500 && response.StatusCode < 600) ||
		(p.throttled && (response.StatusCode == http.StatusTooManyRequests || response.StatusCode == http.StatusRequestTimeout)) {
		return true
	}

	for _, statusCode := range p.statusCodes {
		if statusCode == response.StatusCode {
			return true
		}
	}
	return false
}

func (p *Policy) RetryError(err error) bool {
	if !p.connectFailure {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
