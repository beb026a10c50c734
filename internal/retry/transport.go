package retry

import (
	"io"
	"net/http"
	"time"

	"golang.org/x/xerrors"
)

// Transport retries requests whose response or error matches Policy. Requests
// with a body are only retried when GetBody is set.
type Transport struct {
	Base    http.RoundTripper
	Backoff Backoff
	Policy  *Policy
}

func (t *Transport) RoundTrip(request *http.Request) (*http.Response, error) {
	for retry := uint(0); ; retry++ {
		delay, exhausted := t.backoff().Delay(retry)

		response, err := t.base().RoundTrip(request)

		retryable := err != nil && t.Policy != nil && t.Policy.RetryError(err) ||
			err == nil && t.Policy != nil && t.Policy.RetryResponse(response)
		if exhausted || !retryable {
			return response, err
		}

		if request.Body != nil && request.Body != http.NoBody {
			if request.GetBody == nil {
				return response, err
			}
			body, bodyErr := request.GetBody()
			if bodyErr != nil {
				return nil, xerrors.Errorf("failed to rewind request body: %w", bodyErr)
			}
			request = request.Clone(request.Context())
			request.Body = body
		}

		if response != nil {
			_, _ = io.Copy(io.Discard, response.Body)
			response.Body.Close()
		}

		timer := time.NewTimer(delay)
		select {
		case <-request.Context().Done():
			timer.Stop()
			return nil, request.Context().Err()
		case <-timer.C:
		}
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) backoff() Backoff {
	if t.Backoff != nil {
		return t.Backoff
	}
	return Never()
}
