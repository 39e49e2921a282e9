package payments

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ProviderError is returned when a provider answers with a non-success status.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func newRestClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json")
}

func checkResponse(provider string, resp *resty.Response) error {
	if resp.IsError() {
		return &ProviderError{Provider: provider, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}
