package auth

import (
	"io"
	"net/http"
	"sync"
)

// HTTPResponse adapts *http.Response to Response. The body is read and closed
// on the first call to Body; later calls return the same outcome.
type HTTPResponse struct {
	resp *http.Response

	once sync.Once
	body string
	err  error
}

func NewHTTPResponse(resp *http.Response) *HTTPResponse {
	return &HTTPResponse{resp: resp}
}

func (r *HTTPResponse) StatusCode() int { return r.resp.StatusCode }

func (r *HTTPResponse) Body() (string, error) {
	r.once.Do(func() {
		defer r.resp.Body.Close()
		b, err := io.ReadAll(r.resp.Body)
		r.body, r.err = string(b), err
	})
	return r.body, r.err
}
