// Package lambda serves the HTTP handler behind API Gateway HTTP API events.
package lambda

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/api"
	"github.com/sirupsen/logrus"
)

type Adapter struct {
	handler http.Handler
	log     *logrus.Logger
}

func NewAdapter(handler http.Handler, logger *logrus.Logger) *Adapter {
	return &Adapter{handler: handler, log: logger}
}

// Handle runs one gateway event through the handler chain.
func (a *Adapter) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := NewRequest(ctx, event)
	if err != nil {
		a.log.WithError(err).WithField("path", event.RawPath).Error("could not build request")
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest}, nil
	}

	rec := newRecorder()
	a.handler.ServeHTTP(rec, req)

	return rec.response(), nil
}

// NewRequest converts a gateway event into the request the handler expects.
// A base64 encoded body is passed through untouched and flagged on the
// context.
func NewRequest(ctx context.Context, event events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	method := event.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	path := event.RawPath
	if path == "" {
		path = "/"
	}

	u := &url.URL{Path: path, RawQuery: event.RawQueryString}
	if u.RawQuery == "" && len(event.QueryStringParameters) > 0 {
		q := url.Values{}
		for k, v := range event.QueryStringParameters {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	if event.IsBase64Encoded {
		ctx = api.WithBase64Body(ctx)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), strings.NewReader(event.Body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	for k, v := range event.Headers {
		req.Header.Set(k, v)
	}
	for _, c := range event.Cookies {
		req.Header.Add("Cookie", c)
	}

	req.Host = req.Header.Get("Host")
	if req.Host == "" {
		req.Host = event.RequestContext.DomainName
	}
	req.RemoteAddr = event.RequestContext.HTTP.SourceIP
	req.RequestURI = u.RequestURI()

	return req, nil
}

// recorder buffers a response for the gateway.
type recorder struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newRecorder() *recorder {
	return &recorder{header: http.Header{}}
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(b)
}

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *recorder) response() events.APIGatewayV2HTTPResponse {
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}

	resp := events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    make(map[string]string, len(r.header)),
		Body:       r.body.String(),
	}
	for k, v := range r.header {
		if k == "Set-Cookie" {
			resp.Cookies = append(resp.Cookies, v...)
			continue
		}
		resp.Headers[k] = strings.Join(v, ", ")
	}

	return resp
}
