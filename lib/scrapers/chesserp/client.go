package chesserp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"chessbridge-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("scrapers/chesserp")

var ErrNoCredential = fmt.Errorf("login response carried no session credential")

// AuthError is a failed login or a credential the ERP would not accept.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("chesserp auth failed (%d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("chesserp auth failed (%d)", e.Status)
}

// UpstreamError is a non-success status from a data endpoint. Listing
// operations abort on it rather than returning partial data.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("chesserp returned %d: %s", e.Status, e.Body)
}

type ClientOptions struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	// upstream requests per second, 0 disables limiting
	RequestRate float64 `json:"request_rate"`
}

type Client struct {
	http     *resty.Client
	limiter  *rate.Limiter
	sessions SessionProvider
	opts     ClientOptions
}

func NewClient(opts ClientOptions) (*Client, error) {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("accept", "application/json")
	client.SetTimeout(time.Second * 30)

	restyutil.InstrumentClient(client, tracer)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestRate), 1)
	}

	c := &Client{
		http:    client,
		limiter: limiter,
		opts:    opts,
	}
	c.sessions = NewSessionCache(c.Login)
	return c, nil
}

// SetSessionProvider substitutes the session source, mainly so tests can
// inject a fake.
func (c *Client) SetSessionProvider(p SessionProvider) {
	c.sessions = p
}

var jsessionRegex = regexp.MustCompile(`JSESSIONID=[^;,\s]+`)

// Login authenticates against the ERP and produces a ready-to-send Cookie
// header value. The credential turns up either in the JSON body (under a
// handful of key spellings) or in the Set-Cookie header; the body wins.
func (c *Client) Login(ctx context.Context) (Session, error) {
	ctx, span := tracer.Start(ctx, "chesserp:Login")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"usuario":  c.opts.Username,
			"password": c.opts.Password,
		}).
		Post("/auth/login")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login request failed")
		return Session{}, err
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "login rejected")
		return Session{}, &AuthError{Status: res.StatusCode(), Body: string(res.Body())}
	}

	if cred := credentialFromBody(res.Body()); cred != "" {
		return newSession(cred), nil
	}
	if cred := credentialFromSetCookie(res.Header().Get("Set-Cookie")); cred != "" {
		return newSession(cred), nil
	}

	span.SetStatus(codes.Error, "no credential in login response")
	return Session{}, ErrNoCredential
}

func credentialFromBody(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return PickString(Record(payload), aliasSessionToken)
}

// credentialFromSetCookie extracts the JSESSIONID pair from a Set-Cookie
// header, taking only the first pair when the header folds several cookies
// into one comma-separated value.
func credentialFromSetCookie(header string) string {
	if header == "" {
		return ""
	}
	return jsessionRegex.FindString(header)
}

// newSession wraps a bare token as a JSESSIONID pair; a credential already
// shaped like a cookie pair is used as-is, so a login body of
// {"sessionId": "JSESSIONID=abc"} is not double-wrapped.
func newSession(credential string) Session {
	if !strings.Contains(credential, "=") {
		credential = "JSESSIONID=" + credential
	}
	return Session{Cookie: credential, ObtainedAt: time.Now()}
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// get issues an authenticated GET against a data endpoint. Session validity
// is discovered lazily: on a 401/403 the cached session is discarded and the
// request retried after exactly one fresh login.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	session, err := c.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Cookie", session.Cookie).
		SetQueryParamsFromValues(params).
		Get(path)
	if err != nil {
		return nil, err
	}
	if !isAuthStatus(res.StatusCode()) {
		return res, nil
	}

	c.sessions.Invalidate()
	session, err = c.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}
	return c.http.R().
		SetContext(ctx).
		SetHeader("Cookie", session.Cookie).
		SetQueryParamsFromValues(params).
		Get(path)
}

// getPayload fetches a data endpoint and decodes the response. An
// unparseable or non-success response is an error; shape questions are the
// caller's problem.
func (c *Client) getPayload(ctx context.Context, path string, params url.Values) (any, error) {
	res, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	if isAuthStatus(res.StatusCode()) {
		return nil, &AuthError{Status: res.StatusCode(), Body: string(res.Body())}
	}
	if !res.IsSuccess() {
		return nil, &UpstreamError{Status: res.StatusCode(), Body: string(res.Body())}
	}

	var payload any
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		return nil, &UpstreamError{
			Status: res.StatusCode(),
			Body:   fmt.Sprintf("response is not valid json: %v", err),
		}
	}
	return payload, nil
}

// getRecords is getPayload followed by shape extraction. Extraction finding
// nothing is not an error.
func (c *Client) getRecords(ctx context.Context, path string, params url.Values, containers []string) ([]Record, error) {
	payload, err := c.getPayload(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return FindRecords(payload, containers), nil
}

// errorEnvelope recognizes the ERP's normalized error body, which the price
// list endpoint ships with a 200 status: an object carrying
// codigo/statusCode/mensaje instead of data.
func errorEnvelope(payload any) *UpstreamError {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	_, hasCodigo := obj["codigo"]
	_, hasStatus := obj["statusCode"]
	_, hasMensaje := obj["mensaje"]
	if !hasCodigo && !hasStatus && !hasMensaje {
		return nil
	}
	body, _ := json.Marshal(obj)
	return &UpstreamError{Status: http.StatusBadGateway, Body: string(body)}
}
