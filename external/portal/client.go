// Package portal fetches scraped exports from the federation portal's feed
// endpoints. The client is deliberately thin: it speaks JSON, guards the
// upstream with a circuit breaker and single-flight deduplication, and hands
// back raw rows without interpreting them.
package portal

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/mkrogh/ttsync/internal/domain/rawdata"
	"github.com/mkrogh/ttsync/internal/platform/logging"
	"github.com/mkrogh/ttsync/internal/platform/resilience"
)

const defaultTimeout = 20 * time.Second

var errPortalTransient = crerr.New("portal transient failure")

type ClientConfig struct {
	BaseURL        string
	Season         string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.BreakerConfig
}

type Client struct {
	http           *fasthttp.Client
	baseURL        string
	season         string
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.Breaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		http:           &fasthttp.Client{ReadTimeout: timeout, WriteTimeout: timeout},
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		season:         strings.TrimSpace(cfg.Season),
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

func (c *Client) FetchTournaments(ctx context.Context) ([]rawdata.Tournament, error) {
	var envelope struct {
		Items []tournamentDTO `json:"items"`
	}
	if err := c.getJSON(ctx, "/feed/tournaments", map[string]string{"season": c.season}, &envelope); err != nil {
		return nil, crerr.Wrap(err, "fetch tournaments")
	}

	out := make([]rawdata.Tournament, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		out = append(out, rawdata.Tournament{
			ExternalID: strings.TrimSpace(item.ID),
			Name:       strings.TrimSpace(item.Name),
			Season:     strings.TrimSpace(item.Season),
			StartDate:  strings.TrimSpace(item.StartDate),
		})
	}
	return out, nil
}

func (c *Client) FetchClasses(ctx context.Context, tournamentExternalID string) ([]rawdata.Class, error) {
	var envelope struct {
		Items []classDTO `json:"items"`
	}
	path := "/feed/tournaments/" + tournamentExternalID + "/classes"
	if err := c.getJSON(ctx, path, nil, &envelope); err != nil {
		return nil, crerr.Wrapf(err, "fetch classes of tournament %s", tournamentExternalID)
	}

	out := make([]rawdata.Class, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		out = append(out, rawdata.Class{
			TournamentExternalID: tournamentExternalID,
			ExternalID:           strings.TrimSpace(item.ID),
			Name:                 strings.TrimSpace(item.Name),
			Date:                 strings.TrimSpace(item.Date),
		})
	}
	return out, nil
}

func (c *Client) FetchParticipants(ctx context.Context, tournamentExternalID, classExternalID string) ([]rawdata.Participant, error) {
	var envelope struct {
		Items []participantDTO `json:"items"`
	}
	path := "/feed/tournaments/" + tournamentExternalID + "/classes/" + classExternalID + "/participants"
	if err := c.getJSON(ctx, path, nil, &envelope); err != nil {
		return nil, crerr.Wrapf(err, "fetch participants of class %s", classExternalID)
	}

	out := make([]rawdata.Participant, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		out = append(out, rawdata.Participant{
			TournamentExternalID: tournamentExternalID,
			ClassExternalID:      classExternalID,
			PlayerExternalID:     strings.TrimSpace(item.PlayerID),
			PlayerName:           strings.TrimSpace(item.PlayerName),
			ClubName:             strings.TrimSpace(item.ClubName),
			GroupDescription:     strings.TrimSpace(item.Group),
			StageCode:            strings.TrimSpace(item.Stage),
			Seed:                 strings.TrimSpace(item.Seed),
		})
	}
	return out, nil
}

func (c *Client) FetchLicenses(ctx context.Context) ([]rawdata.License, error) {
	var envelope struct {
		Items []licenseDTO `json:"items"`
	}
	if err := c.getJSON(ctx, "/feed/licenses", map[string]string{"season": c.season}, &envelope); err != nil {
		return nil, crerr.Wrap(err, "fetch licenses")
	}

	out := make([]rawdata.License, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		out = append(out, rawdata.License{
			PlayerExternalID: strings.TrimSpace(item.PlayerID),
			FirstName:        strings.TrimSpace(item.FirstName),
			LastName:         strings.TrimSpace(item.LastName),
			BirthYear:        strings.TrimSpace(item.BirthYear),
			ClubName:         strings.TrimSpace(item.ClubName),
			Season:           strings.TrimSpace(item.Season),
			Kind:             strings.TrimSpace(item.Kind),
			ValidFrom:        strings.TrimSpace(item.ValidFrom),
		})
	}
	return out, nil
}

func (c *Client) FetchRanking(ctx context.Context) ([]rawdata.RankingRow, error) {
	var envelope struct {
		Items []rankingDTO `json:"items"`
	}
	if err := c.getJSON(ctx, "/feed/ranking", nil, &envelope); err != nil {
		return nil, crerr.Wrap(err, "fetch ranking")
	}

	out := make([]rawdata.RankingRow, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		out = append(out, rawdata.RankingRow{
			GroupExternalID:  strings.TrimSpace(item.GroupID),
			GroupName:        strings.TrimSpace(item.GroupName),
			PlayerExternalID: strings.TrimSpace(item.PlayerID),
			FirstName:        strings.TrimSpace(item.FirstName),
			LastName:         strings.TrimSpace(item.LastName),
			BirthYear:        strings.TrimSpace(item.BirthYear),
			ClubName:         strings.TrimSpace(item.ClubName),
			Points:           strings.TrimSpace(item.Points),
		})
	}
	return out, nil
}

func (c *Client) FetchTransitions(ctx context.Context) ([]rawdata.Transition, error) {
	var envelope struct {
		Items []transitionDTO `json:"items"`
	}
	if err := c.getJSON(ctx, "/feed/transitions", map[string]string{"season": c.season}, &envelope); err != nil {
		return nil, crerr.Wrap(err, "fetch transitions")
	}

	out := make([]rawdata.Transition, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		out = append(out, rawdata.Transition{
			PlayerExternalID: strings.TrimSpace(item.PlayerID),
			PlayerName:       strings.TrimSpace(item.PlayerName),
			FromClubName:     strings.TrimSpace(item.FromClub),
			ToClubName:       strings.TrimSpace(item.ToClub),
			Date:             strings.TrimSpace(item.Date),
		})
	}
	return out, nil
}

// getJSON fetches one endpoint. Concurrent identical requests (the worker
// pool can race on shared endpoints) collapse into a single upstream call;
// every caller decodes its own copy of the body.
func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, out any) error {
	if c.baseURL == "" {
		return crerr.New("portal base url is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	url := c.buildURL(path, query)
	body, err, shared := c.flight.Do(url, func() (any, error) {
		return c.fetch(ctx, url)
	})
	if err != nil {
		return err
	}
	if shared {
		c.logger.DebugContext(ctx, "portal request deduplicated", "url", url)
	}

	if err := sonic.Unmarshal(body.([]byte), out); err != nil {
		return crerr.Wrapf(err, "decode portal response url=%s", url)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "portal circuit breaker rejected request",
				"url", url, "state", c.breaker.State())
			return nil, crerr.Wrap(err, "portal is temporarily unavailable")
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		callErr := fmt.Errorf("%w: get %s: %v", errPortalTransient, url, err)
		c.recordCircuitResult(callErr)
		return nil, callErr
	}

	status := resp.StatusCode()
	if status/100 != 2 {
		var callErr error
		if isRetryableStatus(status) {
			callErr = fmt.Errorf("%w: get %s: status %d", errPortalTransient, url, status)
		} else {
			callErr = fmt.Errorf("get %s: status %d", url, status)
		}
		c.recordCircuitResult(callErr)
		return nil, callErr
	}

	body := append([]byte{}, resp.Body()...)
	c.recordCircuitResult(nil)
	return body, nil
}

func (c *Client) buildURL(path string, query map[string]string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(c.baseURL)
	if !strings.HasPrefix(path, "/") {
		_ = buf.WriteByte('/')
	}
	_, _ = buf.WriteString(path)

	keys := make([]string, 0, len(query))
	for key, value := range query {
		if value != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	sep := byte('?')
	for _, key := range keys {
		_ = buf.WriteByte(sep)
		_, _ = buf.WriteString(key)
		_ = buf.WriteByte('=')
		_, _ = buf.WriteString(query[key])
		sep = '&'
	}
	return buf.String()
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errPortalTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusRequestTimeout ||
		status == fasthttp.StatusTooManyRequests ||
		status >= fasthttp.StatusInternalServerError
}

type tournamentDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Season    string `json:"season"`
	StartDate string `json:"startDate"`
}

type classDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}

type participantDTO struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	ClubName   string `json:"clubName"`
	Group      string `json:"group"`
	Stage      string `json:"stage"`
	Seed       string `json:"seed"`
}

type licenseDTO struct {
	PlayerID  string `json:"playerId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthYear string `json:"birthYear"`
	ClubName  string `json:"clubName"`
	Season    string `json:"season"`
	Kind      string `json:"kind"`
	ValidFrom string `json:"validFrom"`
}

type rankingDTO struct {
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
	PlayerID  string `json:"playerId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthYear string `json:"birthYear"`
	ClubName  string `json:"clubName"`
	Points    string `json:"points"`
}

type transitionDTO struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	FromClub   string `json:"fromClub"`
	ToClub     string `json:"toClub"`
	Date       string `json:"date"`
}
