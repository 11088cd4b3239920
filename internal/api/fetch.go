package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/apet97/worklens/internal/apperr"
	"github.com/apet97/worklens/internal/model"
	"github.com/apet97/worklens/internal/timecalc"
)

// DetailedReport fetches the detailed report for the date range, paging
// through the POST endpoint until a short page. Amounts are requested as
// earned, cost and profit. Returns whatever pages succeeded; an empty
// slice when nothing could be fetched.
func (c *Client) DetailedReport(ctx context.Context, workspaceID string, start, end time.Time) []model.TimeEntry {
	tok, ok := c.token(ctx)
	if !ok {
		return nil
	}
	endpoint := fmt.Sprintf("%s/v1/workspaces/%s/reports/detailed", tok.Claims.ReportsURL, workspaceID)

	var all []model.TimeEntry
	for page := 1; ; page++ {
		if ctx.Err() != nil {
			return all
		}
		body := map[string]any{
			"amountShown":    "EARNED",
			"amounts":        []string{"EARNED", "COST", "PROFIT"},
			"dateRangeStart": start.UTC().Format(time.RFC3339),
			"dateRangeEnd":   end.UTC().Format(time.RFC3339),
			"detailedFilter": map[string]any{
				"page":     page,
				"pageSize": detailedPageSize,
			},
		}

		status, _, data, err := c.do(ctx, http.MethodPost, endpoint, body, tok)
		if err != nil {
			c.status.RecordError(apperr.FromRequest(err, 0, "detailed report request failed"))
			c.log.WithError(err).WithField("page", page).Warn("detailed report request failed")
			return all
		}
		if status != http.StatusOK {
			err := apperr.FromRequest(nil, status, fmt.Sprintf("detailed report returned status %d", status))
			c.status.RecordError(err)
			c.log.WithFields(logrus.Fields{"page": page, "status": status}).Warn("detailed report request rejected")
			return all
		}

		var resp detailedResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			c.status.RecordError(apperr.FromRequest(err, 0, "decoding detailed report failed"))
			c.log.WithError(err).WithField("page", page).Warn("decoding detailed report failed")
			return all
		}

		entries := resp.entries()
		for _, w := range entries {
			all = append(all, normalizeEntry(w))
		}
		if len(entries) < detailedPageSize {
			return all
		}
	}
}

// Entries paginates the time-entries list endpoint at page size 500.
// A 429 waits out Retry-After and retries the same page once; any other
// failure ends pagination and returns everything accumulated so far.
// Cancellation returns the accumulated result without error.
func (c *Client) Entries(ctx context.Context, workspaceID string, users []string, start, end time.Time) []model.TimeEntry {
	tok, ok := c.token(ctx)
	if !ok {
		return nil
	}

	var all []model.TimeEntry
	page := 1
	retried := false
	for {
		if ctx.Err() != nil {
			return all
		}

		q := url.Values{}
		q.Set("start", start.UTC().Format(time.RFC3339))
		q.Set("end", end.UTC().Format(time.RFC3339))
		if len(users) > 0 {
			q.Set("users", strings.Join(users, ","))
		}
		q.Set("page", fmt.Sprintf("%d", page))
		q.Set("page-size", fmt.Sprintf("%d", listPageSize))
		endpoint := fmt.Sprintf("%s/v1/workspaces/%s/time-entries?%s", tok.Claims.BackendURL, workspaceID, q.Encode())

		status, header, data, err := c.do(ctx, http.MethodGet, endpoint, nil, tok)
		if err != nil {
			if ctx.Err() == nil {
				c.status.RecordError(apperr.FromRequest(err, 0, "entries request failed"))
				c.log.WithError(err).WithField("page", page).Warn("entries request failed, returning partial result")
			}
			return all
		}

		if status == http.StatusTooManyRequests {
			if retried {
				c.log.WithField("page", page).Warn("rate limited twice on one page, giving up")
				return all
			}
			retried = true
			delay := retryDelay(header)
			c.log.WithFields(logrus.Fields{"page": page, "delay": delay}).Info("rate limited, retrying page")
			if !sleep(ctx, delay) {
				return all
			}
			continue // same page
		}
		if status != http.StatusOK {
			err := apperr.FromRequest(nil, status, fmt.Sprintf("entries endpoint returned status %d", status))
			c.status.RecordError(err)
			c.log.WithFields(logrus.Fields{"page": page, "status": status}).Warn("entries request rejected, returning partial result")
			return all
		}

		var pageEntries []wireEntry
		if err := json.Unmarshal(data, &pageEntries); err != nil {
			c.status.RecordError(apperr.FromRequest(err, 0, "decoding entries page failed"))
			c.log.WithError(err).WithField("page", page).Warn("decoding entries page failed, returning partial result")
			return all
		}

		for _, w := range pageEntries {
			all = append(all, normalizeEntry(w))
		}
		if len(pageEntries) < listPageSize {
			return all
		}
		page++
		retried = false
	}
}

// Users fetches the workspace members in a single page. The error is
// non-nil whenever an empty result means "unknown" rather than "the
// workspace has zero users".
func (c *Client) Users(ctx context.Context, workspaceID string) ([]model.User, error) {
	tok, err := c.auth.Token(ctx)
	if err != nil {
		c.status.RecordError(err)
		return nil, fmt.Errorf("fetching users: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/workspaces/%s/users?page=1&page-size=%d", tok.Claims.BackendURL, workspaceID, listPageSize)
	status, _, data, err := c.do(ctx, http.MethodGet, endpoint, nil, tok)
	if err != nil {
		e := apperr.FromRequest(err, 0, "fetching users failed")
		c.status.RecordError(e)
		return nil, e
	}
	if status != http.StatusOK {
		e := apperr.FromRequest(nil, status, fmt.Sprintf("users endpoint returned status %d", status))
		c.status.RecordError(e)
		return nil, e
	}

	var wire []wireUser
	if err := json.Unmarshal(data, &wire); err != nil {
		e := apperr.FromRequest(err, 0, "decoding users failed")
		c.status.RecordError(e)
		return nil, e
	}
	out := make([]model.User, 0, len(wire))
	for _, u := range wire {
		out = append(out, model.User{ID: u.ID, Name: u.Name, Email: u.Email, Status: u.Status})
	}
	return out, nil
}

// AllProfiles fetches every user's profile concurrently. The result
// contains successful responses only; each failure increments the shared
// profilesFailed counter. The mapping is independent of completion order.
func (c *Client) AllProfiles(ctx context.Context, workspaceID string, users []model.User) map[string]model.UserProfile {
	profiles := make(map[string]model.UserProfile, len(users))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, u := range users {
		wg.Add(1)
		go func(u model.User) {
			defer wg.Done()
			c.status.RecordProfileAttempt()
			p, err := c.profile(ctx, workspaceID, u.ID)
			if err != nil {
				c.status.RecordProfileFailure(err)
				c.log.WithError(err).WithField("user", u.ID).Warn("profile fetch failed")
				return
			}
			mu.Lock()
			profiles[u.ID] = p
			mu.Unlock()
		}(u)
	}
	wg.Wait()
	return profiles
}

func (c *Client) profile(ctx context.Context, workspaceID, userID string) (model.UserProfile, error) {
	tok, err := c.auth.Token(ctx)
	if err != nil {
		return model.UserProfile{}, err
	}
	endpoint := fmt.Sprintf("%s/v1/workspaces/%s/member-profile/%s", tok.Claims.BackendURL, workspaceID, userID)
	status, _, data, err := c.do(ctx, http.MethodGet, endpoint, nil, tok)
	if err != nil {
		return model.UserProfile{}, err
	}
	if status != http.StatusOK {
		return model.UserProfile{}, fmt.Errorf("member profile returned status %d", status)
	}
	var wire wireProfile
	if err := json.Unmarshal(data, &wire); err != nil {
		return model.UserProfile{}, fmt.Errorf("decoding member profile: %w", err)
	}
	return normalizeProfile(userID, wire), nil
}

// Calendar fetches workspace holidays and approved time off for the
// range and merges them into one calendar. Failures degrade to an empty
// calendar for the affected source.
func (c *Client) Calendar(ctx context.Context, workspaceID string, start, end time.Time) model.Calendar {
	cal := model.NewCalendar()
	c.holidays(ctx, workspaceID, start, end, cal)
	c.timeOff(ctx, workspaceID, start, end, cal)
	return cal
}

func (c *Client) holidays(ctx context.Context, workspaceID string, start, end time.Time, cal model.Calendar) {
	tok, ok := c.token(ctx)
	if !ok {
		return
	}
	q := url.Values{}
	q.Set("start", timecalc.DateKey(start))
	q.Set("end", timecalc.DateKey(end))
	endpoint := fmt.Sprintf("%s/v1/workspaces/%s/holidays?%s", tok.Claims.BackendURL, workspaceID, q.Encode())

	status, _, data, err := c.do(ctx, http.MethodGet, endpoint, nil, tok)
	if err != nil || status != http.StatusOK {
		e := apperr.FromRequest(err, status, "holiday fetch failed")
		c.status.RecordError(e)
		c.log.WithError(e).Warn("holiday fetch failed, assuming none")
		return
	}
	var wire []wireHoliday
	if err := json.Unmarshal(data, &wire); err != nil {
		c.status.RecordError(apperr.FromRequest(err, 0, "decoding holidays failed"))
		c.log.WithError(err).Warn("decoding holidays failed, assuming none")
		return
	}
	for _, h := range wire {
		from, err1 := timecalc.ParseDateKey(h.DatePeriod.StartDate)
		to, err2 := timecalc.ParseDateKey(h.DatePeriod.EndDate)
		if err1 != nil || err2 != nil || to.Before(from) {
			continue
		}
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			cal.AddHoliday(timecalc.DateKey(d))
		}
	}
}

func (c *Client) timeOff(ctx context.Context, workspaceID string, start, end time.Time, cal model.Calendar) {
	tok, ok := c.token(ctx)
	if !ok {
		return
	}
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))
	endpoint := fmt.Sprintf("%s/v1/workspaces/%s/time-off/requests?%s", tok.Claims.BackendURL, workspaceID, q.Encode())

	status, _, data, err := c.do(ctx, http.MethodGet, endpoint, nil, tok)
	if err != nil || status != http.StatusOK {
		e := apperr.FromRequest(err, status, "time-off fetch failed")
		c.status.RecordError(e)
		c.log.WithError(e).Warn("time-off fetch failed, assuming none")
		return
	}
	var resp timeOffResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.status.RecordError(apperr.FromRequest(err, 0, "decoding time-off requests failed"))
		c.log.WithError(err).Warn("decoding time-off requests failed, assuming none")
		return
	}
	for _, r := range resp.Requests {
		if r.Status.StatusType != "APPROVED" || r.UserID == "" {
			continue
		}
		from := parseWireTime(r.TimeOffPeriod.Period.Start)
		to := parseWireTime(r.TimeOffPeriod.Period.End)
		if from.IsZero() || to.IsZero() || to.Before(from) {
			continue
		}
		for d := timecalc.StartOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
			cal.AddTimeOff(r.UserID, timecalc.DateKey(d))
		}
	}
}
