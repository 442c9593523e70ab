package leadsim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/estatecamp/internal/domain/model"
)

// client is a thin JSON client for the estatecamp API.
type client struct {
	http    *http.Client
	baseURL string
	token   string
}

func newClient(baseURL, token string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
	}
}

// do sends body as JSON and decodes the response into out when out is
// non-nil. It returns the status code; transport failures are errors,
// non-2xx statuses are not.
func (c *client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rdr io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *client) healthy(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

type predictBody struct {
	LeadID string `json:"leadId"`
}

type predictReply struct {
	Success     bool              `json:"success"`
	Predictions *model.Prediction `json:"predictions"`
	Error       string            `json:"error"`
}

// scoreLead posts lead to the stateless /score endpoint.
func (c *client) scoreLead(ctx context.Context, lead model.Lead) (model.Prediction, int, error) {
	var p model.Prediction
	status, err := c.do(ctx, http.MethodPost, "/score", lead, &p)
	return p, status, err
}

// predictByID scores a stored lead through /predict-lead-conversion.
func (c *client) predictByID(ctx context.Context, leadID string) (model.Prediction, int, error) {
	var reply predictReply
	status, err := c.do(ctx, http.MethodPost, "/predict-lead-conversion", predictBody{LeadID: leadID}, &reply)
	if err != nil || status != http.StatusOK {
		return model.Prediction{}, status, err
	}
	if !reply.Success || reply.Predictions == nil {
		return model.Prediction{}, status, fmt.Errorf("predict: %s", reply.Error)
	}
	return *reply.Predictions, status, nil
}

type campaignBody struct {
	Name      string  `json:"name"`
	Project   string  `json:"project"`
	Objective string  `json:"objective"`
	Budget    float64 `json:"budget"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
}

// createCampaign makes the campaign that persisted leads are filed under.
func (c *client) createCampaign(ctx context.Context, name string) (string, error) {
	now := time.Now().UTC()
	body := campaignBody{
		Name:      name,
		Project:   "Simulation",
		Objective: string(model.ObjectiveGenerateLeads),
		Budget:    1,
		StartDate: now.Format(time.DateOnly),
		EndDate:   now.AddDate(0, 1, 0).Format(time.DateOnly),
	}
	var created model.Campaign
	status, err := c.do(ctx, http.MethodPost, "/api/campaigns", body, &created)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("create campaign: status %d", status)
	}
	return created.ID, nil
}

// createLead stores lead under campaignID and returns the server's id.
func (c *client) createLead(ctx context.Context, campaignID string, lead model.Lead) (string, int, error) {
	var created model.Lead
	status, err := c.do(ctx, http.MethodPost, "/api/campaigns/"+campaignID+"/leads", lead, &created)
	if err != nil || status != http.StatusCreated {
		return "", status, err
	}
	return created.ID, status, nil
}
