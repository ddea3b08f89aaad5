// Package weather fetches the 36-hour forecast from the Taiwan Central
// Weather Administration open-data API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://opendata.cwa.gov.tw/api/v1/rest/datastore"

// F-C0032-001 is the general 36-hour city/county forecast dataset.
const datasetID = "F-C0032-001"

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Report is the first forecast window for a location.
type Report struct {
	Location        string
	Description     string
	RainProbability string
	MinTemp         string
	MaxTemp         string
}

// Summary renders the one-line form used in briefings.
func (r *Report) Summary() string {
	return fmt.Sprintf("%s, %s~%s°C, %s%% chance of rain",
		r.Description, r.MinTemp, r.MaxTemp, r.RainProbability)
}

type cwaResponse struct {
	Records struct {
		Location []struct {
			LocationName   string `json:"locationName"`
			WeatherElement []struct {
				ElementName string `json:"elementName"`
				Time        []struct {
					Parameter struct {
						ParameterName string `json:"parameterName"`
					} `json:"parameter"`
				} `json:"time"`
			} `json:"weatherElement"`
		} `json:"location"`
	} `json:"records"`
}

// Fetch returns the forecast report for a city or county name.
func (c *Client) Fetch(ctx context.Context, location string) (*Report, error) {
	q := url.Values{}
	q.Set("Authorization", c.apiKey)
	q.Set("locationName", location)

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, datasetID, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast request returned status %d", resp.StatusCode)
	}

	var data cwaResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding forecast response: %w", err)
	}

	if len(data.Records.Location) == 0 {
		return nil, fmt.Errorf("no forecast data for %q", location)
	}

	loc := data.Records.Location[0]
	report := &Report{Location: loc.LocationName}
	for _, el := range loc.WeatherElement {
		if len(el.Time) == 0 {
			continue
		}
		// First time window only.
		value := el.Time[0].Parameter.ParameterName
		switch el.ElementName {
		case "Wx":
			report.Description = value
		case "PoP":
			report.RainProbability = value
		case "MinT":
			report.MinTemp = value
		case "MaxT":
			report.MaxTemp = value
		}
	}
	return report, nil
}

// Forecast returns the one-line summary for a location.
func (c *Client) Forecast(ctx context.Context, location string) (string, error) {
	report, err := c.Fetch(ctx, location)
	if err != nil {
		return "", err
	}
	return report.Summary(), nil
}
