// Package sheetsclient is the Google Sheets record source: the four record
// collections and the experience log are maintained in one spreadsheet, one
// tab per collection, and read through the Sheets API.
package sheetsclient

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/careops/substitute-planner/internal/config"
	"github.com/careops/substitute-planner/pkg/utils"
)

// Client wraps the Google Sheets API for record reads
type Client struct {
	service *sheets.Service
	cfg     *config.SheetsConfig
}

// NewClient creates a Sheets client from the configured OAuth client file
// and a previously issued token
func NewClient(ctx context.Context, cfg *config.SheetsConfig) (*Client, error) {
	oauthCfg, err := config.LoadOAuthClient(cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load oauth client: %w", err)
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	token, err := utils.LoadToken(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load oauth token: %w", err)
	}

	httpClient := oauthConfig.Client(ctx, token)
	service, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{service: service, cfg: cfg}, nil
}

// getValues reads all values of a tab
func (c *Client) getValues(ctx context.Context, tab string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get values for tab %s: %w", tab, err)
	}
	return resp.Values, nil
}
