package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Client reads column ranges from the spreadsheet values API.
type Client struct {
	svc *sheetsapi.Service
}

func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := sheetsapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// FetchColumn fetches a range expression (e.g. "Vetted Members!D2:D") and
// flattens the returned rows into a list of non-empty trimmed cell values.
// An empty or missing value range is an empty list, not an error.
func (c *Client) FetchColumn(ctx context.Context, sheetID, rangeExpr string) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(sheetID, rangeExpr).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch range %q: %w", rangeExpr, err)
	}

	var out []string
	for _, row := range resp.Values {
		for _, cell := range row {
			s, ok := cell.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out, nil
}
