package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// QueryResponse represents the standard query response format from HTTP API
type QueryResponse struct {
	Data json.RawMessage `json:"data"`
}

// ErrorResponse represents an error response from HTTP API
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"q"},
		Short:   "Query a running tbrd",
	}

	cmd.AddCommand(
		queryPathCmd("foreign-contracts", "List registered foreign contracts", "/api/v1/foreign-contracts", false),
		queryPathCmd("execution-requests", "List recent execution requests", "/api/v1/execution-requests", true),
		queryPathCmd("redemptions", "List recent redemptions", "/api/v1/redemptions", true),
	)
	return cmd
}

func queryPathCmd(use, short, path string, limited bool) *cobra.Command {
	var (
		outputFormat string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			url := fmt.Sprintf("http://localhost:%d%s", cfg.QueryServerPort, path)
			if limited && limit > 0 {
				url = fmt.Sprintf("%s?limit=%d", url, limit)
			}
			data, err := getQuery(url)
			if err != nil {
				return err
			}

			var out interface{}
			if err := json.Unmarshal(data, &out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return printOutput(cmd.OutOrStdout(), out, outputFormat)
		},
	}

	if limited {
		cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of records")
	}
	addOutputFlag(cmd, &outputFormat)
	return cmd
}

func getQuery(url string) (json.RawMessage, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("server error: %s", errResp.Error)
	}

	var queryResp QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return queryResp.Data, nil
}
