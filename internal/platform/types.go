package platform

import (
	"encoding/json"

	"github.com/theirongolddev/xpdash/internal/source"
)

// graphqlRequest is the POST body sent to the GraphQL endpoint.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the envelope every GraphQL reply arrives in.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type currentUserData struct {
	User []source.RawProfile `json:"user"`
}

// profileRow keeps level raw: the platform stores it in a JSON column.
type profileRow struct {
	ID        int             `json:"id"`
	Login     string          `json:"login"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Level     json.RawMessage `json:"level"`
}

type profileData struct {
	Users []profileRow `json:"user_public_view"`
}

type totalXPData struct {
	Aggregate struct {
		Aggregate struct {
			Sum struct {
				Amount *float64 `json:"amount"`
			} `json:"sum"`
		} `json:"aggregate"`
	} `json:"transaction_aggregate"`
}

type transactionsData struct {
	Transactions []source.RawTransaction `json:"transaction"`
}

type progressData struct {
	Progress []source.RawProgress `json:"progress"`
}

type resultsData struct {
	Results []source.RawResult `json:"result"`
}
