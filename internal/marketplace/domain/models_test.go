package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerUnmarshalExpireDateLayouts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "date", raw: "2000-01-01", want: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "datetime", raw: "2030-06-15 12:30:00", want: time.Date(2030, 6, 15, 12, 30, 0, 0, time.UTC)},
		{name: "rfc3339", raw: "2030-06-15T12:30:00+02:00", want: time.Date(2030, 6, 15, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var consumer Consumer
			err := json.Unmarshal([]byte(`{"name":"Acme","expireDate":"`+tt.raw+`"}`), &consumer)
			require.NoError(t, err)
			require.NotNil(t, consumer.ExpireDate)
			assert.True(t, consumer.ExpireDate.Equal(tt.want), "got %s", consumer.ExpireDate)
		})
	}
}

func TestConsumerUnmarshalOptionalFields(t *testing.T) {
	var consumer Consumer
	payload := `{"name":" Acme ","expireDate":"","distributor":"Reseller","whitelistedGithubOrgs":["acme"]}`
	require.NoError(t, json.Unmarshal([]byte(payload), &consumer))

	assert.Equal(t, "Acme", consumer.Name)
	assert.Nil(t, consumer.ExpireDate)
	require.NotNil(t, consumer.Distributor)
	assert.Equal(t, "Reseller", consumer.Distributor.Name)
	assert.Equal(t, []string{"acme"}, consumer.WhitelistedGithubOrgs)

	var withObject Consumer
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Acme","distributor":{"name":"Partner","url":"https://partner.example"}}`), &withObject))
	require.NotNil(t, withObject.Distributor)
	assert.Equal(t, "https://partner.example", withObject.Distributor.URL)
}

func TestConsumerUnmarshalRejectsBadExpireDate(t *testing.T) {
	var consumer Consumer
	err := json.Unmarshal([]byte(`{"name":"Acme","expireDate":"next tuesday"}`), &consumer)
	if !errors.Is(err, ErrInvalidExpireDate) {
		t.Fatalf("expected ErrInvalidExpireDate, got %v", err)
	}
}

func TestConsumerUnmarshalNonStringExpireDate(t *testing.T) {
	for _, raw := range []string{"false", "null", "0", "true"} {
		t.Run(raw, func(t *testing.T) {
			var consumer Consumer
			require.NoError(t, json.Unmarshal([]byte(`{"name":"Acme","expireDate":`+raw+`}`), &consumer))
			assert.Equal(t, "Acme", consumer.Name)
			assert.Nil(t, consumer.ExpireDate)
		})
	}

	var consumer Consumer
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Acme","expireDate":946684800}`), &consumer))
	require.NotNil(t, consumer.ExpireDate)
	assert.True(t, consumer.ExpireDate.Equal(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))

	err := json.Unmarshal([]byte(`{"name":"Acme","expireDate":{"at":"2000"}}`), &consumer)
	assert.ErrorIs(t, err, ErrInvalidExpireDate)
}

func TestConsumerIsEmpty(t *testing.T) {
	assert.True(t, (&Consumer{}).IsEmpty())

	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, (&Consumer{ExpireDate: &future}).IsEmpty())
	assert.False(t, (&Consumer{WhitelistedGithubOrgs: []string{"acme"}}).IsEmpty())
	assert.False(t, (&Consumer{Name: "Acme"}).IsEmpty())
}

func TestSearchQueryParams(t *testing.T) {
	params := SearchQuery{Query: " log ", Sort: "bogus", PurchaseType: PurchaseTypePaid}.Params()
	assert.Equal(t, map[string]string{"sort": SortPopular, "query": "log", "purchase_type": "paid"}, params)

	params = SearchQuery{Sort: SortAlpha, PurchaseType: "other"}.Params()
	assert.Equal(t, map[string]string{"sort": SortAlpha}, params)
}
