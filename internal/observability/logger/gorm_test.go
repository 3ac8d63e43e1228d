package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableOf(t *testing.T) {
	cases := []struct {
		sql  string
		want string
	}{
		{sql: `SELECT * FROM "options" WHERE option_name = $1`, want: "options"},
		{sql: "INSERT INTO `plugin_activations` (`plugin_name`) VALUES (?)", want: "plugin_activations"},
		{sql: `UPDATE audit_logs SET action = 'x'`, want: "audit_logs"},
		{sql: `PRAGMA foreign_keys = ON`, want: "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tableOf(tc.sql), tc.sql)
	}
}

func TestParamsFilterDropsValues(t *testing.T) {
	sql, params := NewGormLogger().ParamsFilter(context.Background(), "SELECT 1", "secret-license")
	assert.Equal(t, "SELECT 1", sql)
	assert.Nil(t, params)
}
