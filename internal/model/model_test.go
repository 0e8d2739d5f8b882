package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRepertoire(t *testing.T) {
	assert.Equal(t, []string{"Noche de Paz", "Adeste Fideles"}, SplitRepertoire(" Noche de Paz ,, Adeste Fideles , "))
	assert.Equal(t, []string{}, SplitRepertoire(""))
	assert.Equal(t, []string{}, SplitRepertoire(" , ,"))
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		parsed, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	_, err := ParseRole("conductor")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRoleJSON(t *testing.T) {
	b, err := json.Marshal(struct{ Role Role }{RoleDirector})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Role":"director"}`, string(b))

	var out struct{ Role Role }
	require.Error(t, json.Unmarshal([]byte(`{"Role":"root"}`), &out))
}

func TestConfigurationFieldsValidate(t *testing.T) {
	assert.NoError(t, ConfigurationFields{ThemeColor: "#10b981"}.Validate())
	assert.ErrorIs(t, ConfigurationFields{ThemeColor: "green"}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, ConfigurationFields{ThemeColor: "#10b98"}.Validate(), ErrInvalidInput)
}
