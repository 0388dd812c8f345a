package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealmCreate_DecodeTracksPresence(t *testing.T) {
	body := `{
		"realm": "acme",
		"customer_type": "Large",
		"display_name": "Acme",
		"login_theme": null,
		"supported_locales": [],
		"access_token_lifespan": 300
	}`

	var c RealmCreate
	require.NoError(t, json.Unmarshal([]byte(body), &c))

	assert.Equal(t, "acme", c.Realm)
	assert.Equal(t, "Large", c.CustomerType)

	assert.True(t, c.DisplayName.Present())
	assert.Equal(t, "Acme", c.DisplayName.Value)

	assert.True(t, c.LoginTheme.Set)
	assert.True(t, c.LoginTheme.Null)
	assert.Nil(t, c.LoginTheme.Ptr())

	assert.True(t, c.SupportedLocales.Present())
	assert.Empty(t, c.SupportedLocales.Value)

	assert.False(t, c.AccountTheme.Set)
	assert.False(t, c.Enabled.Set)
	assert.True(t, c.EnabledOrDefault())

	require.NotNil(t, c.AccessTokenLifespan.Ptr())
	assert.Equal(t, 300, *c.AccessTokenLifespan.Ptr())
}

func TestRealmCreate_DecodeWrongType(t *testing.T) {
	var c RealmCreate
	err := json.Unmarshal([]byte(`{"realm":"acme","customer_type":"Large","enabled":"yes"}`), &c)
	assert.Error(t, err)
}

func TestRealmCreate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   RealmCreate
		wantErr bool
	}{
		{name: "valid", input: RealmCreate{Realm: "acme", CustomerType: "Large"}},
		{name: "missing realm", input: RealmCreate{CustomerType: "Large"}, wantErr: true},
		{name: "blank realm", input: RealmCreate{Realm: "   ", CustomerType: "Large"}, wantErr: true},
		{name: "slash in realm", input: RealmCreate{Realm: "a/b", CustomerType: "Large"}, wantErr: true},
		{name: "missing customer type", input: RealmCreate{Realm: "acme"}, wantErr: true},
		{
			name:    "null enabled",
			input:   RealmCreate{Realm: "acme", CustomerType: "Large", RealmSettings: RealmSettings{Enabled: Null[bool]()}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, KindValidation, ErrorKind(err))
		})
	}
}

func TestErrorKind(t *testing.T) {
	err := NewError(KindUpstream, "keycloak.create_realm", "identity provider request failed", assert.AnError)

	assert.Equal(t, KindUpstream, ErrorKind(err))
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, KindInternal, ErrorKind(assert.AnError))
	assert.Contains(t, ErrorMessage(err), "identity provider request failed")
	assert.NotContains(t, ErrorMessage(err), "keycloak.create_realm")
}
