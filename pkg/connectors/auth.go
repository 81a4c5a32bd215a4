package connectors

import (
	"encoding/json"
	"fmt"

	"payrouter/pkg/masking"
)

type AuthKind string

const (
	HeaderKey    AuthKind = "HeaderKey"
	BodyKey      AuthKind = "BodyKey"
	SignatureKey AuthKind = "SignatureKey"
	MultiAuthKey AuthKind = "MultiAuthKey"
	NoKey        AuthKind = "NoKey"
)

// ConnectorAuthType is the merchant's credential set for one connector. Which
// fields are meaningful depends on Kind.
type ConnectorAuthType struct {
	Kind      AuthKind               `json:"auth_type"`
	APIKey    masking.Secret[string] `json:"api_key,omitempty"`
	Key1      masking.Secret[string] `json:"key1,omitempty"`
	APISecret masking.Secret[string] `json:"api_secret,omitempty"`
	Key2      masking.Secret[string] `json:"key2,omitempty"`
}

func (a *ConnectorAuthType) UnmarshalJSON(b []byte) error {
	type plain ConnectorAuthType
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	switch p.Kind {
	case HeaderKey, BodyKey, SignatureKey, MultiAuthKey, NoKey:
	default:
		return fmt.Errorf("unknown auth_type %q", p.Kind)
	}
	*a = ConnectorAuthType(p)
	return nil
}

// EncodeJSON writes the credentials in the clear, for sealing at rest.
func (a ConnectorAuthType) EncodeJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind      AuthKind `json:"auth_type"`
		APIKey    string   `json:"api_key,omitempty"`
		Key1      string   `json:"key1,omitempty"`
		APISecret string   `json:"api_secret,omitempty"`
		Key2      string   `json:"key2,omitempty"`
	}{a.Kind, a.APIKey.Expose(), a.Key1.Expose(), a.APISecret.Expose(), a.Key2.Expose()})
}

// AccessTokenRequestData is the credential bundle for a token exchange.
type AccessTokenRequestData struct {
	AppID    masking.Secret[string]
	ID       *masking.Secret[string]
	Username *masking.Secret[string]
	Password *masking.Secret[string]
}

// AccessTokenRequestFromAuth derives token exchange credentials from the
// merchant's connector auth.
func AccessTokenRequestFromAuth(auth ConnectorAuthType) (AccessTokenRequestData, error) {
	switch auth.Kind {
	case HeaderKey:
		return AccessTokenRequestData{AppID: auth.APIKey}, nil
	case BodyKey:
		return AccessTokenRequestData{AppID: auth.APIKey, ID: &auth.Key1}, nil
	case SignatureKey:
		return AccessTokenRequestData{AppID: auth.APIKey, ID: &auth.Key1, Username: &auth.APISecret}, nil
	case MultiAuthKey:
		return AccessTokenRequestData{AppID: auth.APIKey, ID: &auth.Key1, Username: &auth.APISecret, Password: &auth.Key2}, nil
	default:
		return AccessTokenRequestData{}, FailedToObtainAuthType()
	}
}
