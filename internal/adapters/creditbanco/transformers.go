package creditbanco

import (
	"encoding/json"
	"net/url"
	"time"

	"payrouter/pkg/connectors"
	"payrouter/pkg/masking"
)

type reference struct {
	Key         string `json:"reference_key"`
	Description string `json:"reference_description"`
}

type cardData struct {
	Name              masking.Secret[string] `json:"name"`
	CardNumber        masking.Secret[string] `json:"card_number"`
	CardExpireMonth   masking.Secret[string] `json:"card_expire_month"`
	CardExpireYear    masking.Secret[string] `json:"card_expire_year"`
	CVV               masking.Secret[string] `json:"cvv"`
	BrandID           masking.Secret[uint8]  `json:"brand_id"`
	CardAccountTypeID masking.Secret[uint8]  `json:"card_account_type_id"`
}

type paymentsRequest struct {
	Amount       json.Number `json:"amount"`
	CardData     cardData    `json:"card_data"`
	UniqueCode   string      `json:"unique_code"`
	TerminalID   string      `json:"terminal_id"`
	References   []reference `json:"references"`
	CurrencyCode uint16      `json:"currency_code"`
}

// accountMetadata is the optional merchant connector metadata.
type accountMetadata struct {
	TerminalID string `json:"terminal_id"`
}

func newPaymentsRequest(c *Creditbanco, data *connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData]) (*paymentsRequest, error) {
	pm := data.Request.PaymentMethod
	if pm.Type != connectors.PaymentMethodCard || pm.Card == nil {
		return nil, connectors.NotImplemented("Payment methods")
	}
	card := pm.Card
	if card.HolderName == nil {
		return nil, connectors.MissingRequiredField("card_holder_name")
	}
	var meta accountMetadata
	if len(data.ConnectorMetadata) > 0 {
		if err := json.Unmarshal(data.ConnectorMetadata, &meta); err != nil {
			return nil, connectors.RequestEncodingFailed(err)
		}
	}
	return &paymentsRequest{
		Amount: connectors.ConvertAmount(c, data.Request.Amount, data.Request.Currency),
		CardData: cardData{
			Name:            *card.HolderName,
			CardNumber:      card.Number,
			CardExpireMonth: card.ExpMonth,
			CardExpireYear:  card.ExpYear,
			CVV:             card.CVC,
		},
		UniqueCode:   data.PaymentID,
		TerminalID:   meta.TerminalID,
		References:   []reference{},
		CurrencyCode: data.Request.Currency.NumericCode(),
	}, nil
}

// EncodeJSON is the wire form, with the card data in the clear.
func (r paymentsRequest) EncodeJSON() ([]byte, error) {
	type wireCard struct {
		Name              string `json:"name"`
		CardNumber        string `json:"card_number"`
		CardExpireMonth   string `json:"card_expire_month"`
		CardExpireYear    string `json:"card_expire_year"`
		CVV               string `json:"cvv"`
		BrandID           uint8  `json:"brand_id"`
		CardAccountTypeID uint8  `json:"card_account_type_id"`
	}
	type wire paymentsRequest
	c := r.CardData
	return json.Marshal(struct {
		wire
		CardData wireCard `json:"card_data"`
	}{
		wire: wire(r),
		CardData: wireCard{
			Name:              c.Name.Expose(),
			CardNumber:        c.CardNumber.Expose(),
			CardExpireMonth:   c.CardExpireMonth.Expose(),
			CardExpireYear:    c.CardExpireYear.Expose(),
			CVV:               c.CVV.Expose(),
			BrandID:           c.BrandID.Expose(),
			CardAccountTypeID: c.CardAccountTypeID.Expose(),
		},
	})
}

var paymentStatuses = connectors.StatusMap[string, connectors.AttemptStatus]{
	Known: map[string]connectors.AttemptStatus{
		"succeeded":  connectors.StatusCharged,
		"failed":     connectors.StatusFailure,
		"processing": connectors.StatusAuthorizing,
	},
	Fallback: connectors.StatusPending,
}

type paymentsResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

func applyPaymentsResponse[Req any](data *connectors.RouterData[Req, connectors.PaymentsResponseData], res *connectors.Response) (*connectors.RouterData[Req, connectors.PaymentsResponseData], error) {
	body, err := connectors.DecodeJSON[paymentsResponse](res)
	if err != nil {
		return nil, err
	}
	data.Status = paymentStatuses.Map(body.Status)
	data.Response = connectors.Success(connectors.PaymentsResponseData{
		Kind:       connectors.TransactionResponse,
		ResourceID: body.ID,
	})
	return data, nil
}

var refundStatuses = connectors.StatusMap[string, connectors.RefundStatus]{
	Known: map[string]connectors.RefundStatus{
		"succeeded":  connectors.RefundSuccess,
		"failed":     connectors.RefundFailure,
		"processing": connectors.RefundPending,
	},
	Fallback: connectors.RefundPending,
}

type refundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func applyRefundResponse(data *connectors.RouterData[connectors.RefundsData, connectors.RefundsResponseData], res *connectors.Response) (*connectors.RouterData[connectors.RefundsData, connectors.RefundsResponseData], error) {
	body, err := connectors.DecodeJSON[refundResponse](res)
	if err != nil {
		return nil, err
	}
	data.Response = connectors.Success(connectors.RefundsResponseData{
		ConnectorRefundID: body.ID,
		RefundStatus:      refundStatuses.Map(body.Status),
	})
	return data, nil
}

// authRequest is the OAuth password grant, sent form encoded.
type authRequest struct {
	Username     masking.Secret[string]
	Password     masking.Secret[string]
	ClientID     masking.Secret[string]
	ClientSecret masking.Secret[string]
}

func newAuthRequest(req connectors.AccessTokenRequestData) (authRequest, error) {
	if req.ID == nil {
		return authRequest{}, connectors.MissingRequiredField("request.id")
	}
	return authRequest{
		Username:     orEmpty(req.Username),
		Password:     orEmpty(req.Password),
		ClientID:     req.AppID,
		ClientSecret: *req.ID,
	}, nil
}

func orEmpty(s *masking.Secret[string]) masking.Secret[string] {
	if s == nil {
		return masking.New("")
	}
	return *s
}

func (a authRequest) EncodeForm() (url.Values, error) {
	return url.Values{
		"username":      {a.Username.Expose()},
		"password":      {a.Password.Expose()},
		"grant_type":    {"password"},
		"client_id":     {a.ClientID.Expose()},
		"client_secret": {a.ClientSecret.Expose()},
	}, nil
}

type authResponse struct {
	AccessToken      masking.Secret[string] `json:"access_token"`
	RefreshExpiresIn int64                  `json:"refresh_expires_in"`
	ExpiresIn        int64                  `json:"expires_in"`
	RefreshToken     masking.Secret[string] `json:"refresh_token"`
	TokenType        string                 `json:"token_type"`
}

func (r authResponse) accessToken(now time.Time) connectors.AccessToken {
	return connectors.AccessToken{
		Token:     r.AccessToken,
		ExpiresAt: now.Add(time.Duration(r.ExpiresIn) * time.Second),
	}
}
