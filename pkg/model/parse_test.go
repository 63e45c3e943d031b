package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccount_BareObject(t *testing.T) {
	account, err := ParseAccount([]byte(`{"id":"acc_1","description":"test","owners":[{"user_id":"u1","preferred_name":"Alice"}]}`))
	require.NoError(t, err)

	assert.Equal(t, "acc_1", account.ID)
	assert.Equal(t, "test", account.Description)
	require.Len(t, account.Owners, 1)
	assert.Equal(t, "Alice", account.Owners[0].PreferredName)
	assert.Equal(t, "u1", account.Owners[0].UserID)
	assert.True(t, account.Created.IsZero())
}

func TestParseAccounts_Envelope(t *testing.T) {
	body := `{"accounts":[
		{"id":"acc_1","description":"user_1","created":"2019-05-06T10:11:12.123Z","closed":false,"type":"uk_retail","currency":"GBP",
		 "owners":[{"user_id":"user_1","preferred_name":"Alice Smith","preferred_first_name":"Alice"}],
		 "account_number":"12345678","sort_code":"040004"},
		{"id":"acc_2","description":"joint","created":"2020-01-02T03:04:05Z","closed":true,"type":"uk_retail_joint","owners":[]}
	]}`

	accounts, err := ParseAccounts([]byte(body))
	require.NoError(t, err)

	want := []Account{
		{
			ID:            "acc_1",
			Description:   "user_1",
			Created:       time.Date(2019, 5, 6, 10, 11, 12, 123000000, time.UTC),
			Type:          AccountTypeRetail,
			Currency:      "GBP",
			Owners:        []Owner{{UserID: "user_1", PreferredName: "Alice Smith", PreferredFirstName: "Alice"}},
			AccountNumber: "12345678",
			SortCode:      "040004",
		},
		{
			ID:          "acc_2",
			Description: "joint",
			Created:     time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
			Closed:      true,
			Type:        AccountTypeRetailJoint,
			Owners:      []Owner{},
		},
	}
	if diff := cmp.Diff(want, accounts); diff != "" {
		t.Errorf("ParseAccounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAccounts_EmptyList(t *testing.T) {
	accounts, err := ParseAccounts([]byte(`{"accounts":[]}`))
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.NotNil(t, accounts)
}

func TestParseAccounts_MissingID(t *testing.T) {
	_, err := ParseAccounts([]byte(`{"accounts":[{"description":"no id"}]}`))

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "account", malformed.Resource)
	assert.Equal(t, "id", malformed.Field)
}

func TestParseBalance(t *testing.T) {
	balance, err := ParseBalance([]byte(`{"balance": 5000, "currency": "GBP", "spend_today": -200}`))
	require.NoError(t, err)
	assert.Equal(t, Balance{Balance: 5000, Currency: "GBP", SpendToday: -200}, balance)
}

func TestParseBalance_MissingBalance(t *testing.T) {
	_, err := ParseBalance([]byte(`{"currency": "GBP"}`))

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "balance", malformed.Field)
}

func TestParsePots_IncludesDeleted(t *testing.T) {
	body := `{"pots":[
		{"id":"pot_1","name":"Savings","style":"beach_ball","balance":133700,"currency":"GBP","round_up":true,
		 "created":"2017-11-09T12:30:53.695Z","updated":"2018-02-26T07:12:04.925Z","deleted":false},
		{"id":"pot_2","name":"Old","balance":0,"currency":"GBP","deleted":true}
	]}`

	pots, err := ParsePots([]byte(body))
	require.NoError(t, err)
	require.Len(t, pots, 2)

	assert.Equal(t, "pot_1", pots[0].ID)
	assert.Equal(t, int64(133700), pots[0].Balance)
	assert.True(t, pots[0].RoundUp)
	assert.Equal(t, 2018, pots[0].Updated.Year())
	assert.True(t, pots[1].Deleted)

	active := ActivePots(pots)
	require.Len(t, active, 1)
	assert.Equal(t, "pot_1", active[0].ID)
}

func TestParsePot_BareObject(t *testing.T) {
	pot, err := ParsePot([]byte(`{"id":"pot_9","name":"Holiday","balance":1500,"currency":"GBP"}`))
	require.NoError(t, err)
	assert.Equal(t, "pot_9", pot.ID)
	assert.Equal(t, int64(1500), pot.Balance)
}

func TestParseTransaction_ExpandedMerchant(t *testing.T) {
	body := `{"transaction":{
		"id":"tx_1","account_id":"acc_1","amount":-510,"currency":"GBP","local_amount":-510,"local_currency":"GBP",
		"description":"THE DE BEAUVOIR DELI C LONDON GBR","category":"eating_out",
		"created":"2015-08-22T12:20:18Z","updated":"2015-08-22T12:21:00Z","settled":"",
		"merchant":{"id":"merch_1","group_id":"grp_1","name":"The De Beauvoir Deli Co.","category":"eating_out",
			"address":{"city":"London","postcode":"N1 4HJ","latitude":51.5,"longitude":-0.08}},
		"metadata":{"notes":"lunch"},
		"attachments":[{"id":"attach_1","external_id":"tx_1","file_type":"image/png","file_url":"https://example.com/a.png","user_id":"user_1","created":"2015-08-23T00:00:00Z"}]
	}}`

	tx, err := ParseTransaction([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "tx_1", tx.ID)
	assert.Equal(t, int64(-510), tx.Amount)
	assert.False(t, tx.IsSettled())
	assert.Equal(t, "merch_1", tx.MerchantID)
	require.NotNil(t, tx.Merchant)
	assert.Equal(t, "The De Beauvoir Deli Co.", tx.Merchant.Name)
	assert.Equal(t, "London", tx.Merchant.Address.City)
	assert.Equal(t, map[string]string{"notes": "lunch"}, tx.Metadata)
	require.Len(t, tx.Attachments, 1)
	assert.Equal(t, "attach_1", tx.Attachments[0].ID)
}

func TestParseTransactions_MerchantID(t *testing.T) {
	body := `{"transactions":[
		{"id":"tx_1","amount":-100,"currency":"GBP","merchant":"merch_1","created":"2015-08-22T12:20:18.123Z","settled":"2015-08-23T12:20:18Z"},
		{"id":"tx_2","amount":2500,"currency":"GBP","merchant":null,"metadata":null,"attachments":null}
	]}`

	txs, err := ParseTransactions([]byte(body))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "merch_1", txs[0].MerchantID)
	assert.Nil(t, txs[0].Merchant)
	assert.True(t, txs[0].IsSettled())

	assert.Empty(t, txs[1].MerchantID)
	assert.NotNil(t, txs[1].Metadata)
	assert.Empty(t, txs[1].Attachments)
}

func TestParseTransaction_BadTimestamp(t *testing.T) {
	_, err := ParseTransaction([]byte(`{"id":"tx_1","created":"yesterday"}`))

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "transaction", malformed.Resource)
	assert.Contains(t, err.Error(), "created")
}

func TestParseWebhooks(t *testing.T) {
	webhooks, err := ParseWebhooks([]byte(`{"webhooks":[{"id":"webhook_1","account_id":"acc_1","url":"https://example.com/hook"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []Webhook{{ID: "webhook_1", AccountID: "acc_1", URL: "https://example.com/hook"}}, webhooks)

	webhook, err := ParseWebhook([]byte(`{"webhook":{"id":"webhook_2","account_id":"acc_1","url":"https://example.com/other"}}`))
	require.NoError(t, err)
	assert.Equal(t, "webhook_2", webhook.ID)

	_, err = ParseWebhook([]byte(`{"webhook":{"account_id":"acc_1"}}`))
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "id", malformed.Field)
}

func TestParseAttachment(t *testing.T) {
	attachment, err := ParseAttachment([]byte(`{"attachment":{"id":"attach_1","external_id":"tx_1","file_type":"image/png","file_url":"https://example.com/a.png","user_id":"user_1"}}`))
	require.NoError(t, err)
	assert.Equal(t, Attachment{
		ID:         "attach_1",
		ExternalID: "tx_1",
		FileType:   "image/png",
		FileURL:    "https://example.com/a.png",
		UserID:     "user_1",
	}, attachment)
}

func TestParseAttachment_NoAttachment(t *testing.T) {
	for _, body := range []string{`[]`, `{"attachment":null}`, `{}`} {
		_, err := ParseAttachment([]byte(body))

		var malformed *MalformedResponseError
		require.ErrorAs(t, err, &malformed, body)
		assert.Equal(t, "attachment", malformed.Resource, body)
		assert.Equal(t, "id", malformed.Field, body)
	}
}

func TestParseWhoAmI(t *testing.T) {
	whoami, err := ParseWhoAmI([]byte(`{"authenticated":true,"client_id":"oauth2client_1","user_id":"user_1"}`))
	require.NoError(t, err)
	assert.Equal(t, WhoAmI{Authenticated: true, ClientID: "oauth2client_1", UserID: "user_1"}, whoami)

	_, err = ParseWhoAmI([]byte(`{}`))
	assert.Error(t, err)
}

func TestParseUpload(t *testing.T) {
	upload, err := ParseUpload([]byte(`{"file_url":"https://files/a.png","upload_url":"https://upload/a.png?sig=1"}`))
	require.NoError(t, err)
	assert.Equal(t, Upload{FileURL: "https://files/a.png", UploadURL: "https://upload/a.png?sig=1"}, upload)

	_, err = ParseUpload([]byte(`{"file_url":"https://files/a.png"}`))
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "upload_url", malformed.Field)
}

func TestParse_InvalidJSON(t *testing.T) {
	parsers := map[string]func([]byte) error{
		"accounts":     func(b []byte) error { _, err := ParseAccounts(b); return err },
		"balance":      func(b []byte) error { _, err := ParseBalance(b); return err },
		"pots":         func(b []byte) error { _, err := ParsePots(b); return err },
		"transactions": func(b []byte) error { _, err := ParseTransactions(b); return err },
		"webhooks":     func(b []byte) error { _, err := ParseWebhooks(b); return err },
	}

	for name, parse := range parsers {
		t.Run(name, func(t *testing.T) {
			err := parse([]byte(`{not json`))
			var malformed *MalformedResponseError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Empty(t, malformed.Field)
			assert.NotNil(t, malformed.Err)
		})
	}
}
