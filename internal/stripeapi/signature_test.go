package stripeapi_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sequencia-app/sequencia/internal/stripeapi"
)

const secret = "whsec_test"

func sign(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1"}`)

	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{
			name:    "valid signature",
			header:  fmt.Sprintf("t=%d,v1=%s", now.Unix(), sign(payload, secret, now)),
			wantErr: false,
		},
		{
			name:    "valid signature with spaces",
			header:  fmt.Sprintf("t=%d, v1=%s", now.Unix(), sign(payload, secret, now)),
			wantErr: false,
		},
		{
			name: "one of several v1 matches",
			header: fmt.Sprintf("t=%d,v1=%s,v1=%s", now.Unix(),
				sign(payload, "whsec_old", now), sign(payload, secret, now)),
			wantErr: false,
		},
		{
			name:    "empty header",
			header:  "",
			wantErr: true,
		},
		{
			name:    "missing v1",
			header:  fmt.Sprintf("t=%d", now.Unix()),
			wantErr: true,
		},
		{
			name:    "missing timestamp",
			header:  "v1=" + sign(payload, secret, now),
			wantErr: true,
		},
		{
			name:    "wrong secret",
			header:  fmt.Sprintf("t=%d,v1=%s", now.Unix(), sign(payload, "whsec_other", now)),
			wantErr: true,
		},
		{
			name:    "garbage timestamp",
			header:  "t=abc,v1=" + sign(payload, secret, now),
			wantErr: true,
		},
		{
			name: "expired timestamp",
			header: fmt.Sprintf("t=%d,v1=%s", now.Add(-time.Hour).Unix(),
				sign(payload, secret, now.Add(-time.Hour))),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := stripeapi.VerifySignature(payload, tt.header, secret,
				stripeapi.DefaultSignatureTolerance, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, stripeapi.ErrInvalidSignature)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	now := time.Now()
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), sign([]byte("original"), secret, now))

	err := stripeapi.VerifySignature([]byte("tampered"), header, secret,
		stripeapi.DefaultSignatureTolerance, now)
	assert.ErrorIs(t, err, stripeapi.ErrInvalidSignature)
}
