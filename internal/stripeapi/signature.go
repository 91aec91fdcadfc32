package stripeapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature возвращается при отсутствующей, просроченной или
// не совпавшей подписи вебхука.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// DefaultSignatureTolerance — допустимый возраст подписи вебхука.
const DefaultSignatureTolerance = 5 * time.Minute

// VerifySignature проверяет заголовок Stripe-Signature для сырого тела
// вебхука. Подписываемая строка — "<timestamp>.<body>", подпись —
// HMAC-SHA256 в hex. Заголовок может содержать несколько значений v1,
// достаточно совпадения одного.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" {
		return ErrInvalidSignature
	}

	var timestamp int64
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(kv[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	if tolerance > 0 {
		age := now.Sub(time.Unix(timestamp, 0))
		if age > tolerance || age < -tolerance {
			return ErrInvalidSignature
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return ErrInvalidSignature
}
