package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOTP returns a zero-padded 6-digit numeric code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateOrderNumber derives an order number from the creation time and a
// random 4-digit suffix.
func GenerateOrderNumber(now time.Time) string {
	suffix := int64(0)
	if n, err := rand.Int(rand.Reader, big.NewInt(10000)); err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("ORD%d%04d", now.UnixMilli(), suffix)
}
