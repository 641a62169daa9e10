package sec

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"
)

// DownloadGrant - what a sealed download link is allowed to fetch
type DownloadGrant struct {
	OrderID string `json:"oid"`
	DocType string `json:"typ"`
	Exp     int64  `json:"exp"` // unix seconds
}

var ErrDownloadTokenExpired = errors.New("sec: download token expired")

// SealDownloadToken encrypts a grant into an opaque URL-safe token so
// generated documents can be fetched once without an API token
func SealDownloadToken(cipher *XChaCha20Poly1305Cipher, orderID string, docType string, ttl time.Duration) (string, error) {
	grant := DownloadGrant{
		OrderID: orderID,
		DocType: docType,
		Exp:     time.Now().Add(ttl).Unix(),
	}
	plain, err := json.Marshal(grant)
	if err != nil {
		return "", err
	}
	return cipher.EncryptEncode(plain)
}

// OpenDownloadToken decrypts and validates a sealed token
func OpenDownloadToken(cipher *XChaCha20Poly1305Cipher, token string, now time.Time) (*DownloadGrant, error) {
	plain, err := cipher.DecodeDecrypt(token)
	if err != nil {
		return nil, fmt.Errorf("sec: opening download token: %w", err)
	}
	var grant DownloadGrant
	if err = json.Unmarshal(plain, &grant); err != nil {
		return nil, fmt.Errorf("sec: decoding download grant: %w", err)
	}
	if now.Unix() > grant.Exp {
		return nil, ErrDownloadTokenExpired
	}
	return &grant, nil
}
